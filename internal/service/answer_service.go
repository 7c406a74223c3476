package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

type answerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID string) ([]models.AnswerDetail, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.AnswerDetail, error)
	Create(ctx context.Context, answer *models.Answer) error
	Update(ctx context.Context, answer *models.Answer) error
	Delete(ctx context.Context, id string) error
}

type answerQuestionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
}

// AnswerService manages answers and their acceptance by question authors.
type AnswerService struct {
	repo      answerRepository
	questions answerQuestionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnswerService constructs an AnswerService instance.
func NewAnswerService(repo answerRepository, questions answerQuestionRepository, validate *validator.Validate, logger *zap.Logger) *AnswerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AnswerService{repo: repo, questions: questions, validator: validate, logger: logger}
}

// Create posts an answer to a question.
func (s *AnswerService) Create(ctx context.Context, questionID, authorID string, req models.AnswerRequest) (*models.Answer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}

	if _, err := s.questions.FindByID(ctx, questionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	answer := &models.Answer{
		QuestionID: questionID,
		AuthorID:   authorID,
		Content:    req.Content,
	}
	if err := s.repo.Create(ctx, answer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create answer")
	}

	s.logger.Info("answer created",
		zap.String("answer_id", answer.ID),
		zap.String("question_id", questionID),
	)
	return answer, nil
}

// Get returns an answer by its ID.
func (s *AnswerService) Get(ctx context.Context, id string) (*models.Answer, error) {
	return s.load(ctx, id)
}

// ListByQuestion returns a question's answers, accepted first.
func (s *AnswerService) ListByQuestion(ctx context.Context, questionID string) ([]models.AnswerDetail, error) {
	answers, err := s.repo.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list answers")
	}
	return answers, nil
}

// ListByAuthor returns all answers written by a user.
func (s *AnswerService) ListByAuthor(ctx context.Context, authorID string) ([]models.AnswerDetail, error) {
	answers, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list author answers")
	}
	return answers, nil
}

// Update edits an answer. Only the author may edit.
func (s *AnswerService) Update(ctx context.Context, id, actorID string, req models.AnswerRequest) (*models.Answer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}

	answer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if answer.AuthorID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author may edit this answer")
	}

	answer.Content = req.Content
	if err := s.repo.Update(ctx, answer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update answer")
	}
	return answer, nil
}

// Delete removes an answer. The author or an admin may delete.
func (s *AnswerService) Delete(ctx context.Context, id, actorID string, actorRole models.UserRole) error {
	answer, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if answer.AuthorID != actorID && !actorRole.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "no permission to delete this answer")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete answer")
	}
	s.logger.Info("answer deleted", zap.String("answer_id", id))
	return nil
}

// Accept marks an answer as accepted. Only the question author may accept.
func (s *AnswerService) Accept(ctx context.Context, id, actorID string) (*models.Answer, error) {
	answer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	question, err := s.questions.FindByID(ctx, answer.QuestionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if question.AuthorID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the question author may accept an answer")
	}

	answer.Accept()
	if err := s.repo.Update(ctx, answer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update answer")
	}

	s.logger.Info("answer accepted", zap.String("answer_id", id))
	return answer, nil
}

func (s *AnswerService) load(ctx context.Context, id string) (*models.Answer, error) {
	answer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answer")
	}
	return answer, nil
}
