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

type questionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
	FindDetailByID(ctx context.Context, id string) (*models.QuestionDetail, error)
	List(ctx context.Context) ([]models.QuestionDetail, error)
	Search(ctx context.Context, term string) ([]models.QuestionDetail, error)
	Create(ctx context.Context, question *models.Question) error
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error
}

// QuestionService manages the forum question board.
type QuestionService struct {
	repo      questionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionService constructs a QuestionService instance.
func NewQuestionService(repo questionRepository, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &QuestionService{repo: repo, validator: validate, logger: logger}
}

// Create posts a new question authored by the caller.
func (s *QuestionService) Create(ctx context.Context, authorID string, req models.QuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}

	question := &models.Question{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: authorID,
	}
	if err := s.repo.Create(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}

	s.logger.Info("question created",
		zap.String("question_id", question.ID),
		zap.String("author_id", authorID),
	)
	return question, nil
}

// Get returns a question with author name and answer count.
func (s *QuestionService) Get(ctx context.Context, id string) (*models.QuestionDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	return detail, nil
}

// List returns all questions, newest first.
func (s *QuestionService) List(ctx context.Context) ([]models.QuestionDetail, error) {
	questions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	return questions, nil
}

// Search returns questions matching the term in title or content.
func (s *QuestionService) Search(ctx context.Context, term string) ([]models.QuestionDetail, error) {
	if term == "" {
		return s.List(ctx)
	}
	questions, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search questions")
	}
	return questions, nil
}

// Update edits a question. Only the author may edit.
func (s *QuestionService) Update(ctx context.Context, id, actorID string, req models.QuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}

	question, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if question.AuthorID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author may edit this question")
	}

	question.Title = req.Title
	question.Content = req.Content
	if err := s.repo.Update(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}
	return question, nil
}

// Delete removes a question and its answers. The author or an admin may
// delete.
func (s *QuestionService) Delete(ctx context.Context, id, actorID string, actorRole models.UserRole) error {
	question, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if question.AuthorID != actorID && !actorRole.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "no permission to delete this question")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	s.logger.Info("question deleted", zap.String("question_id", id))
	return nil
}

func (s *QuestionService) load(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	return question, nil
}
