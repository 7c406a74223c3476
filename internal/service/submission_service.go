package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

type submissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.TaskSubmission, error)
	FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error)
	ExistsByTaskAndStudent(ctx context.Context, taskID, studentID string) (bool, error)
	ListByTask(ctx context.Context, taskID string) ([]models.SubmissionDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.SubmissionDetail, error)
	Create(ctx context.Context, submission *models.TaskSubmission) error
	Update(ctx context.Context, submission *models.TaskSubmission) error
}

type submissionTaskRepository interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
}

// SubmissionService manages student answers to tasks and their grading.
type SubmissionService struct {
	repo      submissionRepository
	tasks     submissionTaskRepository
	validator *validator.Validate
	logger    *zap.Logger
	clock     clockwork.Clock
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(repo submissionRepository, tasks submissionTaskRepository, validate *validator.Validate, logger *zap.Logger, clock clockwork.Clock) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SubmissionService{repo: repo, tasks: tasks, validator: validate, logger: logger, clock: clock}
}

// Submit records a student's first answer to a task. Lateness is decided at
// the submission instant against the task deadline, and the task itself moves
// to SUBMITTED or LATE.
func (s *SubmissionService) Submit(ctx context.Context, studentID string, req models.SubmissionRequest) (*models.TaskSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	task, err := s.tasks.FindByID(ctx, req.TaskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	exists, err := s.repo.ExistsByTaskAndStudent(ctx, req.TaskID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check submission")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "task already submitted by this student")
	}

	now := s.clock.Now().UTC()
	if err := task.Submit(now); err != nil {
		return nil, err
	}

	submission := &models.TaskSubmission{
		TaskID:      req.TaskID,
		StudentID:   studentID,
		Content:     req.Content,
		FileURL:     req.FileURL,
		SubmittedAt: now,
		Status:      models.SubmissionStatusSubmitted,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task status")
	}

	s.logger.Info("task submitted",
		zap.String("submission_id", submission.ID),
		zap.String("task_id", task.ID),
		zap.String("student_id", studentID),
		zap.Bool("late", submission.IsLate(task.Deadline)),
	)
	return submission, nil
}

// Grade assigns a grade and feedback to a submission. Only teachers and above
// may grade; ownership of the grading role is checked at the route.
func (s *SubmissionService) Grade(ctx context.Context, id, graderID string, req models.GradeSubmissionRequest) (*models.TaskSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	submission, task, err := s.loadPair(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := task.Grade(); err != nil {
		return nil, err
	}
	if err := submission.AssignGrade(req.Grade, req.Feedback, graderID, s.clock.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task status")
	}

	s.logger.Info("submission graded",
		zap.String("submission_id", submission.ID),
		zap.Float64("grade", req.Grade),
	)
	return submission, nil
}

// ReturnForRevision hands a submission back to the student with feedback and
// reopens the task for resubmission.
func (s *SubmissionService) ReturnForRevision(ctx context.Context, id, graderID string, req models.ReturnSubmissionRequest) (*models.TaskSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid return payload")
	}

	submission, task, err := s.loadPair(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := task.ReturnForRevision(); err != nil {
		return nil, err
	}
	submission.ReturnForRevision(req.Feedback, graderID, s.clock.Now().UTC())

	if err := s.repo.Update(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task status")
	}

	s.logger.Info("submission returned for revision", zap.String("submission_id", submission.ID))
	return submission, nil
}

// Resubmit replaces the content of a RETURNED submission. Only the original
// student may resubmit, and lateness is re-evaluated at the new instant.
func (s *SubmissionService) Resubmit(ctx context.Context, id, studentID string, req models.ResubmitRequest) (*models.TaskSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	submission, task, err := s.loadPair(ctx, id)
	if err != nil {
		return nil, err
	}

	if submission.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the original student may resubmit")
	}

	now := s.clock.Now().UTC()
	if err := submission.Resubmit(req.Content, req.FileURL, now); err != nil {
		return nil, err
	}
	if err := task.Submit(now); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task status")
	}

	s.logger.Info("task resubmitted",
		zap.String("submission_id", submission.ID),
		zap.String("student_id", studentID),
	)
	return submission, nil
}

// Get returns a submission with its task and student context.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	detail.Late = detail.IsLate(detail.TaskDeadline)
	return detail, nil
}

// ListByTask returns all submissions for a task.
func (s *SubmissionService) ListByTask(ctx context.Context, taskID string) ([]models.SubmissionDetail, error) {
	submissions, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list task submissions")
	}
	stampLate(submissions)
	return submissions, nil
}

// ListByStudent returns a student's submissions.
func (s *SubmissionService) ListByStudent(ctx context.Context, studentID string) ([]models.SubmissionDetail, error) {
	submissions, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student submissions")
	}
	stampLate(submissions)
	return submissions, nil
}

func (s *SubmissionService) loadPair(ctx context.Context, id string) (*models.TaskSubmission, *models.Task, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	task, err := s.tasks.FindByID(ctx, submission.TaskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return submission, task, nil
}

func stampLate(submissions []models.SubmissionDetail) {
	for i := range submissions {
		submissions[i].Late = submissions[i].IsLate(submissions[i].TaskDeadline)
	}
}
