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

type taskRepository interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context) ([]models.Task, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

type taskCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// TaskService manages course assignments.
type TaskService struct {
	repo      taskRepository
	courses   taskCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
	clock     clockwork.Clock
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(repo taskRepository, courses taskCourseRepository, validate *validator.Validate, logger *zap.Logger, clock clockwork.Clock) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TaskService{repo: repo, courses: courses, validator: validate, logger: logger, clock: clock}
}

// Create registers a new task on a course. The deadline must lie in the
// future and the course must exist.
func (s *TaskService) Create(ctx context.Context, req models.TaskRequest, creatorID string) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if !req.Deadline.After(s.clock.Now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be in the future")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		CourseID:    req.CourseID,
		Status:      models.TaskStatusPending,
	}
	if creatorID != "" {
		task.CreatedBy = &creatorID
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("course_id", task.CourseID),
	)
	return task, nil
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// List returns all tasks.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// ListByCourse returns a course's tasks.
func (s *TaskService) ListByCourse(ctx context.Context, courseID string) ([]models.Task, error) {
	tasks, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course tasks")
	}
	return tasks, nil
}

// Update edits title, description and deadline. Status is owned by the
// submission flow and never set directly here.
func (s *TaskService) Update(ctx context.Context, id string, req models.TaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Title = req.Title
	task.Description = req.Description
	task.Deadline = req.Deadline
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	s.logger.Info("task deleted", zap.String("task_id", id))
	return nil
}
