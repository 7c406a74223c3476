package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const (
	courseListCacheKey    = "courses:list"
	courseCacheKeyPattern = "courses:*"
)

// CourseService manages the course catalog. Reads go through Redis; any write
// invalidates the whole catalog keyspace.
type CourseService struct {
	repo      courseRepository
	cache     courseCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	clock     clockwork.Clock
	cacheTTL  time.Duration
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(repo courseRepository, cache courseCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, clock clockwork.Clock, cacheTTL time.Duration) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &CourseService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, clock: clock, cacheTTL: cacheTTL}
}

// Create registers a new DRAFT course.
func (s *CourseService) Create(ctx context.Context, req models.CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}

	course := &models.Course{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      models.CourseStatusDraft,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)

	s.logger.Info("course created", zap.String("course_id", course.ID))
	return course, nil
}

// Get returns a course, from cache when possible.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	key := fmt.Sprintf("courses:%s", id)

	var cached models.Course
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, course, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache course", zap.Error(err))
		}
	}
	return course, nil
}

// List returns the catalog, from cache when possible.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	var cached []models.Course
	if s.cache != nil {
		if err := s.cache.Get(ctx, courseListCacheKey, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, courseListCacheKey, courses, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache course list", zap.Error(err))
		}
	}
	return courses, nil
}

// Update edits name, description and date bounds.
func (s *CourseService) Update(ctx context.Context, id string, req models.CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}

	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	course.Name = req.Name
	course.Description = req.Description
	course.StartDate = req.StartDate
	course.EndDate = req.EndDate
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)
	return course, nil
}

// SetStatus moves the course through its lifecycle.
func (s *CourseService) SetStatus(ctx context.Context, id string, status models.CourseStatus) (*models.Course, error) {
	switch status {
	case models.CourseStatusDraft, models.CourseStatusScheduled, models.CourseStatusActive,
		models.CourseStatusPaused, models.CourseStatusCompleted, models.CourseStatusCancelled:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown course status")
	}

	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Status.IsFinished() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "course lifecycle already finished")
	}

	course.Status = status
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)

	s.logger.Info("course status changed",
		zap.String("course_id", course.ID),
		zap.String("status", string(course.Status)),
	)
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidate(ctx)

	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// IsCurrentlyActive reports the derived activity predicate for a course.
func (s *CourseService) IsCurrentlyActive(ctx context.Context, id string) (bool, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return course.IsCurrentlyActive(s.clock.Now().UTC()), nil
}

func (s *CourseService) load(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *CourseService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, courseCacheKeyPattern); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
}
