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

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type enrollmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// EnrollmentService binds students to courses and drives the enrollment
// state machine.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   enrollmentCourseRepository
	users     enrollmentUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	clock     clockwork.Clock
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(repo enrollmentRepository, courses enrollmentCourseRepository, users enrollmentUserRepository, validate *validator.Validate, logger *zap.Logger, clock clockwork.Clock) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EnrollmentService{repo: repo, courses: courses, users: users, validator: validate, logger: logger, clock: clock}
}

// Enroll creates an ACTIVE enrollment. The student must exist and hold the
// student role, the course must accept enrollments, and the (student, course)
// pair must be new.
func (s *EnrollmentService) Enroll(ctx context.Context, req models.EnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Role.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only students can be enrolled")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.IsEnrollable() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "course is not accepting enrollments")
	}

	exists, err := s.repo.Exists(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
	}

	enrollment := &models.Enrollment{
		StudentID:      req.StudentID,
		CourseID:       req.CourseID,
		EnrollmentDate: s.clock.Now().UTC(),
		Status:         models.EnrollmentStatusActive,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", enrollment.StudentID),
		zap.String("course_id", enrollment.CourseID),
	)
	return enrollment, nil
}

// Get returns an enrollment with student and course names.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// ListByStudent returns a student's enrollments.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student enrollments")
	}
	return enrollments, nil
}

// ListByCourse returns a course's enrollments.
func (s *EnrollmentService) ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course enrollments")
	}
	return enrollments, nil
}

// Complete finishes an ACTIVE enrollment with a final grade.
func (s *EnrollmentService) Complete(ctx context.Context, id string, req models.CompleteEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}
	return s.transition(ctx, id, "enrollment completed", func(e *models.Enrollment) error {
		return e.Complete(req.Grade, s.clock.Now().UTC())
	})
}

// Drop abandons an ACTIVE enrollment.
func (s *EnrollmentService) Drop(ctx context.Context, id string) (*models.Enrollment, error) {
	return s.transition(ctx, id, "enrollment dropped", (*models.Enrollment).Drop)
}

// Suspend pauses an ACTIVE enrollment.
func (s *EnrollmentService) Suspend(ctx context.Context, id string) (*models.Enrollment, error) {
	return s.transition(ctx, id, "enrollment suspended", (*models.Enrollment).Suspend)
}

// Reactivate resumes a SUSPENDED enrollment.
func (s *EnrollmentService) Reactivate(ctx context.Context, id string) (*models.Enrollment, error) {
	return s.transition(ctx, id, "enrollment reactivated", (*models.Enrollment).Reactivate)
}

func (s *EnrollmentService) transition(ctx context.Context, id, event string, apply func(*models.Enrollment) error) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if err := apply(enrollment); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	s.logger.Info(event, zap.String("enrollment_id", enrollment.ID))
	return enrollment, nil
}
