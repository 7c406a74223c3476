package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			out = append(out, models.EnrollmentDetail{Enrollment: e})
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			out = append(out, models.EnrollmentDetail{Enrollment: e})
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

var enrollmentTestNow = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentRepo, *mockCourseReader) {
	repo := &mockEnrollmentRepo{}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"open":   {ID: "open", Name: "Algorithms", Status: models.CourseStatusActive},
		"sched":  {ID: "sched", Name: "Databases", Status: models.CourseStatusScheduled},
		"closed": {ID: "closed", Name: "History", Status: models.CourseStatusCompleted},
	}}
	users := &mockUserReader{users: map[string]*models.User{
		"s1": {ID: "s1", Role: models.RoleStudent},
		"t1": {ID: "t1", Role: models.RoleTeacher},
	}}
	clock := clockwork.NewFakeClockAt(enrollmentTestNow)
	return NewEnrollmentService(repo, courses, users, nil, nil, clock), repo, courses
}

func TestEnrollInEnrollableCourses(t *testing.T) {
	svc, repo, _ := newEnrollmentFixture()

	for _, courseID := range []string{"open", "sched"} {
		enrollment, err := svc.Enroll(context.Background(), models.EnrollmentRequest{StudentID: "s1", CourseID: courseID})
		require.NoError(t, err, "course %s", courseID)
		assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
		assert.Equal(t, enrollmentTestNow, enrollment.EnrollmentDate)
	}
	assert.Len(t, repo.enrollments, 2)
}

func TestEnrollInClosedCourseRejected(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), models.EnrollmentRequest{StudentID: "s1", CourseID: "closed"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
}

func TestEnrollDuplicatePairRejected(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), models.EnrollmentRequest{StudentID: "s1", CourseID: "open"})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), models.EnrollmentRequest{StudentID: "s1", CourseID: "open"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestEnrollNonStudentRejected(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), models.EnrollmentRequest{StudentID: "t1", CourseID: "open"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestCompleteRecordsGrade(t *testing.T) {
	svc, repo, _ := newEnrollmentFixture()

	created, err := svc.Enroll(context.Background(), models.EnrollmentRequest{StudentID: "s1", CourseID: "open"})
	require.NoError(t, err)

	enrollment, err := svc.Complete(context.Background(), created.ID, models.CompleteEnrollmentRequest{Grade: 9.0})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	require.NotNil(t, enrollment.Grade)
	assert.Equal(t, 9.0, *enrollment.Grade)
	assert.NotNil(t, enrollment.CompletedAt)
	assert.Equal(t, models.EnrollmentStatusCompleted, repo.enrollments[created.ID].Status)
}

func TestDropRequiresActive(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	created, err := svc.Enroll(context.Background(), models.EnrollmentRequest{StudentID: "s1", CourseID: "open"})
	require.NoError(t, err)

	_, err = svc.Drop(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = svc.Drop(context.Background(), created.ID)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
}

func TestSuspendReactivateCycle(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	created, err := svc.Enroll(context.Background(), models.EnrollmentRequest{StudentID: "s1", CourseID: "open"})
	require.NoError(t, err)

	suspended, err := svc.Suspend(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusSuspended, suspended.Status)

	_, err = svc.Suspend(context.Background(), created.ID)
	require.Error(t, err)

	reactivated, err := svc.Reactivate(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, reactivated.Status)
}
