package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

type mockSubmissionRepo struct {
	submissions map[string]models.TaskSubmission
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*models.TaskSubmission, error) {
	if s, ok := m.submissions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	if s, ok := m.submissions[id]; ok {
		return &models.SubmissionDetail{TaskSubmission: s}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) ExistsByTaskAndStudent(ctx context.Context, taskID, studentID string) (bool, error) {
	for _, s := range m.submissions {
		if s.TaskID == taskID && s.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubmissionRepo) ListByTask(ctx context.Context, taskID string) ([]models.SubmissionDetail, error) {
	var out []models.SubmissionDetail
	for _, s := range m.submissions {
		if s.TaskID == taskID {
			out = append(out, models.SubmissionDetail{TaskSubmission: s})
		}
	}
	return out, nil
}

func (m *mockSubmissionRepo) ListByStudent(ctx context.Context, studentID string) ([]models.SubmissionDetail, error) {
	var out []models.SubmissionDetail
	for _, s := range m.submissions {
		if s.StudentID == studentID {
			out = append(out, models.SubmissionDetail{TaskSubmission: s})
		}
	}
	return out, nil
}

func (m *mockSubmissionRepo) Create(ctx context.Context, submission *models.TaskSubmission) error {
	if m.submissions == nil {
		m.submissions = make(map[string]models.TaskSubmission)
	}
	if submission.ID == "" {
		submission.ID = "new-submission"
	}
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *mockSubmissionRepo) Update(ctx context.Context, submission *models.TaskSubmission) error {
	m.submissions[submission.ID] = *submission
	return nil
}

type mockTaskRepoForSubmissions struct {
	tasks map[string]models.Task
}

func (m *mockTaskRepoForSubmissions) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if t, ok := m.tasks[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTaskRepoForSubmissions) Update(ctx context.Context, task *models.Task) error {
	m.tasks[task.ID] = *task
	return nil
}

var submissionTestDeadline = time.Date(2024, 6, 20, 23, 59, 0, 0, time.UTC)

func newSubmissionFixture(start time.Time) (*SubmissionService, *mockSubmissionRepo, *mockTaskRepoForSubmissions, *clockwork.FakeClock) {
	repo := &mockSubmissionRepo{}
	tasks := &mockTaskRepoForSubmissions{tasks: map[string]models.Task{
		"t1": {ID: "t1", Title: "Essay", Deadline: submissionTestDeadline, Status: models.TaskStatusPending},
	}}
	clock := clockwork.NewFakeClockAt(start)
	return NewSubmissionService(repo, tasks, nil, nil, clock), repo, tasks, clock
}

func TestSubmitBeforeDeadline(t *testing.T) {
	svc, repo, tasks, _ := newSubmissionFixture(submissionTestDeadline.Add(-24 * time.Hour))

	submission, err := svc.Submit(context.Background(), "s1", models.SubmissionRequest{TaskID: "t1", Content: "my answer"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusSubmitted, submission.Status)
	assert.False(t, submission.IsLate(submissionTestDeadline))
	assert.Equal(t, models.TaskStatusSubmitted, tasks.tasks["t1"].Status)
	assert.Contains(t, repo.submissions, submission.ID)
}

func TestSubmitAfterDeadlineMarksTaskLate(t *testing.T) {
	svc, _, tasks, _ := newSubmissionFixture(submissionTestDeadline.Add(time.Hour))

	submission, err := svc.Submit(context.Background(), "s1", models.SubmissionRequest{TaskID: "t1", Content: "my answer"})
	require.NoError(t, err)
	assert.True(t, submission.IsLate(submissionTestDeadline))
	assert.Equal(t, models.TaskStatusLate, tasks.tasks["t1"].Status)
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	svc, _, _, _ := newSubmissionFixture(submissionTestDeadline.Add(-24 * time.Hour))

	_, err := svc.Submit(context.Background(), "s1", models.SubmissionRequest{TaskID: "t1", Content: "first"})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "s1", models.SubmissionRequest{TaskID: "t1", Content: "second"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestGradeSetsPairAndTaskStatus(t *testing.T) {
	svc, repo, tasks, _ := newSubmissionFixture(submissionTestDeadline.Add(-24 * time.Hour))

	submission, err := svc.Submit(context.Background(), "s1", models.SubmissionRequest{TaskID: "t1", Content: "answer"})
	require.NoError(t, err)

	graded, err := svc.Grade(context.Background(), submission.ID, "teacher1", models.GradeSubmissionRequest{Grade: 8.5, Feedback: "good work"})
	require.NoError(t, err)
	assert.True(t, graded.IsGraded())
	require.NotNil(t, graded.Grade)
	assert.Equal(t, 8.5, *graded.Grade)
	require.NotNil(t, graded.GradedBy)
	assert.Equal(t, "teacher1", *graded.GradedBy)
	assert.NotNil(t, graded.GradedAt)
	assert.Equal(t, models.TaskStatusGraded, tasks.tasks["t1"].Status)
	assert.Equal(t, models.SubmissionStatusGraded, repo.submissions[submission.ID].Status)
}

func TestGradeOutOfRangeRejected(t *testing.T) {
	svc, _, _, _ := newSubmissionFixture(submissionTestDeadline.Add(-24 * time.Hour))

	submission, err := svc.Submit(context.Background(), "s1", models.SubmissionRequest{TaskID: "t1", Content: "answer"})
	require.NoError(t, err)

	_, err = svc.Grade(context.Background(), submission.ID, "teacher1", models.GradeSubmissionRequest{Grade: 10.5})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestReturnAndResubmitFlow(t *testing.T) {
	start := submissionTestDeadline.Add(-24 * time.Hour)
	svc, repo, tasks, clock := newSubmissionFixture(start)

	submission, err := svc.Submit(context.Background(), "s1", models.SubmissionRequest{TaskID: "t1", Content: "draft"})
	require.NoError(t, err)

	returned, err := svc.ReturnForRevision(context.Background(), submission.ID, "teacher1", models.ReturnSubmissionRequest{Feedback: "please revise"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusReturned, returned.Status)
	assert.Nil(t, returned.Grade, "returning never assigns a grade")
	assert.Equal(t, models.TaskStatusReturned, tasks.tasks["t1"].Status)

	clock.Advance(time.Hour)
	// A resubmission body names no task; the submission already knows it.
	resubmitted, err := svc.Resubmit(context.Background(), submission.ID, "s1", models.ResubmitRequest{Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusSubmitted, resubmitted.Status)
	assert.Equal(t, "final", resubmitted.Content)
	assert.Equal(t, start.Add(time.Hour), resubmitted.SubmittedAt)
	assert.Equal(t, models.TaskStatusSubmitted, tasks.tasks["t1"].Status)
	assert.Equal(t, "final", repo.submissions[submission.ID].Content)
}

func TestResubmitByOtherStudentForbidden(t *testing.T) {
	svc, _, _, _ := newSubmissionFixture(submissionTestDeadline.Add(-24 * time.Hour))

	submission, err := svc.Submit(context.Background(), "s1", models.SubmissionRequest{TaskID: "t1", Content: "draft"})
	require.NoError(t, err)
	_, err = svc.ReturnForRevision(context.Background(), submission.ID, "teacher1", models.ReturnSubmissionRequest{Feedback: "revise"})
	require.NoError(t, err)

	_, err = svc.Resubmit(context.Background(), submission.ID, "s2", models.ResubmitRequest{Content: "hijack"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
}

func TestResubmitWithoutReturnRejected(t *testing.T) {
	svc, _, _, _ := newSubmissionFixture(submissionTestDeadline.Add(-24 * time.Hour))

	submission, err := svc.Submit(context.Background(), "s1", models.SubmissionRequest{TaskID: "t1", Content: "draft"})
	require.NoError(t, err)

	_, err = svc.Resubmit(context.Background(), submission.ID, "s1", models.ResubmitRequest{Content: "again"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
}
