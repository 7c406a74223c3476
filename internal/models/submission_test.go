package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

func TestSubmissionAssignGrade(t *testing.T) {
	now := time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC)
	sub := &TaskSubmission{Status: SubmissionStatusSubmitted}

	require.NoError(t, sub.AssignGrade(8.5, "good work", "teacher-1", now))
	assert.Equal(t, SubmissionStatusGraded, sub.Status)
	require.NotNil(t, sub.Grade)
	assert.Equal(t, 8.5, *sub.Grade)
	require.NotNil(t, sub.GradedAt)
	assert.Equal(t, now, *sub.GradedAt)
	assert.Equal(t, "teacher-1", *sub.GradedBy)
	assert.True(t, sub.IsGraded())
}

func TestSubmissionAssignGradeRejectsOutOfRange(t *testing.T) {
	now := time.Now()
	for _, grade := range []float64{-0.1, 10.1, 11, -5} {
		sub := &TaskSubmission{Status: SubmissionStatusSubmitted}
		err := sub.AssignGrade(grade, "", "teacher-1", now)
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
		assert.Nil(t, sub.Grade)
		assert.Nil(t, sub.GradedAt)
	}

	// Bounds are inclusive.
	sub := &TaskSubmission{Status: SubmissionStatusSubmitted}
	assert.NoError(t, sub.AssignGrade(0, "", "teacher-1", now))
	sub = &TaskSubmission{Status: SubmissionStatusSubmitted}
	assert.NoError(t, sub.AssignGrade(10, "", "teacher-1", now))
}

func TestSubmissionReturnForRevisionSetsNoGrade(t *testing.T) {
	now := time.Now()
	sub := &TaskSubmission{Status: SubmissionStatusSubmitted}

	sub.ReturnForRevision("please redo question 2", "teacher-1", now)
	assert.Equal(t, SubmissionStatusReturned, sub.Status)
	assert.Nil(t, sub.Grade)
	require.NotNil(t, sub.Feedback)
	assert.Equal(t, "please redo question 2", *sub.Feedback)
	assert.True(t, sub.AllowsResubmission())
}

func TestSubmissionResubmitOnlyWhenReturned(t *testing.T) {
	now := time.Now()
	sub := &TaskSubmission{Status: SubmissionStatusReturned, Content: "v1"}

	require.NoError(t, sub.Resubmit("v2", nil, now))
	assert.Equal(t, SubmissionStatusSubmitted, sub.Status)
	assert.Equal(t, "v2", sub.Content)
	assert.Equal(t, now, sub.SubmittedAt)

	for _, from := range []SubmissionStatus{SubmissionStatusSubmitted, SubmissionStatusGraded} {
		sub := &TaskSubmission{Status: from}
		assert.Error(t, sub.Resubmit("v2", nil, now))
	}
}

func TestSubmissionIsLate(t *testing.T) {
	deadline := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	sub := &TaskSubmission{SubmittedAt: deadline.Add(time.Minute)}
	assert.True(t, sub.IsLate(deadline))

	sub = &TaskSubmission{SubmittedAt: deadline.Add(-time.Minute)}
	assert.False(t, sub.IsLate(deadline))
}
