package models

import (
	"fmt"
	"time"

	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

// SubmissionStatus is the task submission state machine enum.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionStatusGraded    SubmissionStatus = "GRADED"
	SubmissionStatusReturned  SubmissionStatus = "RETURNED"
)

// AllowsResubmission reports whether the student may resubmit.
func (s SubmissionStatus) AllowsResubmission() bool {
	return s == SubmissionStatusReturned
}

// Grade bounds for submissions, inclusive.
const (
	MinGrade = 0.0
	MaxGrade = 10.0
)

// TaskSubmission is a student's answer to a task. At most one submission
// exists per (task, student) pair.
type TaskSubmission struct {
	ID          string           `db:"id" json:"id"`
	TaskID      string           `db:"task_id" json:"task_id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	Content     string           `db:"content" json:"content"`
	FileURL     *string          `db:"file_url" json:"file_url,omitempty"`
	SubmittedAt time.Time        `db:"submitted_at" json:"submitted_at"`
	Grade       *float64         `db:"grade" json:"grade,omitempty"`
	Feedback    *string          `db:"feedback" json:"feedback,omitempty"`
	GradedBy    *string          `db:"graded_by" json:"graded_by,omitempty"`
	GradedAt    *time.Time       `db:"graded_at" json:"graded_at,omitempty"`
	Status      SubmissionStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// IsGraded reports a graded submission carrying a grade.
func (s *TaskSubmission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded && s.Grade != nil
}

// AllowsResubmission reports whether the submission may be resubmitted.
func (s *TaskSubmission) AllowsResubmission() bool {
	return s.Status.AllowsResubmission()
}

// IsLate compares the submission instant against the task deadline. Purely
// derived; never stored.
func (s *TaskSubmission) IsLate(deadline time.Time) bool {
	return s.SubmittedAt.After(deadline)
}

// AssignGrade sets grade, feedback and grader together and moves the
// submission to GRADED. Grade and graded-at are only ever set as a pair.
func (s *TaskSubmission) AssignGrade(grade float64, feedback, graderID string, now time.Time) error {
	if grade < MinGrade || grade > MaxGrade {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("grade must be between %.0f and %.0f", MinGrade, MaxGrade))
	}
	s.Grade = &grade
	s.Feedback = &feedback
	s.GradedBy = &graderID
	s.GradedAt = &now
	s.Status = SubmissionStatusGraded
	return nil
}

// ReturnForRevision hands the submission back with feedback, without a grade.
func (s *TaskSubmission) ReturnForRevision(feedback, graderID string, now time.Time) {
	s.Feedback = &feedback
	s.GradedBy = &graderID
	s.GradedAt = &now
	s.Status = SubmissionStatusReturned
}

// Resubmit resets content and submission instant for a RETURNED submission.
func (s *TaskSubmission) Resubmit(content string, fileURL *string, now time.Time) error {
	if !s.AllowsResubmission() {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("submission cannot be resubmitted in status %s", s.Status))
	}
	s.Content = content
	s.FileURL = fileURL
	s.SubmittedAt = now
	s.Status = SubmissionStatusSubmitted
	return nil
}

// SubmissionRequest creates or resubmits an answer to a task.
type SubmissionRequest struct {
	TaskID  string  `json:"task_id" validate:"required"`
	Content string  `json:"content" validate:"required"`
	FileURL *string `json:"file_url,omitempty"`
}

// ResubmitRequest replaces the content of a returned submission. The task is
// implied by the submission being resubmitted.
type ResubmitRequest struct {
	Content string  `json:"content" validate:"required"`
	FileURL *string `json:"file_url,omitempty"`
}

// GradeSubmissionRequest grades an existing submission.
type GradeSubmissionRequest struct {
	Grade    float64 `json:"grade" validate:"gte=0,lte=10"`
	Feedback string  `json:"feedback"`
}

// ReturnSubmissionRequest returns a submission for revision.
type ReturnSubmissionRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

// SubmissionDetail joins a submission with task context for responses.
type SubmissionDetail struct {
	TaskSubmission
	TaskTitle    string    `db:"task_title" json:"task_title"`
	TaskDeadline time.Time `db:"task_deadline" json:"task_deadline"`
	StudentName  string    `db:"student_name" json:"student_name"`
	Late         bool      `db:"-" json:"late"`
}
