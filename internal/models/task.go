package models

import (
	"fmt"
	"time"

	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

// TaskStatus is the task state machine enum.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusSubmitted TaskStatus = "SUBMITTED"
	TaskStatusLate      TaskStatus = "LATE"
	TaskStatusGraded    TaskStatus = "GRADED"
	TaskStatusReturned  TaskStatus = "RETURNED"
)

// AllowsSubmission reports whether a submission may be received.
func (s TaskStatus) AllowsSubmission() bool {
	return s == TaskStatusPending || s == TaskStatusReturned
}

// Task is an assignment belonging to a course.
type Task struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Deadline    time.Time  `db:"deadline" json:"deadline"`
	Status      TaskStatus `db:"status" json:"status"`
	CourseID    string     `db:"course_id" json:"course_id"`
	CreatedBy   *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// AllowsSubmission reports whether the task accepts a submission.
func (t *Task) AllowsSubmission() bool {
	return t.Status.AllowsSubmission()
}

// IsOverdue reports a still-pending task past its deadline.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status == TaskStatusPending && now.After(t.Deadline)
}

// Submit records a submission at the given instant. Deadline crossing is
// evaluated at the moment of submission, never retroactively.
func (t *Task) Submit(now time.Time) error {
	if !t.AllowsSubmission() {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("task does not accept submissions in status %s", t.Status))
	}
	if now.After(t.Deadline) {
		t.Status = TaskStatusLate
	} else {
		t.Status = TaskStatusSubmitted
	}
	return nil
}

// Grade transitions SUBMITTED|LATE -> GRADED.
func (t *Task) Grade() error {
	if t.Status != TaskStatusSubmitted && t.Status != TaskStatusLate {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("task cannot be graded in status %s", t.Status))
	}
	t.Status = TaskStatusGraded
	return nil
}

// ReturnForRevision transitions SUBMITTED|LATE|GRADED -> RETURNED.
func (t *Task) ReturnForRevision() error {
	switch t.Status {
	case TaskStatusSubmitted, TaskStatusLate, TaskStatusGraded:
		t.Status = TaskStatusReturned
		return nil
	default:
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("task cannot be returned in status %s", t.Status))
	}
}

// TaskRequest creates or updates a task within a course.
type TaskRequest struct {
	Title       string    `json:"title" validate:"required,min=2"`
	Description string    `json:"description" validate:"required"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	CourseID    string    `json:"course_id" validate:"required"`
}
