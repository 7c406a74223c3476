package models

import (
	"fmt"
	"time"

	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

// EnrollmentStatus is the enrollment state machine enum.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusSuspended EnrollmentStatus = "SUSPENDED"
)

// Enrollment binds a student to a course. At most one enrollment exists per
// (student, course) pair.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	CourseID       string           `db:"course_id" json:"course_id"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	Grade          *float64         `db:"grade" json:"grade,omitempty"`
	CompletedAt    *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// IsActive reports an ACTIVE enrollment.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}

// Complete transitions ACTIVE -> COMPLETED recording the final grade.
func (e *Enrollment) Complete(finalGrade float64, now time.Time) error {
	if e.Status != EnrollmentStatusActive {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("enrollment cannot be completed in status %s", e.Status))
	}
	e.Grade = &finalGrade
	e.CompletedAt = &now
	e.Status = EnrollmentStatusCompleted
	return nil
}

// Drop transitions ACTIVE -> DROPPED.
func (e *Enrollment) Drop() error {
	if e.Status != EnrollmentStatusActive {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("enrollment cannot be dropped in status %s", e.Status))
	}
	e.Status = EnrollmentStatusDropped
	return nil
}

// Suspend transitions ACTIVE -> SUSPENDED.
func (e *Enrollment) Suspend() error {
	if e.Status != EnrollmentStatusActive {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("enrollment cannot be suspended in status %s", e.Status))
	}
	e.Status = EnrollmentStatusSuspended
	return nil
}

// Reactivate transitions SUSPENDED -> ACTIVE.
func (e *Enrollment) Reactivate() error {
	if e.Status != EnrollmentStatusSuspended {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("enrollment cannot be reactivated in status %s", e.Status))
	}
	e.Status = EnrollmentStatusActive
	return nil
}

// EnrollmentRequest enrolls a student into a course.
type EnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// CompleteEnrollmentRequest finishes an enrollment with a final grade.
type CompleteEnrollmentRequest struct {
	Grade float64 `json:"grade" validate:"gte=0,lte=10"`
}

// EnrollmentDetail joins an enrollment with student and course names.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	CourseName  string `db:"course_name" json:"course_name"`
}
