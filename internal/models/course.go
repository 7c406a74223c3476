package models

import "time"

// CourseStatus is the course lifecycle enum.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusScheduled CourseStatus = "SCHEDULED"
	CourseStatusActive    CourseStatus = "ACTIVE"
	CourseStatusPaused    CourseStatus = "PAUSED"
	CourseStatusCompleted CourseStatus = "COMPLETED"
	CourseStatusCancelled CourseStatus = "CANCELLED"
)

// IsEnrollable reports whether new enrollments are accepted.
func (s CourseStatus) IsEnrollable() bool {
	return s == CourseStatusScheduled || s == CourseStatusActive
}

// IsFinished reports a terminal course state.
func (s CourseStatus) IsFinished() bool {
	return s == CourseStatusCompleted || s == CourseStatusCancelled
}

// Course is a unit of teaching with an optional date range. Nil bounds are
// treated as unbounded on that side.
type Course struct {
	ID          string       `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Description string       `db:"description" json:"description"`
	StartDate   *time.Time   `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time   `db:"end_date" json:"end_date,omitempty"`
	Status      CourseStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// IsEnrollable reports whether the course accepts new enrollments.
func (c *Course) IsEnrollable() bool {
	return c.Status.IsEnrollable()
}

// IsCurrentlyActive is derived, not stored: ACTIVE and today within the
// course date range.
func (c *Course) IsCurrentlyActive(today time.Time) bool {
	if c.Status != CourseStatusActive {
		return false
	}
	started := c.StartDate == nil || !today.Before(*c.StartDate)
	notEnded := c.EndDate == nil || !today.After(*c.EndDate)
	return started && notEnded
}

// Activate sets the course ACTIVE. Admin authorization is enforced at the
// call site.
func (c *Course) Activate() {
	c.Status = CourseStatusActive
}

// Complete sets the course COMPLETED.
func (c *Course) Complete() {
	c.Status = CourseStatusCompleted
}

// Cancel sets the course CANCELLED.
func (c *Course) Cancel() {
	c.Status = CourseStatusCancelled
}

// CourseRequest creates or updates a course.
type CourseRequest struct {
	Name        string     `json:"name" validate:"required,min=2"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}
