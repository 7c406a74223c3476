package models

import (
	"fmt"
	"time"

	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

// PaymentStatus is the payment state machine enum.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusOverdue   PaymentStatus = "OVERDUE"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// AllowsModification reports whether markPaid/cancel are legal from this state.
func (s PaymentStatus) AllowsModification() bool {
	return s == PaymentStatusPending || s == PaymentStatusOverdue
}

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	PaymentMethodPix          PaymentMethod = "PIX"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodBankSlip     PaymentMethod = "BANK_SLIP"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// Payment is a tuition charge owned by a student.
type Payment struct {
	ID          string         `db:"id" json:"id"`
	StudentID   string         `db:"student_id" json:"student_id"`
	Amount      float64        `db:"amount" json:"amount"`
	DueDate     time.Time      `db:"due_date" json:"due_date"`
	PaymentDate *time.Time     `db:"payment_date" json:"payment_date,omitempty"`
	Method      *PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	Status      PaymentStatus  `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AllowsModification reports whether the payment accepts markPaid/cancel.
func (p *Payment) AllowsModification() bool {
	return p.Status.AllowsModification()
}

// IsOverdue is the live read predicate: a PENDING payment past its due date
// counts as overdue even before the sweep has materialised the OVERDUE state.
func (p *Payment) IsOverdue(today time.Time) bool {
	return p.Status == PaymentStatusPending && today.After(p.DueDate)
}

// MarkPaid transitions PENDING|OVERDUE -> PAID and stamps the payment date.
func (p *Payment) MarkPaid(today time.Time) error {
	if !p.AllowsModification() {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("payment cannot be marked paid in status %s", p.Status))
	}
	p.Status = PaymentStatusPaid
	p.PaymentDate = &today
	return nil
}

// Cancel transitions PENDING|OVERDUE -> CANCELLED.
func (p *Payment) Cancel() error {
	if !p.AllowsModification() {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("payment cannot be cancelled in status %s", p.Status))
	}
	p.Status = PaymentStatusCancelled
	return nil
}

// Refund transitions PAID -> REFUNDED.
func (p *Payment) Refund() error {
	if p.Status != PaymentStatusPaid {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("payment cannot be refunded in status %s", p.Status))
	}
	p.Status = PaymentStatusRefunded
	return nil
}

// MarkOverdue applies the sweep transition PENDING -> OVERDUE for a payment
// whose due date has passed. The batch sweep performs the equivalent change
// as a single set-based update; this method backs per-entity use and tests.
func (p *Payment) MarkOverdue(today time.Time) error {
	if !p.IsOverdue(today) {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("payment in status %s is not overdue", p.Status))
	}
	p.Status = PaymentStatusOverdue
	return nil
}

// PaymentRequest creates a new charge for a student.
type PaymentRequest struct {
	StudentID string         `json:"student_id" validate:"required"`
	Amount    float64        `json:"amount" validate:"required,gt=0"`
	DueDate   time.Time      `json:"due_date" validate:"required"`
	Method    *PaymentMethod `json:"payment_method,omitempty"`
}

// PaymentDetail augments a payment with student info and the live overdue
// predicate for API responses.
type PaymentDetail struct {
	Payment
	StudentName string `db:"student_name" json:"student_name"`
	Overdue     bool   `db:"-" json:"overdue"`
}
