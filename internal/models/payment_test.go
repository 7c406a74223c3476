package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

var today = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestPaymentMarkPaidFromPendingAndOverdue(t *testing.T) {
	for _, from := range []PaymentStatus{PaymentStatusPending, PaymentStatusOverdue} {
		p := &Payment{Status: from, DueDate: today.AddDate(0, 0, -1)}
		require.NoError(t, p.MarkPaid(today))
		assert.Equal(t, PaymentStatusPaid, p.Status)
		require.NotNil(t, p.PaymentDate)
		assert.Equal(t, today, *p.PaymentDate)
	}
}

func TestPaymentMarkPaidRejectedFromTerminalStates(t *testing.T) {
	for _, from := range []PaymentStatus{PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusRefunded} {
		p := &Payment{Status: from}
		err := p.MarkPaid(today)
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
		assert.Equal(t, from, p.Status, "status must not change on rejected transition")
		assert.Nil(t, p.PaymentDate)
	}
}

func TestPaymentCancel(t *testing.T) {
	for _, from := range []PaymentStatus{PaymentStatusPending, PaymentStatusOverdue} {
		p := &Payment{Status: from}
		require.NoError(t, p.Cancel())
		assert.Equal(t, PaymentStatusCancelled, p.Status)
	}
	for _, from := range []PaymentStatus{PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusRefunded} {
		p := &Payment{Status: from}
		assert.Error(t, p.Cancel())
	}
}

func TestPaymentRefundOnlyFromPaid(t *testing.T) {
	p := &Payment{Status: PaymentStatusPaid}
	require.NoError(t, p.Refund())
	assert.Equal(t, PaymentStatusRefunded, p.Status)

	for _, from := range []PaymentStatus{PaymentStatusPending, PaymentStatusOverdue, PaymentStatusCancelled, PaymentStatusRefunded} {
		p := &Payment{Status: from}
		assert.Error(t, p.Refund())
	}
}

func TestPaymentIsOverdueLivePredicate(t *testing.T) {
	p := &Payment{Status: PaymentStatusPending, DueDate: today.AddDate(0, 0, -1)}
	assert.True(t, p.IsOverdue(today))

	// Not yet due.
	p = &Payment{Status: PaymentStatusPending, DueDate: today.AddDate(0, 0, 1)}
	assert.False(t, p.IsOverdue(today))

	// Only PENDING payments count as overdue.
	p = &Payment{Status: PaymentStatusPaid, DueDate: today.AddDate(0, 0, -1)}
	assert.False(t, p.IsOverdue(today))
}

func TestPaymentMarkOverdue(t *testing.T) {
	p := &Payment{Status: PaymentStatusPending, DueDate: today.AddDate(0, 0, -1)}
	require.NoError(t, p.MarkOverdue(today))
	assert.Equal(t, PaymentStatusOverdue, p.Status)

	// A paid-in-time payment never becomes overdue.
	p = &Payment{Status: PaymentStatusPending, DueDate: today.AddDate(0, 0, 2)}
	assert.Error(t, p.MarkOverdue(today))
}

func TestPaymentOverdueStillAllowsMarkPaid(t *testing.T) {
	p := &Payment{Status: PaymentStatusPending, DueDate: today.AddDate(0, 0, -3)}
	require.NoError(t, p.MarkOverdue(today))
	require.NoError(t, p.MarkPaid(today))
	assert.Equal(t, PaymentStatusPaid, p.Status)
}
