package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

type paymentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error)
	List(ctx context.Context) ([]models.PaymentDetail, error)
	ListByStudent(ctx context.Context, studentID string, statuses ...models.PaymentStatus) ([]models.PaymentDetail, error)
	ExistsByStudentAndStatus(ctx context.Context, studentID string, statuses ...models.PaymentStatus) (bool, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}

type paymentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PaymentService manages tuition charges and their state machine.
type PaymentService struct {
	repo      paymentRepository
	users     paymentUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	clock     clockwork.Clock
}

// NewPaymentService constructs a PaymentService instance.
func NewPaymentService(repo paymentRepository, users paymentUserRepository, validate *validator.Validate, logger *zap.Logger, clock clockwork.Clock) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PaymentService{repo: repo, users: users, validator: validate, logger: logger, clock: clock}
}

// Create registers a new charge against a student.
func (s *PaymentService) Create(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Role.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payments can only be charged to students")
	}

	payment := &models.Payment{
		StudentID: req.StudentID,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
		Method:    req.Method,
		Status:    models.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}

	s.logger.Info("payment created",
		zap.String("payment_id", payment.ID),
		zap.String("student_id", payment.StudentID),
		zap.Float64("amount", payment.Amount),
	)
	return payment, nil
}

// Get returns a payment with its owning student and the live overdue flag.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.PaymentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	detail.Overdue = detail.IsOverdue(s.clock.Now().UTC())
	return detail, nil
}

// List returns all payments.
func (s *PaymentService) List(ctx context.Context) ([]models.PaymentDetail, error) {
	payments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	s.stampOverdue(payments)
	return payments, nil
}

// ListByStudent returns a student's payments, optionally filtered by status.
func (s *PaymentService) ListByStudent(ctx context.Context, studentID string, statuses ...models.PaymentStatus) ([]models.PaymentDetail, error) {
	payments, err := s.repo.ListByStudent(ctx, studentID, statuses...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student payments")
	}
	s.stampOverdue(payments)
	return payments, nil
}

// HasPendingPayments reports whether the student still owes anything.
func (s *PaymentService) HasPendingPayments(ctx context.Context, studentID string) (bool, error) {
	pending, err := s.repo.ExistsByStudentAndStatus(ctx, studentID, models.PaymentStatusPending, models.PaymentStatusOverdue)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending payments")
	}
	return pending, nil
}

// MarkPaid settles a payment. Only PENDING and OVERDUE payments accept it.
func (s *PaymentService) MarkPaid(ctx context.Context, id string, method *models.PaymentMethod) (*models.Payment, error) {
	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := payment.MarkPaid(s.clock.Now().UTC()); err != nil {
		return nil, err
	}
	if method != nil {
		payment.Method = method
	}

	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}

	s.logger.Info("payment settled", zap.String("payment_id", payment.ID))
	return payment, nil
}

// Cancel voids a payment. Only PENDING and OVERDUE payments accept it.
func (s *PaymentService) Cancel(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := payment.Cancel(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}

	s.logger.Info("payment cancelled", zap.String("payment_id", payment.ID))
	return payment, nil
}

// Refund reverses a settled payment.
func (s *PaymentService) Refund(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := payment.Refund(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}

	s.logger.Info("payment refunded", zap.String("payment_id", payment.ID))
	return payment, nil
}

// Delete removes a payment. Settled, cancelled and refunded payments are
// immutable history and cannot be deleted.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	payment, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if !payment.AllowsModification() {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "payment can no longer be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}

	s.logger.Info("payment deleted", zap.String("payment_id", id))
	return nil
}

// SweepOverdue flips every pending payment past its due date to OVERDUE in one
// set-based update and returns the number of rows changed. Safe to run
// repeatedly; a second run on the same day matches nothing.
func (s *PaymentService) SweepOverdue(ctx context.Context) (int64, error) {
	today := s.clock.Now().UTC()
	affected, err := s.repo.MarkOverdue(ctx, today)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep overdue payments")
	}

	s.logger.Info("overdue sweep completed",
		zap.Time("as_of", today),
		zap.Int64("payments_marked", affected),
	)
	return affected, nil
}

func (s *PaymentService) load(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

func (s *PaymentService) stampOverdue(payments []models.PaymentDetail) {
	today := s.clock.Now().UTC()
	for i := range payments {
		payments[i].Overdue = payments[i].IsOverdue(today)
	}
}
