package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduportal/student-portal-api/internal/models"
)

// PaymentRepository handles persistence of payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `p.id, p.student_id, p.amount, p.due_date, p.payment_date, p.payment_method, p.status, p.created_at, p.updated_at`

// FindByID returns a payment by its ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments p WHERE p.id = $1`, paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindDetailByID returns a payment joined with the owning student.
func (r *PaymentRepository) FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, u.name AS student_name
        FROM payments p JOIN users u ON u.id = p.student_id WHERE p.id = $1`, paymentColumns)
	var detail models.PaymentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns all payments with their owning students.
func (r *PaymentRepository) List(ctx context.Context) ([]models.PaymentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, u.name AS student_name
        FROM payments p JOIN users u ON u.id = p.student_id ORDER BY p.due_date ASC`, paymentColumns)
	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ListByStudent returns a student's payments, optionally filtered by status.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID string, statuses ...models.PaymentStatus) ([]models.PaymentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, u.name AS student_name
        FROM payments p JOIN users u ON u.id = p.student_id WHERE p.student_id = $1`, paymentColumns)
	args := []interface{}{studentID}
	if len(statuses) > 0 {
		in := ""
		for i, s := range statuses {
			if i > 0 {
				in += ", "
			}
			in += fmt.Sprintf("$%d", len(args)+1)
			args = append(args, s)
		}
		query += fmt.Sprintf(" AND p.status IN (%s)", in)
	}
	query += " ORDER BY p.due_date ASC"

	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list student payments: %w", err)
	}
	return payments, nil
}

// ExistsByStudentAndStatus reports whether the student has any payment in one
// of the given statuses.
func (r *PaymentRepository) ExistsByStudentAndStatus(ctx context.Context, studentID string, statuses ...models.PaymentStatus) (bool, error) {
	query := `SELECT 1 FROM payments WHERE student_id = $1`
	args := []interface{}{studentID}
	if len(statuses) > 0 {
		in := ""
		for i, s := range statuses {
			if i > 0 {
				in += ", "
			}
			in += fmt.Sprintf("$%d", len(args)+1)
			args = append(args, s)
		}
		query += fmt.Sprintf(" AND status IN (%s)", in)
	}
	query += " LIMIT 1"

	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student payments: %w", err)
	}
	return true, nil
}

// Create persists a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	const query = `INSERT INTO payments (id, student_id, amount, due_date, payment_date, payment_method, status, created_at, updated_at)
        VALUES (:id, :student_id, :amount, :due_date, :payment_date, :payment_method, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Update persists the payment's state machine fields.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payments SET status = :status, payment_date = :payment_date,
        payment_method = :payment_method, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

// Delete removes a payment record.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// MarkOverdue flips every pending payment past its due date to OVERDUE in a
// single set-based update. Running it twice in a row matches zero rows the
// second time.
func (r *PaymentRepository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	const query = `UPDATE payments SET status = $1, updated_at = $2 WHERE status = $3 AND due_date < $4`
	res, err := r.db.ExecContext(ctx, query, models.PaymentStatusOverdue, time.Now().UTC(), models.PaymentStatusPending, today)
	if err != nil {
		return 0, fmt.Errorf("mark overdue payments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count swept payments: %w", err)
	}
	return affected, nil
}
