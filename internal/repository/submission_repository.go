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

// SubmissionRepository handles persistence of task submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `s.id, s.task_id, s.student_id, s.content, s.file_url, s.submitted_at, s.status, s.grade, s.feedback, s.graded_by, s.graded_at, s.created_at, s.updated_at`

// FindByID returns a submission by its ID.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.TaskSubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_submissions s WHERE s.id = $1`, submissionColumns)
	var submission models.TaskSubmission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindDetailByID returns a submission joined with its task and student.
func (r *SubmissionRepository) FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	query := fmt.Sprintf(`SELECT %s, t.title AS task_title, t.deadline AS task_deadline, u.name AS student_name
        FROM task_submissions s
        JOIN tasks t ON t.id = s.task_id
        JOIN users u ON u.id = s.student_id
        WHERE s.id = $1`, submissionColumns)
	var detail models.SubmissionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByTaskAndStudent reports whether the student already submitted the task.
func (r *SubmissionRepository) ExistsByTaskAndStudent(ctx context.Context, taskID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM task_submissions WHERE task_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, taskID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check submission: %w", err)
	}
	return true, nil
}

// ListByTask returns every submission for a task with student names.
func (r *SubmissionRepository) ListByTask(ctx context.Context, taskID string) ([]models.SubmissionDetail, error) {
	query := fmt.Sprintf(`SELECT %s, t.title AS task_title, t.deadline AS task_deadline, u.name AS student_name
        FROM task_submissions s
        JOIN tasks t ON t.id = s.task_id
        JOIN users u ON u.id = s.student_id
        WHERE s.task_id = $1 ORDER BY s.submitted_at ASC`, submissionColumns)
	var submissions []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &submissions, query, taskID); err != nil {
		return nil, fmt.Errorf("list task submissions: %w", err)
	}
	return submissions, nil
}

// ListByStudent returns a student's submissions with task context.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SubmissionDetail, error) {
	query := fmt.Sprintf(`SELECT %s, t.title AS task_title, t.deadline AS task_deadline, u.name AS student_name
        FROM task_submissions s
        JOIN tasks t ON t.id = s.task_id
        JOIN users u ON u.id = s.student_id
        WHERE s.student_id = $1 ORDER BY s.submitted_at DESC`, submissionColumns)
	var submissions []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &submissions, query, studentID); err != nil {
		return nil, fmt.Errorf("list student submissions: %w", err)
	}
	return submissions, nil
}

// Create persists a new submission record.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.TaskSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now
	const query = `INSERT INTO task_submissions (id, task_id, student_id, content, file_url, submitted_at, status, grade, feedback, graded_by, graded_at, created_at, updated_at)
        VALUES (:id, :task_id, :student_id, :content, :file_url, :submitted_at, :status, :grade, :feedback, :graded_by, :graded_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// Update persists the submission's grading and resubmission fields.
func (r *SubmissionRepository) Update(ctx context.Context, submission *models.TaskSubmission) error {
	submission.UpdatedAt = time.Now().UTC()
	const query = `UPDATE task_submissions SET content = :content, file_url = :file_url,
        submitted_at = :submitted_at, status = :status, grade = :grade, feedback = :feedback,
        graded_by = :graded_by, graded_at = :graded_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	return nil
}
