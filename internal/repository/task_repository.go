package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduportal/student-portal-api/internal/models"
)

// TaskRepository handles persistence of tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, course_id, title, description, deadline, status, created_by, created_at, updated_at`

// FindByID returns a task by its ID.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByCourse returns a course's tasks ordered by deadline.
func (r *TaskRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE course_id = $1 ORDER BY deadline ASC`, taskColumns)
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, courseID); err != nil {
		return nil, fmt.Errorf("list course tasks: %w", err)
	}
	return tasks, nil
}

// List returns all tasks ordered by deadline.
func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks ORDER BY deadline ASC`, taskColumns)
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Create persists a new task record.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	const query = `INSERT INTO tasks (id, course_id, title, description, deadline, status, created_by, created_at, updated_at)
        VALUES (:id, :course_id, :title, :description, :deadline, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update persists the task's mutable fields including status.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks SET title = :title, description = :description, deadline = :deadline,
        status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes a task record.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
