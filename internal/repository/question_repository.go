package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduportal/student-portal-api/internal/models"
)

// QuestionRepository handles persistence of forum questions.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs the repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `q.id, q.title, q.content, q.author_id, q.created_at, q.updated_at`

const questionDetailColumns = questionColumns + `, u.name AS author_name,
    (SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id) AS answer_count`

// FindByID returns a question by its ID.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions q WHERE q.id = $1`, questionColumns)
	var question models.Question
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		return nil, err
	}
	return &question, nil
}

// FindDetailByID returns a question with author name and answer count.
func (r *QuestionRepository) FindDetailByID(ctx context.Context, id string) (*models.QuestionDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions q
        JOIN users u ON u.id = q.author_id
        WHERE q.id = $1`, questionDetailColumns)
	var detail models.QuestionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns all questions, newest first.
func (r *QuestionRepository) List(ctx context.Context) ([]models.QuestionDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions q
        JOIN users u ON u.id = q.author_id
        ORDER BY q.created_at DESC`, questionDetailColumns)
	var questions []models.QuestionDetail
	if err := r.db.SelectContext(ctx, &questions, query); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// Search returns questions whose title or content matches the term.
func (r *QuestionRepository) Search(ctx context.Context, term string) ([]models.QuestionDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions q
        JOIN users u ON u.id = q.author_id
        WHERE q.title ILIKE $1 OR q.content ILIKE $1
        ORDER BY q.created_at DESC`, questionDetailColumns)
	var questions []models.QuestionDetail
	if err := r.db.SelectContext(ctx, &questions, query, "%"+term+"%"); err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	return questions, nil
}

// Create persists a new question.
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	question.CreatedAt = now
	question.UpdatedAt = now
	const query = `INSERT INTO questions (id, title, content, author_id, created_at, updated_at)
        VALUES (:id, :title, :content, :author_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// Update persists the question's editable fields.
func (r *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	question.UpdatedAt = time.Now().UTC()
	const query = `UPDATE questions SET title = :title, content = :content,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

// Delete removes a question and, through the FK cascade, its answers.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM questions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}
