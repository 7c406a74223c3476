package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduportal/student-portal-api/internal/models"
)

// AnswerRepository handles persistence of forum answers.
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository constructs the repository.
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

const answerColumns = `a.id, a.question_id, a.author_id, a.content, a.accepted, a.created_at, a.updated_at`

// FindByID returns an answer by its ID.
func (r *AnswerRepository) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	query := fmt.Sprintf(`SELECT %s FROM answers a WHERE a.id = $1`, answerColumns)
	var answer models.Answer
	if err := r.db.GetContext(ctx, &answer, query, id); err != nil {
		return nil, err
	}
	return &answer, nil
}

// ListByQuestion returns a question's answers, accepted ones first.
func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID string) ([]models.AnswerDetail, error) {
	query := fmt.Sprintf(`SELECT %s, u.name AS author_name FROM answers a
        JOIN users u ON u.id = a.author_id
        WHERE a.question_id = $1
        ORDER BY a.accepted DESC, a.created_at ASC`, answerColumns)
	var answers []models.AnswerDetail
	if err := r.db.SelectContext(ctx, &answers, query, questionID); err != nil {
		return nil, fmt.Errorf("list question answers: %w", err)
	}
	return answers, nil
}

// ListByAuthor returns all answers written by a user.
func (r *AnswerRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.AnswerDetail, error) {
	query := fmt.Sprintf(`SELECT %s, u.name AS author_name FROM answers a
        JOIN users u ON u.id = a.author_id
        WHERE a.author_id = $1 ORDER BY a.created_at DESC`, answerColumns)
	var answers []models.AnswerDetail
	if err := r.db.SelectContext(ctx, &answers, query, authorID); err != nil {
		return nil, fmt.Errorf("list author answers: %w", err)
	}
	return answers, nil
}

// Create persists a new answer.
func (r *AnswerRepository) Create(ctx context.Context, answer *models.Answer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	answer.CreatedAt = now
	answer.UpdatedAt = now
	const query = `INSERT INTO answers (id, question_id, author_id, content, accepted, created_at, updated_at)
        VALUES (:id, :question_id, :author_id, :content, :accepted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	return nil
}

// Update persists the answer's editable fields and acceptance flag.
func (r *AnswerRepository) Update(ctx context.Context, answer *models.Answer) error {
	answer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE answers SET content = :content, accepted = :accepted,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	return nil
}

// Delete removes an answer.
func (r *AnswerRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM answers WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	return nil
}
