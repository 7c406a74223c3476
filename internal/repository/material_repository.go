package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduportal/student-portal-api/internal/models"
)

// MaterialRepository handles persistence of study-material metadata.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs the repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

const materialColumns = `m.id, m.name, m.description, m.category, m.file_url, m.file_size,
    m.content_type, m.uploaded_by, m.course_id, m.downloads, m.created_at, m.updated_at`

const materialDetailQuery = `SELECT ` + materialColumns + `, u.name AS uploader_name, c.name AS course_name
    FROM materials m
    JOIN users u ON u.id = m.uploaded_by
    LEFT JOIN courses c ON c.id = m.course_id`

// FindByID returns a material by its ID.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	query := fmt.Sprintf(`SELECT %s FROM materials m WHERE m.id = $1`, materialColumns)
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// FindDetailByID returns a material with uploader and course names.
func (r *MaterialRepository) FindDetailByID(ctx context.Context, id string) (*models.MaterialDetail, error) {
	query := materialDetailQuery + ` WHERE m.id = $1`
	var detail models.MaterialDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns all materials, newest first.
func (r *MaterialRepository) List(ctx context.Context) ([]models.MaterialDetail, error) {
	query := materialDetailQuery + ` ORDER BY m.created_at DESC`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

// ListByCategory returns materials of one category, newest first.
func (r *MaterialRepository) ListByCategory(ctx context.Context, category models.MaterialCategory) ([]models.MaterialDetail, error) {
	query := materialDetailQuery + ` WHERE m.category = $1 ORDER BY m.created_at DESC`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query, category); err != nil {
		return nil, fmt.Errorf("list materials by category: %w", err)
	}
	return materials, nil
}

// ListByUploader returns materials uploaded by one user.
func (r *MaterialRepository) ListByUploader(ctx context.Context, uploaderID string) ([]models.MaterialDetail, error) {
	query := materialDetailQuery + ` WHERE m.uploaded_by = $1 ORDER BY m.created_at DESC`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query, uploaderID); err != nil {
		return nil, fmt.Errorf("list materials by uploader: %w", err)
	}
	return materials, nil
}

// Search returns materials whose name matches the term.
func (r *MaterialRepository) Search(ctx context.Context, term string) ([]models.MaterialDetail, error) {
	query := materialDetailQuery + ` WHERE m.name ILIKE $1 ORDER BY m.created_at DESC`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query, "%"+term+"%"); err != nil {
		return nil, fmt.Errorf("search materials: %w", err)
	}
	return materials, nil
}

// MostDownloaded returns the top materials by download count.
func (r *MaterialRepository) MostDownloaded(ctx context.Context, limit int) ([]models.MaterialDetail, error) {
	query := materialDetailQuery + ` ORDER BY m.downloads DESC, m.created_at DESC LIMIT $1`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query, limit); err != nil {
		return nil, fmt.Errorf("list most downloaded materials: %w", err)
	}
	return materials, nil
}

// Create persists new material metadata.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.Category == "" {
		material.Category = models.MaterialCategoryOther
	}
	now := time.Now().UTC()
	material.CreatedAt = now
	material.UpdatedAt = now
	const query = `INSERT INTO materials (id, name, description, category, file_url, file_size,
        content_type, uploaded_by, course_id, downloads, created_at, updated_at)
        VALUES (:id, :name, :description, :category, :file_url, :file_size,
        :content_type, :uploaded_by, :course_id, :downloads, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// Update persists the material's editable metadata.
func (r *MaterialRepository) Update(ctx context.Context, material *models.Material) error {
	material.UpdatedAt = time.Now().UTC()
	const query = `UPDATE materials SET name = :name, description = :description,
        category = :category, file_url = :file_url, file_size = :file_size,
        content_type = :content_type, course_id = :course_id, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the download counter in place.
func (r *MaterialRepository) IncrementDownloads(ctx context.Context, id string) error {
	const query = `UPDATE materials SET downloads = downloads + 1, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("increment material downloads: %w", err)
	}
	return nil
}

// Delete removes material metadata.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM materials WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}
