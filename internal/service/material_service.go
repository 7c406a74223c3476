package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

type materialRepository interface {
	FindByID(ctx context.Context, id string) (*models.Material, error)
	FindDetailByID(ctx context.Context, id string) (*models.MaterialDetail, error)
	List(ctx context.Context) ([]models.MaterialDetail, error)
	ListByCategory(ctx context.Context, category models.MaterialCategory) ([]models.MaterialDetail, error)
	ListByUploader(ctx context.Context, uploaderID string) ([]models.MaterialDetail, error)
	Search(ctx context.Context, term string) ([]models.MaterialDetail, error)
	MostDownloaded(ctx context.Context, limit int) ([]models.MaterialDetail, error)
	Create(ctx context.Context, material *models.Material) error
	Update(ctx context.Context, material *models.Material) error
	IncrementDownloads(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type materialCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

const defaultMostDownloadedLimit = 10

// MaterialService manages study-material metadata. Files live behind
// external URLs; the portal tracks name, category, course linkage and
// download counts only.
type MaterialService struct {
	repo      materialRepository
	courses   materialCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs a MaterialService instance.
func NewMaterialService(repo materialRepository, courses materialCourseRepository, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MaterialService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// Create registers new material metadata. An absent category is derived from
// the file URL extension.
func (s *MaterialService) Create(ctx context.Context, uploaderID string, req models.MaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	category, err := s.resolveCategory(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	material := &models.Material{
		Name:        req.Name,
		Description: req.Description,
		Category:    category,
		FileURL:     req.FileURL,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
		UploadedBy:  uploaderID,
		CourseID:    req.CourseID,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}

	s.logger.Info("material created",
		zap.String("material_id", material.ID),
		zap.String("category", string(material.Category)),
		zap.String("uploaded_by", uploaderID),
	)
	return material, nil
}

// Get returns a material with uploader and course names.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.MaterialDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	return detail, nil
}

// List returns all materials, newest first.
func (s *MaterialService) List(ctx context.Context) ([]models.MaterialDetail, error) {
	materials, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// ListByCategory returns materials of one category.
func (s *MaterialService) ListByCategory(ctx context.Context, raw string) ([]models.MaterialDetail, error) {
	category := models.MaterialCategory(strings.ToUpper(raw))
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid material category %q", raw))
	}
	materials, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials by category")
	}
	return materials, nil
}

// ListByUploader returns materials uploaded by one user.
func (s *MaterialService) ListByUploader(ctx context.Context, uploaderID string) ([]models.MaterialDetail, error) {
	materials, err := s.repo.ListByUploader(ctx, uploaderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list uploader materials")
	}
	return materials, nil
}

// Search returns materials whose name matches the term.
func (s *MaterialService) Search(ctx context.Context, term string) ([]models.MaterialDetail, error) {
	if term == "" {
		return s.List(ctx)
	}
	materials, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search materials")
	}
	return materials, nil
}

// MostDownloaded returns the top materials by download count.
func (s *MaterialService) MostDownloaded(ctx context.Context, limit int) ([]models.MaterialDetail, error) {
	if limit <= 0 {
		limit = defaultMostDownloadedLimit
	}
	materials, err := s.repo.MostDownloaded(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list most downloaded materials")
	}
	return materials, nil
}

// Update edits material metadata. The uploader or an admin may edit.
func (s *MaterialService) Update(ctx context.Context, id, actorID string, actorRole models.UserRole, req models.MaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	material, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if material.UploadedBy != actorID && !actorRole.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no permission to edit this material")
	}

	category, err := s.resolveCategory(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	material.Name = req.Name
	material.Description = req.Description
	material.Category = category
	material.FileURL = req.FileURL
	material.FileSize = req.FileSize
	material.ContentType = req.ContentType
	material.CourseID = req.CourseID
	if err := s.repo.Update(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material")
	}
	return material, nil
}

// Delete removes material metadata. The uploader or an admin may delete.
func (s *MaterialService) Delete(ctx context.Context, id, actorID string, actorRole models.UserRole) error {
	material, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if material.UploadedBy != actorID && !actorRole.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "no permission to delete this material")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	s.logger.Info("material deleted", zap.String("material_id", id))
	return nil
}

// RegisterDownload counts a download and returns the material so the caller
// can follow its file URL.
func (s *MaterialService) RegisterDownload(ctx context.Context, id string) (*models.MaterialDetail, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementDownloads(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record download")
	}
	detail.Downloads++
	return detail, nil
}

func (s *MaterialService) resolveCategory(req models.MaterialRequest) (models.MaterialCategory, error) {
	if req.Category == "" {
		return models.CategoryFromFilename(req.FileURL), nil
	}
	category := models.MaterialCategory(strings.ToUpper(req.Category))
	if !category.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid material category %q", req.Category))
	}
	return category, nil
}

func (s *MaterialService) checkCourse(ctx context.Context, courseID *string) error {
	if courseID == nil {
		return nil
	}
	if _, err := s.courses.FindByID(ctx, *courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return nil
}

func (s *MaterialService) load(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	return material, nil
}
