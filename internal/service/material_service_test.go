package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

type mockMaterialRepo struct {
	materials map[string]models.Material
}

func (m *mockMaterialRepo) FindByID(ctx context.Context, id string) (*models.Material, error) {
	if mat, ok := m.materials[id]; ok {
		return &mat, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMaterialRepo) FindDetailByID(ctx context.Context, id string) (*models.MaterialDetail, error) {
	if mat, ok := m.materials[id]; ok {
		return &models.MaterialDetail{Material: mat}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMaterialRepo) List(ctx context.Context) ([]models.MaterialDetail, error) {
	var out []models.MaterialDetail
	for _, mat := range m.materials {
		out = append(out, models.MaterialDetail{Material: mat})
	}
	return out, nil
}

func (m *mockMaterialRepo) ListByCategory(ctx context.Context, category models.MaterialCategory) ([]models.MaterialDetail, error) {
	var out []models.MaterialDetail
	for _, mat := range m.materials {
		if mat.Category == category {
			out = append(out, models.MaterialDetail{Material: mat})
		}
	}
	return out, nil
}

func (m *mockMaterialRepo) ListByUploader(ctx context.Context, uploaderID string) ([]models.MaterialDetail, error) {
	var out []models.MaterialDetail
	for _, mat := range m.materials {
		if mat.UploadedBy == uploaderID {
			out = append(out, models.MaterialDetail{Material: mat})
		}
	}
	return out, nil
}

func (m *mockMaterialRepo) Search(ctx context.Context, term string) ([]models.MaterialDetail, error) {
	return m.List(ctx)
}

func (m *mockMaterialRepo) MostDownloaded(ctx context.Context, limit int) ([]models.MaterialDetail, error) {
	out, _ := m.List(ctx)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockMaterialRepo) Create(ctx context.Context, material *models.Material) error {
	if m.materials == nil {
		m.materials = make(map[string]models.Material)
	}
	if material.ID == "" {
		material.ID = "new-material"
	}
	m.materials[material.ID] = *material
	return nil
}

func (m *mockMaterialRepo) Update(ctx context.Context, material *models.Material) error {
	m.materials[material.ID] = *material
	return nil
}

func (m *mockMaterialRepo) IncrementDownloads(ctx context.Context, id string) error {
	mat := m.materials[id]
	mat.Downloads++
	m.materials[id] = mat
	return nil
}

func (m *mockMaterialRepo) Delete(ctx context.Context, id string) error {
	delete(m.materials, id)
	return nil
}

func newMaterialFixture() (*MaterialService, *mockMaterialRepo) {
	repo := &mockMaterialRepo{}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"c1": {ID: "c1", Name: "Algorithms", Status: models.CourseStatusActive},
	}}
	return NewMaterialService(repo, courses, nil, nil), repo
}

func TestCreateMaterialDerivesCategoryFromURL(t *testing.T) {
	svc, repo := newMaterialFixture()

	material, err := svc.Create(context.Background(), "t1", models.MaterialRequest{
		Name:        "Sorting lecture",
		Description: "Annotated slides from week 3",
		FileURL:     "https://cdn.example.com/algo/sorting.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaterialCategoryPDF, material.Category)
	assert.Equal(t, "t1", material.UploadedBy)
	assert.Contains(t, repo.materials, material.ID)
}

func TestCreateMaterialInvalidCategoryRejected(t *testing.T) {
	svc, _ := newMaterialFixture()

	_, err := svc.Create(context.Background(), "t1", models.MaterialRequest{
		Name:        "Sorting lecture",
		Description: "slides",
		Category:    "EBOOK",
		FileURL:     "https://cdn.example.com/algo/sorting.pdf",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestCreateMaterialUnknownCourseRejected(t *testing.T) {
	svc, _ := newMaterialFixture()

	missing := "missing"
	_, err := svc.Create(context.Background(), "t1", models.MaterialRequest{
		Name:        "Sorting lecture",
		Description: "slides",
		FileURL:     "https://cdn.example.com/algo/sorting.pdf",
		CourseID:    &missing,
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestUpdateMaterialUploaderOrAdmin(t *testing.T) {
	svc, _ := newMaterialFixture()

	material, err := svc.Create(context.Background(), "t1", models.MaterialRequest{
		Name:        "Sorting lecture",
		Description: "slides",
		FileURL:     "https://cdn.example.com/algo/sorting.pdf",
	})
	require.NoError(t, err)

	req := models.MaterialRequest{
		Name:        "Sorting lecture v2",
		Description: "revised slides",
		FileURL:     "https://cdn.example.com/algo/sorting-v2.pdf",
	}

	_, err = svc.Update(context.Background(), material.ID, "t2", models.RoleTeacher, req)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden), "another teacher cannot edit")

	updated, err := svc.Update(context.Background(), material.ID, "admin1", models.RoleAdmin, req)
	require.NoError(t, err)
	assert.Equal(t, "Sorting lecture v2", updated.Name)
}

func TestRegisterDownloadIncrementsCounter(t *testing.T) {
	svc, repo := newMaterialFixture()

	material, err := svc.Create(context.Background(), "t1", models.MaterialRequest{
		Name:        "Sorting lecture",
		Description: "slides",
		FileURL:     "https://cdn.example.com/algo/sorting.pdf",
	})
	require.NoError(t, err)

	detail, err := svc.RegisterDownload(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Downloads)
	assert.Equal(t, int64(1), repo.materials[material.ID].Downloads)

	_, err = svc.RegisterDownload(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), repo.materials[material.ID].Downloads)
}

func TestDeleteMaterialUploaderOrAdmin(t *testing.T) {
	svc, repo := newMaterialFixture()

	material, err := svc.Create(context.Background(), "t1", models.MaterialRequest{
		Name:        "Sorting lecture",
		Description: "slides",
		FileURL:     "https://cdn.example.com/algo/sorting.pdf",
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), material.ID, "t2", models.RoleTeacher)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	require.NoError(t, svc.Delete(context.Background(), material.ID, "t1", models.RoleTeacher))
	assert.NotContains(t, repo.materials, material.ID)
}
