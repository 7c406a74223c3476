package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[string]models.Course
	lists   int
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context) ([]models.Course, error) {
	m.lists++
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	if course.ID == "" {
		course.ID = "new-course"
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

// memoryCache is a map-backed stand-in for the Redis cache repository.
type memoryCache struct {
	entries map[string][]byte
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func newCourseFixture() (*CourseService, *mockCourseRepo, *memoryCache) {
	repo := &mockCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Name: "Algorithms", Status: models.CourseStatusActive},
	}}
	cache := &memoryCache{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	svc := NewCourseService(repo, cache, nil, nil, nil, clock, time.Minute)
	return svc, repo, cache
}

func TestCourseListServedFromCache(t *testing.T) {
	svc, repo, _ := newCourseFixture()

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	_, err = svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.lists, "second read hits the cache")
}

func TestCourseWriteInvalidatesCache(t *testing.T) {
	svc, repo, cache := newCourseFixture()

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cache.entries)

	_, err = svc.Create(context.Background(), models.CourseRequest{Name: "Databases"})
	require.NoError(t, err)
	assert.Empty(t, cache.entries, "writes flush the catalog keyspace")

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lists)
}

func TestCourseSetStatusGuardsFinishedLifecycle(t *testing.T) {
	svc, _, _ := newCourseFixture()

	course, err := svc.SetStatus(context.Background(), "c1", models.CourseStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusCompleted, course.Status)

	_, err = svc.SetStatus(context.Background(), "c1", models.CourseStatusActive)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
}

func TestCourseDateBoundsValidated(t *testing.T) {
	svc, _, _ := newCourseFixture()

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, -1, 0)
	_, err := svc.Create(context.Background(), models.CourseRequest{Name: "Backwards", StartDate: &start, EndDate: &end})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestIsCurrentlyActiveUsesClock(t *testing.T) {
	svc, repo, _ := newCourseFixture()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	repo.courses["c1"] = models.Course{ID: "c1", Status: models.CourseStatusActive, StartDate: &start, EndDate: &end}

	active, err := svc.IsCurrentlyActive(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, active)

	repo.courses["c1"] = models.Course{ID: "c1", Status: models.CourseStatusActive, StartDate: &end}
	// Still cached from the first read, so flush before asserting.
	require.NoError(t, svc.cache.DeleteByPattern(context.Background(), courseCacheKeyPattern))

	active, err = svc.IsCurrentlyActive(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, active, "not yet started")
}
