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

type mockQuestionRepo struct {
	questions map[string]models.Question
}

func (m *mockQuestionRepo) FindByID(ctx context.Context, id string) (*models.Question, error) {
	if q, ok := m.questions[id]; ok {
		return &q, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockQuestionRepo) FindDetailByID(ctx context.Context, id string) (*models.QuestionDetail, error) {
	if q, ok := m.questions[id]; ok {
		return &models.QuestionDetail{Question: q}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockQuestionRepo) List(ctx context.Context) ([]models.QuestionDetail, error) {
	var out []models.QuestionDetail
	for _, q := range m.questions {
		out = append(out, models.QuestionDetail{Question: q})
	}
	return out, nil
}

func (m *mockQuestionRepo) Search(ctx context.Context, term string) ([]models.QuestionDetail, error) {
	return m.List(ctx)
}

func (m *mockQuestionRepo) Create(ctx context.Context, question *models.Question) error {
	if m.questions == nil {
		m.questions = make(map[string]models.Question)
	}
	if question.ID == "" {
		question.ID = "new-question"
	}
	m.questions[question.ID] = *question
	return nil
}

func (m *mockQuestionRepo) Update(ctx context.Context, question *models.Question) error {
	m.questions[question.ID] = *question
	return nil
}

func (m *mockQuestionRepo) Delete(ctx context.Context, id string) error {
	delete(m.questions, id)
	return nil
}

type mockAnswerRepo struct {
	answers map[string]models.Answer
}

func (m *mockAnswerRepo) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	if a, ok := m.answers[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAnswerRepo) ListByQuestion(ctx context.Context, questionID string) ([]models.AnswerDetail, error) {
	var out []models.AnswerDetail
	for _, a := range m.answers {
		if a.QuestionID == questionID {
			out = append(out, models.AnswerDetail{Answer: a})
		}
	}
	return out, nil
}

func (m *mockAnswerRepo) ListByAuthor(ctx context.Context, authorID string) ([]models.AnswerDetail, error) {
	var out []models.AnswerDetail
	for _, a := range m.answers {
		if a.AuthorID == authorID {
			out = append(out, models.AnswerDetail{Answer: a})
		}
	}
	return out, nil
}

func (m *mockAnswerRepo) Create(ctx context.Context, answer *models.Answer) error {
	if m.answers == nil {
		m.answers = make(map[string]models.Answer)
	}
	if answer.ID == "" {
		answer.ID = "new-answer"
	}
	m.answers[answer.ID] = *answer
	return nil
}

func (m *mockAnswerRepo) Update(ctx context.Context, answer *models.Answer) error {
	m.answers[answer.ID] = *answer
	return nil
}

func (m *mockAnswerRepo) Delete(ctx context.Context, id string) error {
	delete(m.answers, id)
	return nil
}

func newForumFixture() (*QuestionService, *AnswerService, *mockQuestionRepo, *mockAnswerRepo) {
	questions := &mockQuestionRepo{questions: map[string]models.Question{
		"q1": {ID: "q1", Title: "How do goroutines work?", Content: "Looking for an intuition.", AuthorID: "s1"},
	}}
	answers := &mockAnswerRepo{}
	return NewQuestionService(questions, nil, nil),
		NewAnswerService(answers, questions, nil, nil),
		questions, answers
}

func TestCreateQuestion(t *testing.T) {
	svc, _, repo, _ := newForumFixture()

	question, err := svc.Create(context.Background(), "s2", models.QuestionRequest{
		Title:   "What is a mutex?",
		Content: "And when should one reach for channels instead?",
	})
	require.NoError(t, err)
	assert.Equal(t, "s2", question.AuthorID)
	assert.Contains(t, repo.questions, question.ID)
}

func TestCreateQuestionTooShortRejected(t *testing.T) {
	svc, _, _, _ := newForumFixture()

	_, err := svc.Create(context.Background(), "s2", models.QuestionRequest{Title: "Hm?", Content: "short"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestUpdateQuestionAuthorOnly(t *testing.T) {
	svc, _, _, _ := newForumFixture()

	req := models.QuestionRequest{Title: "How do goroutines work, really?", Content: "Looking for a better intuition."}

	_, err := svc.Update(context.Background(), "q1", "someone-else", req)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	updated, err := svc.Update(context.Background(), "q1", "s1", req)
	require.NoError(t, err)
	assert.Equal(t, req.Title, updated.Title)
}

func TestDeleteQuestionAuthorOrAdmin(t *testing.T) {
	svc, _, repo, _ := newForumFixture()

	err := svc.Delete(context.Background(), "q1", "s2", models.RoleStudent)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	require.NoError(t, svc.Delete(context.Background(), "q1", "admin1", models.RoleAdmin))
	assert.NotContains(t, repo.questions, "q1")
}

func TestCreateAnswerRequiresQuestion(t *testing.T) {
	_, svc, _, repo := newForumFixture()

	answer, err := svc.Create(context.Background(), "q1", "s2", models.AnswerRequest{Content: "They are cheap threads."})
	require.NoError(t, err)
	assert.False(t, answer.Accepted)
	assert.Contains(t, repo.answers, answer.ID)

	_, err = svc.Create(context.Background(), "missing", "s2", models.AnswerRequest{Content: "Answering the void."})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestAcceptAnswerQuestionAuthorOnly(t *testing.T) {
	_, svc, _, _ := newForumFixture()

	answer, err := svc.Create(context.Background(), "q1", "s2", models.AnswerRequest{Content: "They multiplex onto OS threads."})
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), answer.ID, "s2")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden), "the answer author cannot self-accept")

	accepted, err := svc.Accept(context.Background(), answer.ID, "s1")
	require.NoError(t, err)
	assert.True(t, accepted.Accepted)
}

func TestDeleteAnswerAuthorOrAdmin(t *testing.T) {
	_, svc, _, repo := newForumFixture()

	answer, err := svc.Create(context.Background(), "q1", "s2", models.AnswerRequest{Content: "With a scheduler."})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), answer.ID, "s3", models.RoleStudent)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	require.NoError(t, svc.Delete(context.Background(), answer.ID, "s2", models.RoleStudent))
	assert.NotContains(t, repo.answers, answer.ID)
}
