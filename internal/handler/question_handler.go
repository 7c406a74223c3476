package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduportal/student-portal-api/internal/models"
	"github.com/eduportal/student-portal-api/internal/service"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
	"github.com/eduportal/student-portal-api/pkg/response"
)

// QuestionHandler exposes the forum question and answer endpoints.
type QuestionHandler struct {
	questions *service.QuestionService
	answers   *service.AnswerService
}

// NewQuestionHandler constructs QuestionHandler.
func NewQuestionHandler(questions *service.QuestionService, answers *service.AnswerService) *QuestionHandler {
	return &QuestionHandler{questions: questions, answers: answers}
}

// Create posts a new question authored by the caller.
func (h *QuestionHandler) Create(c *gin.Context) {
	var req models.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	question, err := h.questions.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// List returns all questions, or matches of the term query.
func (h *QuestionHandler) List(c *gin.Context) {
	questions, err := h.questions.Search(c.Request.Context(), c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions, nil)
}

// Get returns a single question with its answer count.
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Update edits the caller's own question.
func (h *QuestionHandler) Update(c *gin.Context) {
	var req models.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	question, err := h.questions.Update(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Delete removes a question; author or admin only.
func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("id"), currentUserID(c), currentRole(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateAnswer posts an answer to a question.
func (h *QuestionHandler) CreateAnswer(c *gin.Context) {
	var req models.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	answer, err := h.answers.Create(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, answer)
}

// ListAnswers returns a question's answers, accepted first.
func (h *QuestionHandler) ListAnswers(c *gin.Context) {
	answers, err := h.answers.ListByQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answers, nil)
}

// GetAnswer returns a single answer.
func (h *QuestionHandler) GetAnswer(c *gin.Context) {
	answer, err := h.answers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answer, nil)
}

// MyAnswers returns the caller's own answers.
func (h *QuestionHandler) MyAnswers(c *gin.Context) {
	answers, err := h.answers.ListByAuthor(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answers, nil)
}

// UpdateAnswer edits the caller's own answer.
func (h *QuestionHandler) UpdateAnswer(c *gin.Context) {
	var req models.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	answer, err := h.answers.Update(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answer, nil)
}

// DeleteAnswer removes an answer; author or admin only.
func (h *QuestionHandler) DeleteAnswer(c *gin.Context) {
	if err := h.answers.Delete(c.Request.Context(), c.Param("id"), currentUserID(c), currentRole(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AcceptAnswer marks an answer as accepted; question author only.
func (h *QuestionHandler) AcceptAnswer(c *gin.Context) {
	answer, err := h.answers.Accept(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answer, nil)
}
