package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduportal/student-portal-api/internal/models"
	"github.com/eduportal/student-portal-api/internal/service"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
	"github.com/eduportal/student-portal-api/pkg/response"
)

// TaskHandler exposes task and submission endpoints.
type TaskHandler struct {
	tasks       *service.TaskService
	submissions *service.SubmissionService
}

// NewTaskHandler constructs TaskHandler.
func NewTaskHandler(tasks *service.TaskService, submissions *service.SubmissionService) *TaskHandler {
	return &TaskHandler{tasks: tasks, submissions: submissions}
}

// Create registers a new task on a course.
func (h *TaskHandler) Create(c *gin.Context) {
	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// List returns all tasks, or one course's when the course query is set.
func (h *TaskHandler) List(c *gin.Context) {
	var (
		tasks []models.Task
		err   error
	)
	if courseID := c.Query("course"); courseID != "" {
		tasks, err = h.tasks.ListByCourse(c.Request.Context(), courseID)
	} else {
		tasks, err = h.tasks.List(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// Get returns a single task.
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Update edits a task.
func (h *TaskHandler) Update(c *gin.Context) {
	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit records the caller's answer to a task.
func (h *TaskHandler) Submit(c *gin.Context) {
	var req models.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.TaskID = c.Param("id")
	submission, err := h.submissions.Submit(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// ListSubmissions returns all submissions for a task.
func (h *TaskHandler) ListSubmissions(c *gin.Context) {
	submissions, err := h.submissions.ListByTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// GetSubmission returns a single submission with task context.
func (h *TaskHandler) GetSubmission(c *gin.Context) {
	submission, err := h.submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// MySubmissions returns the caller's own submissions.
func (h *TaskHandler) MySubmissions(c *gin.Context) {
	submissions, err := h.submissions.ListByStudent(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// Grade assigns a grade to a submission.
func (h *TaskHandler) Grade(c *gin.Context) {
	var req models.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Grade(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// ReturnForRevision hands a submission back to its student.
func (h *TaskHandler) ReturnForRevision(c *gin.Context) {
	var req models.ReturnSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.ReturnForRevision(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Resubmit replaces the content of a returned submission.
func (h *TaskHandler) Resubmit(c *gin.Context) {
	var req models.ResubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Resubmit(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
