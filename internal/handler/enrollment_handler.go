package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduportal/student-portal-api/internal/models"
	"github.com/eduportal/student-portal-api/internal/service"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
	"github.com/eduportal/student-portal-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll binds a student to a course.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req models.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Get returns an enrollment with student and course names.
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// ListByStudent returns a student's enrollments.
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	enrollments, err := h.enrollments.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// ListByCourse returns a course's enrollments.
func (h *EnrollmentHandler) ListByCourse(c *gin.Context) {
	enrollments, err := h.enrollments.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// MyEnrollments returns the caller's enrollments.
func (h *EnrollmentHandler) MyEnrollments(c *gin.Context) {
	enrollments, err := h.enrollments.ListByStudent(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Complete finishes an enrollment with a final grade.
func (h *EnrollmentHandler) Complete(c *gin.Context) {
	var req models.CompleteEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Complete(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Drop abandons an enrollment.
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	enrollment, err := h.enrollments.Drop(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Suspend pauses an enrollment.
func (h *EnrollmentHandler) Suspend(c *gin.Context) {
	enrollment, err := h.enrollments.Suspend(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Reactivate resumes a suspended enrollment.
func (h *EnrollmentHandler) Reactivate(c *gin.Context) {
	enrollment, err := h.enrollments.Reactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
