package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eduportal/student-portal-api/internal/models"
	"github.com/eduportal/student-portal-api/internal/service"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
	"github.com/eduportal/student-portal-api/pkg/response"
)

// MaterialHandler exposes study-material metadata endpoints.
type MaterialHandler struct {
	materials *service.MaterialService
}

// NewMaterialHandler constructs MaterialHandler.
func NewMaterialHandler(materials *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

// Create registers new material metadata uploaded by the caller.
func (h *MaterialHandler) Create(c *gin.Context) {
	var req models.MaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	material, err := h.materials.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// List returns materials, filtered by the optional term query.
func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.materials.Search(c.Request.Context(), c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// ListByCategory returns materials of one category.
func (h *MaterialHandler) ListByCategory(c *gin.Context) {
	materials, err := h.materials.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// ListByUploader returns materials uploaded by one user.
func (h *MaterialHandler) ListByUploader(c *gin.Context) {
	materials, err := h.materials.ListByUploader(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// MostDownloaded returns the top materials by download count.
func (h *MaterialHandler) MostDownloaded(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	materials, err := h.materials.MostDownloaded(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// Get returns a single material.
func (h *MaterialHandler) Get(c *gin.Context) {
	material, err := h.materials.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Download counts a download and returns the material with its file URL.
func (h *MaterialHandler) Download(c *gin.Context) {
	material, err := h.materials.RegisterDownload(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Update edits material metadata; uploader or admin only.
func (h *MaterialHandler) Update(c *gin.Context) {
	var req models.MaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	material, err := h.materials.Update(c.Request.Context(), c.Param("id"), currentUserID(c), currentRole(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Delete removes material metadata; uploader or admin only.
func (h *MaterialHandler) Delete(c *gin.Context) {
	if err := h.materials.Delete(c.Request.Context(), c.Param("id"), currentUserID(c), currentRole(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
