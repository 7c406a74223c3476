package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduportal/student-portal-api/internal/models"
	"github.com/eduportal/student-portal-api/internal/service"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
	"github.com/eduportal/student-portal-api/pkg/response"
)

// PaymentHandler exposes tuition payment endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
	exports  *service.ExportService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, exports *service.ExportService) *PaymentHandler {
	return &PaymentHandler{payments: payments, exports: exports}
}

// Create registers a new charge.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// List returns all payments.
func (h *PaymentHandler) List(c *gin.Context) {
	payments, err := h.payments.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// ListByStudent returns a student's payments, optionally filtered by status.
func (h *PaymentHandler) ListByStudent(c *gin.Context) {
	var statuses []models.PaymentStatus
	if status := c.Query("status"); status != "" {
		statuses = append(statuses, models.PaymentStatus(status))
	}
	payments, err := h.payments.ListByStudent(c.Request.Context(), c.Param("id"), statuses...)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Get returns a payment with its owner and overdue flag.
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

type markPaidRequest struct {
	Method *models.PaymentMethod `json:"payment_method,omitempty"`
}

// MarkPaid settles a payment.
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.MarkPaid(c.Request.Context(), c.Param("id"), req.Method)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Cancel voids a payment.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	payment, err := h.payments.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Refund reverses a settled payment.
func (h *PaymentHandler) Refund(c *gin.Context) {
	payment, err := h.payments.Refund(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Delete removes a still-modifiable payment.
func (h *PaymentHandler) Delete(c *gin.Context) {
	if err := h.payments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV streams payments as a CSV download. The optional student query
// parameter narrows the export to one student.
func (h *PaymentHandler) ExportCSV(c *gin.Context) {
	data, err := h.exports.PaymentsCSV(c.Request.Context(), c.Query("student"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="payments.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// Receipt streams a payment receipt PDF.
func (h *PaymentHandler) Receipt(c *gin.Context) {
	id := c.Param("id")
	data, err := h.exports.PaymentReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", data)
}
