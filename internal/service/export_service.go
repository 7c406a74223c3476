package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eduportal/student-portal-api/internal/models"
	"github.com/eduportal/student-portal-api/pkg/export"
)

// ExportService renders payment data as CSV files and PDF receipts.
type ExportService struct {
	payments *PaymentService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(payments *PaymentService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		payments: payments,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

var paymentExportHeaders = []string{"ID", "Student", "Amount", "Due Date", "Payment Date", "Method", "Status"}

// PaymentsCSV renders all payments, or one student's when studentID is set,
// as a CSV document.
func (s *ExportService) PaymentsCSV(ctx context.Context, studentID string) ([]byte, error) {
	var (
		payments []models.PaymentDetail
		err      error
	)
	if studentID != "" {
		payments, err = s.payments.ListByStudent(ctx, studentID)
	} else {
		payments, err = s.payments.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, map[string]string{
			"ID":           p.ID,
			"Student":      p.StudentName,
			"Amount":       fmt.Sprintf("%.2f", p.Amount),
			"Due Date":     p.DueDate.Format("2006-01-02"),
			"Payment Date": formatOptionalDate(p.PaymentDate),
			"Method":       formatMethod(p.Method),
			"Status":       string(p.Status),
		})
	}

	data, err := s.csv.Render(export.Dataset{Headers: paymentExportHeaders, Rows: rows})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payments exported", zap.Int("rows", len(rows)))
	return data, nil
}

// PaymentReceipt renders a settled payment as a PDF receipt. Unsettled
// payments have no receipt.
func (s *ExportService) PaymentReceipt(ctx context.Context, paymentID string) ([]byte, error) {
	detail, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	lines := []export.ReceiptLine{
		{Label: "Receipt", Value: detail.ID},
		{Label: "Student", Value: detail.StudentName},
		{Label: "Amount", Value: fmt.Sprintf("R$ %.2f", detail.Amount)},
		{Label: "Due Date", Value: detail.DueDate.Format("2006-01-02")},
		{Label: "Payment Date", Value: formatOptionalDate(detail.PaymentDate)},
		{Label: "Method", Value: formatMethod(detail.Method)},
		{Label: "Status", Value: string(detail.Status)},
	}
	return s.pdf.RenderReceipt("Payment Receipt", lines)
}

func formatOptionalDate(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format("2006-01-02")
}

func formatMethod(m *models.PaymentMethod) string {
	if m == nil {
		return ""
	}
	return string(*m)
}
