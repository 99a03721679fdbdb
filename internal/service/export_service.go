package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/playschool-admin/internal/models"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
	"github.com/noah-isme/playschool-admin/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type ledgerSource interface {
	Invoices() []models.Invoice
	Expenses() []models.Expense
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered report ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the fee and expense ledgers from the live state.
type ExportService struct {
	source ledgerSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(source ledgerSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{source: source, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Invoices renders every invoice with its balance.
func (s *ExportService) Invoices(format ExportFormat) (*ExportFile, error) {
	invoices := s.source.Invoices()
	dataset := export.Dataset{
		Headers: []string{"Invoice", "Student", "Class", "Type", "Date", "Amount", "Paid", "Balance", "Status"},
		Rows:    make([]map[string]string, 0, len(invoices)),
		Numeric: []string{"Amount", "Paid", "Balance"},
	}
	var amount, paid float64
	for _, inv := range invoices {
		amount += inv.Amount.Float()
		paid += inv.Paid.Float()
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Invoice": inv.DisplayID,
			"Student": inv.Student,
			"Class":   inv.StudentClass,
			"Type":    inv.Type,
			"Date":    inv.Date,
			"Amount":  formatAmount(inv.Amount.Float()),
			"Paid":    formatAmount(inv.Paid.Float()),
			"Balance": formatAmount(inv.Balance()),
			"Status":  string(inv.Status),
		})
	}
	dataset.Totals = map[string]string{
		"Invoice": "Total",
		"Amount":  formatAmount(amount),
		"Paid":    formatAmount(paid),
		"Balance": formatAmount(amount - paid),
	}
	return s.render(dataset, "Fee Invoices", "invoices", format)
}

// Expenses renders every expense entry.
func (s *ExportService) Expenses(format ExportFormat) (*ExportFile, error) {
	expenses := s.source.Expenses()
	dataset := export.Dataset{
		Headers: []string{"Title", "Category", "Date", "Amount"},
		Rows:    make([]map[string]string, 0, len(expenses)),
		Numeric: []string{"Amount"},
	}
	for _, exp := range expenses {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Title":    exp.Title,
			"Category": exp.Category,
			"Date":     exp.Date,
			"Amount":   formatAmount(exp.Amount.Float()),
		})
	}
	dataset.Totals = map[string]string{"Title": "Total", "Amount": formatAmount(TotalExpenses(expenses))}
	return s.render(dataset, "Expenses", "expenses", format)
}

func (s *ExportService) render(dataset export.Dataset, title, name string, format ExportFormat) (*ExportFile, error) {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportFormatCSV, "":
		format = ExportFormatCSV
		contentType = "text/csv"
		body, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		format = ExportFormatPDF
		contentType = "application/pdf"
		body, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("export render failed", zap.String("report", name), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("%s_%s.%s", name, s.now().UTC().Format("20060102"), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
