package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playschool-admin/internal/service"
	"github.com/noah-isme/playschool-admin/pkg/response"
)

type ledgerExporter interface {
	Invoices(format service.ExportFormat) (*service.ExportFile, error)
	Expenses(format service.ExportFormat) (*service.ExportFile, error)
}

// ReportHandler exposes ledger downloads.
type ReportHandler struct {
	exports ledgerExporter
}

// NewReportHandler constructs handler.
func NewReportHandler(exports ledgerExporter) *ReportHandler {
	return &ReportHandler{exports: exports}
}

// Invoices godoc
// @Summary Download the fee ledger
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /invoices/export [get]
func (h *ReportHandler) Invoices(c *gin.Context) {
	file, err := h.exports.Invoices(service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Expenses godoc
// @Summary Download the expense ledger
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /expenses/export [get]
func (h *ReportHandler) Expenses(c *gin.Context) {
	file, err := h.exports.Expenses(service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
