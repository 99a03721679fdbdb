package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playschool-admin/internal/dto"
	"github.com/noah-isme/playschool-admin/internal/models"
	"github.com/noah-isme/playschool-admin/internal/service"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
	"github.com/noah-isme/playschool-admin/pkg/response"
)

type invoiceState interface {
	Invoices() []models.Invoice
	FindInvoice(id string) (models.Invoice, bool)
	NextInvoiceID(studentClass string) string
	AddInvoice(ctx context.Context, req service.CreateInvoiceRequest) (dto.MutationAck, error)
	UpdateInvoice(ctx context.Context, id string, req service.UpdateInvoiceRequest) (dto.MutationAck, error)
	DeleteInvoice(ctx context.Context, id string) error
}

// InvoiceHandler exposes fee invoice endpoints.
type InvoiceHandler struct {
	invoices invoiceState
}

// NewInvoiceHandler constructs InvoiceHandler.
func NewInvoiceHandler(invoices invoiceState) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// List godoc
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param status query string false "Paid, Pending or Overdue"
// @Success 200 {object} response.Envelope
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	invoices := h.invoices.Invoices()
	if status := models.InvoiceStatus(c.Query("status")); status != "" {
		filtered := invoices[:0]
		for _, inv := range invoices {
			if inv.Status == status {
				filtered = append(filtered, inv)
			}
		}
		invoices = filtered
	}
	response.JSON(c, http.StatusOK, dto.NewInvoiceViews(invoices), map[string]interface{}{"total": len(invoices)})
}

// Get godoc
// @Summary Get invoice
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	inv, ok := h.invoices.FindInvoice(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "invoice not found"))
		return
	}
	response.JSON(c, http.StatusOK, dto.InvoiceView{Invoice: inv, Balance: inv.Balance()}, nil)
}

// NextID godoc
// @Summary Preview the next display identifier
// @Description Computed from the current snapshot; the identifier is not reserved.
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param class query string true "Student class"
// @Success 200 {object} response.Envelope
// @Router /invoices/next-id [get]
func (h *InvoiceHandler) NextID(c *gin.Context) {
	class := strings.TrimSpace(c.Query("class"))
	if class == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class is required"))
		return
	}
	response.JSON(c, http.StatusOK, dto.NextInvoiceIDResponse{
		Class:     class,
		DisplayID: h.invoices.NextInvoiceID(class),
	}, nil)
}

// Create godoc
// @Summary Raise an invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateInvoiceRequest true "Invoice payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ack, err := h.invoices.AddInvoice(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, ack)
}

// Update godoc
// @Summary Update an invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param payload body service.UpdateInvoiceRequest true "Fields to change"
// @Success 202 {object} response.Envelope
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ack, err := h.invoices.UpdateInvoice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, ack)
}

// Delete godoc
// @Summary Remove an invoice
// @Tags Invoices
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 202 {object} response.Envelope
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.invoices.DeleteInvoice(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.MutationAck{ID: id})
}
