package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playschool-admin/internal/dto"
	"github.com/noah-isme/playschool-admin/internal/models"
	"github.com/noah-isme/playschool-admin/internal/service"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
	"github.com/noah-isme/playschool-admin/pkg/response"
)

type expenseState interface {
	Expenses() []models.Expense
	FindExpense(id string) (models.Expense, bool)
	AddExpense(ctx context.Context, req service.CreateExpenseRequest) (dto.MutationAck, error)
	UpdateExpense(ctx context.Context, id string, req service.UpdateExpenseRequest) error
	DeleteExpense(ctx context.Context, id string) error
}

// ExpenseHandler exposes expense endpoints.
type ExpenseHandler struct {
	expenses expenseState
}

// NewExpenseHandler constructs ExpenseHandler.
func NewExpenseHandler(expenses expenseState) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// List godoc
// @Summary List expenses
// @Tags Expenses
// @Produce json
// @Security BearerAuth
// @Param category query string false "Expense category"
// @Success 200 {object} response.Envelope
// @Router /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	expenses := h.expenses.Expenses()
	if category := c.Query("category"); category != "" {
		filtered := expenses[:0]
		for _, exp := range expenses {
			if exp.Category == category {
				filtered = append(filtered, exp)
			}
		}
		expenses = filtered
	}
	response.JSON(c, http.StatusOK, expenses, map[string]interface{}{"total": len(expenses)})
}

// Get godoc
// @Summary Get expense
// @Tags Expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Success 200 {object} response.Envelope
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	exp, ok := h.expenses.FindExpense(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "expense not found"))
		return
	}
	response.JSON(c, http.StatusOK, exp, nil)
}

// Create godoc
// @Summary Record an expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateExpenseRequest true "Expense payload"
// @Success 202 {object} response.Envelope
// @Router /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ack, err := h.expenses.AddExpense(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, ack)
}

// Update godoc
// @Summary Update an expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Param payload body service.UpdateExpenseRequest true "Fields to change"
// @Success 202 {object} response.Envelope
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	var req service.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	id := c.Param("id")
	if err := h.expenses.UpdateExpense(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.MutationAck{ID: id})
}

// Delete godoc
// @Summary Remove an expense
// @Tags Expenses
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Success 202 {object} response.Envelope
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.expenses.DeleteExpense(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.MutationAck{ID: id})
}
