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

type staffState interface {
	Staff() []models.StaffMember
	FindStaff(id string) (models.StaffMember, bool)
	AddStaff(ctx context.Context, req service.CreateStaffRequest) (dto.MutationAck, error)
	UpdateStaff(ctx context.Context, id string, req service.UpdateStaffRequest) error
	DeleteStaff(ctx context.Context, id string) error
	PaySalary(ctx context.Context, staffID string, req service.SalaryPaymentRequest) (dto.MutationAck, error)
}

// StaffHandler exposes staff endpoints.
type StaffHandler struct {
	staff staffState
}

// NewStaffHandler constructs StaffHandler.
func NewStaffHandler(staff staffState) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// List godoc
// @Summary List staff
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param category query string false "Teaching or Support Staff"
// @Success 200 {object} response.Envelope
// @Router /staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	members := h.staff.Staff()
	if category := models.StaffCategory(c.Query("category")); category != "" {
		filtered := members[:0]
		for _, member := range members {
			if member.Category == category || (category == models.StaffTeaching && member.IsTeaching()) {
				filtered = append(filtered, member)
			}
		}
		members = filtered
	}
	response.JSON(c, http.StatusOK, members, map[string]interface{}{"total": len(members)})
}

// Get godoc
// @Summary Get staff member
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/{id} [get]
func (h *StaffHandler) Get(c *gin.Context) {
	member, ok := h.staff.FindStaff(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "staff member not found"))
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Create godoc
// @Summary Add a staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateStaffRequest true "Staff payload"
// @Success 202 {object} response.Envelope
// @Router /staff [post]
func (h *StaffHandler) Create(c *gin.Context) {
	var req service.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ack, err := h.staff.AddStaff(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, ack)
}

// Update godoc
// @Summary Update a staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Param payload body service.UpdateStaffRequest true "Fields to change"
// @Success 202 {object} response.Envelope
// @Router /staff/{id} [put]
func (h *StaffHandler) Update(c *gin.Context) {
	var req service.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	id := c.Param("id")
	if err := h.staff.UpdateStaff(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.MutationAck{ID: id})
}

// Delete godoc
// @Summary Remove a staff member
// @Tags Staff
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Success 202 {object} response.Envelope
// @Router /staff/{id} [delete]
func (h *StaffHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.staff.DeleteStaff(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.MutationAck{ID: id})
}

// PaySalary godoc
// @Summary Record a salary payment
// @Description Books a Salary expense linked to the staff member. The amount defaults to the monthly salary.
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Param payload body service.SalaryPaymentRequest false "Payment overrides"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/{id}/salary-payments [post]
func (h *StaffHandler) PaySalary(c *gin.Context) {
	var req service.SalaryPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	ack, err := h.staff.PaySalary(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, ack)
}
