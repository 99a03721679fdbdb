package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playschool-admin/internal/service"
	"github.com/noah-isme/playschool-admin/pkg/response"
)

type seeder interface {
	Seed(ctx context.Context) (service.SeedResult, error)
}

// AdminHandler exposes maintenance endpoints.
type AdminHandler struct {
	seeder seeder
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(seeder seeder) *AdminHandler {
	return &AdminHandler{seeder: seeder}
}

// Seed godoc
// @Summary Load sample data
// @Description Writes the demonstration students, staff, invoices and expenses through the regular write path.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 202 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /admin/seed [post]
func (h *AdminHandler) Seed(c *gin.Context) {
	result, err := h.seeder.Seed(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}
