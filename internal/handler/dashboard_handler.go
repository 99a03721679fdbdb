package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playschool-admin/internal/dto"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
	"github.com/noah-isme/playschool-admin/pkg/response"
)

type statsSource interface {
	Stats() dto.DashboardStats
	Loading() bool
}

// DashboardHandler serves the landing page figures.
type DashboardHandler struct {
	state statsSource
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(state statsSource) *DashboardHandler {
	return &DashboardHandler{state: state}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Totals, the six most recent months of fees and the latest admissions. meta.loading is true until every collection has delivered its first snapshot.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	if h.state == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.state.Stats(), map[string]interface{}{
		"loading": h.state.Loading(),
	})
}
