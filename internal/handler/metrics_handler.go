package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
	"github.com/noah-isme/playschool-admin/pkg/response"
)

type metricsExporter interface {
	Handler() http.Handler
}

type readiness interface {
	Loading() bool
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics metricsExporter
	state   readiness
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics metricsExporter, state readiness) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, state: state}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness checks.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 until the dashboard state has its initial snapshots.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.state != nil && h.state.Loading() {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "initial snapshots not yet received"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
