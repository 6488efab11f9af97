package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-planner-api/internal/models"
	"github.com/noah-isme/smart-planner-api/internal/service"
)

type readinessProbe interface {
	Ready() bool
	Status() models.ModelStatus
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	probe   readinessProbe
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, optimizer *service.OptimizerService) *MetricsHandler {
	h := &MetricsHandler{metrics: metrics}
	if optimizer != nil {
		h.probe = optimizer
	}
	return h
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 until a model bundle is loaded.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.probe == nil || !h.probe.Ready() {
		body := gin.H{"status": "unavailable"}
		if h.probe != nil {
			body["model"] = h.probe.Status()
		}
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "model": h.probe.Status()})
}
