package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/dto"
	"github.com/SscSPs/rate_ingestor/internal/middleware"
	"github.com/gin-gonic/gin"
)

// opsHandler serves the scheduler's health and counters.
type opsHandler struct {
	control portssvc.IngestionControl
}

func newOpsHandler(control portssvc.IngestionControl) *opsHandler {
	return &opsHandler{control: control}
}

// getHealth answers GET /health with 200 when healthy and 503 otherwise.
// @Summary Scheduler health
// @Description Healthy while the last successful collection is within two intervals and the success rate is at least 80%.
// @Tags ops
// @Produce  json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *opsHandler) getHealth(c *gin.Context) {
	report := h.control.Health()
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
		middleware.GetLoggerFromContext(c).Warn("Health check failing", "issues", report.Issues)
	}
	c.JSON(status, dto.ToHealthResponse(report))
}

// getStats answers GET /stats.
// @Summary Scheduler counters
// @Tags ops
// @Produce  json
// @Success 200 {object} dto.StatsResponse
// @Router /stats [get]
func (h *opsHandler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToStatsResponse(h.control.Stats()))
}
