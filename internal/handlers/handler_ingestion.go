package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/dto"
	"github.com/SscSPs/rate_ingestor/internal/middleware"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// ingestionHandler exposes manual triggers for collection and maintenance.
type ingestionHandler struct {
	control   portssvc.IngestionControl
	retention time.Duration
	now       func() time.Time
}

func newIngestionHandler(control portssvc.IngestionControl, retention time.Duration) *ingestionHandler {
	return &ingestionHandler{control: control, retention: retention, now: time.Now}
}

func registerIngestionRoutes(rg *gin.RouterGroup, control portssvc.IngestionControl, retention time.Duration) {
	h := newIngestionHandler(control, retention)

	rg.POST("/ingestion/collect", h.collect)
	maintenance := rg.Group("/maintenance")
	{
		maintenance.POST("/aggregate", h.aggregate)
		maintenance.POST("/cleanup", h.cleanup)
	}
}

// collect runs one collection cycle now. A cycle already in flight yields 409.
// @Summary Run a collection cycle
// @Description Fetches every source and processes the batches. Returns 409 while another cycle is running.
// @Tags ingestion
// @Produce  json
// @Success 200 {object} dto.CollectResponse
// @Failure 409 {object} map[string]string "Cycle already in progress"
// @Failure 429 {object} map[string]string "Rate limit exceeded"
// @Failure 502 {object} map[string]interface{} "Cycle failed"
// @Router /api/v1/ingestion/collect [post]
func (h *ingestionHandler) collect(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	logger.Info("Received request to run collection cycle")

	reports, err := h.control.RunCollection(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrCycleInProgress) {
			logger.Warn("Collection cycle already running")
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Manual collection cycle failed", slog.String("error", err.Error()))
		resp := dto.ToCollectResponse(reports)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "batches": resp.Batches, "processed": resp.Processed})
		return
	}

	c.JSON(http.StatusOK, dto.ToCollectResponse(reports))
}

// aggregate recomputes daily aggregates for ?date=YYYY-MM-DD, defaulting to yesterday (UTC).
// @Summary Generate daily aggregates
// @Tags maintenance
// @Produce  json
// @Param   date query string false "Trade date (YYYY-MM-DD), defaults to yesterday UTC"
// @Success 200 {object} dto.MaintenanceResponse
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 500 {object} map[string]interface{} "Aggregation failed"
// @Router /api/v1/maintenance/aggregate [post]
func (h *ingestionHandler) aggregate(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	date := domain.TradeDate(h.now()).AddDate(0, 0, -1)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			logger.Warn("Invalid aggregate date", slog.String("date", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	logger = logger.With(slog.String("trade_date", date.Format(dateLayout)))
	logger.Info("Received request to generate daily aggregates")

	rows, err := h.control.RunAggregation(c.Request.Context(), date)
	if err != nil {
		logger.Error("Daily aggregation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate daily aggregates", "rows_affected": rows})
		return
	}

	c.JSON(http.StatusOK, dto.MaintenanceResponse{Job: "aggregate", RowsAffected: rows, TradeDate: &date})
}

// cleanup deletes history older than the configured retention, or retention_days from the body.
// @Summary Delete old history
// @Tags maintenance
// @Accept  json
// @Produce  json
// @Param   request body dto.MaintenanceRequest false "Retention override"
// @Success 200 {object} dto.MaintenanceResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Cleanup failed"
// @Router /api/v1/maintenance/cleanup [post]
func (h *ingestionHandler) cleanup(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	retention := h.retention
	var req dto.MaintenanceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for cleanup", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
		if req.RetentionDays > 0 {
			retention = time.Duration(req.RetentionDays) * 24 * time.Hour
		}
	}

	logger.Info("Received request to clean up old history", slog.Duration("retention", retention))

	rows, err := h.control.RunCleanup(c.Request.Context(), retention)
	if err != nil {
		logger.Error("Cleanup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clean up old data"})
		return
	}

	cutoff := h.now().UTC().Add(-retention)
	c.JSON(http.StatusOK, dto.MaintenanceResponse{Job: "cleanup", RowsAffected: rows, Cutoff: &cutoff})
}
