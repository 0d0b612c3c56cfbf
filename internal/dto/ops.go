package dto

import (
	"time"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
)

// StageOutcomeResponse is one pipeline stage of a batch.
type StageOutcomeResponse struct {
	Stage string `json:"stage"`
	In    int    `json:"in"`
	Out   int    `json:"out"`
	Error string `json:"error,omitempty"`
}

// BatchReportResponse describes how one source's batch went through the pipeline.
type BatchReportResponse struct {
	Source         string                 `json:"source"`
	CorrelationID  string                 `json:"correlation_id"`
	Received       int                    `json:"received"`
	Valid          int                    `json:"valid"`
	Unique         int                    `json:"unique"`
	ProcessedCount int                    `json:"processed_count"`
	LastStage      string                 `json:"last_stage"`
	Stages         []StageOutcomeResponse `json:"stages"`
	DurationMs     int64                  `json:"duration_ms"`
}

// CollectResponse is returned by a manual collection trigger.
type CollectResponse struct {
	Batches   []BatchReportResponse `json:"batches"`
	Processed int                   `json:"processed"`
}

// MaintenanceRequest is the optional body of a manual cleanup.
type MaintenanceRequest struct {
	RetentionDays int `json:"retention_days" binding:"omitempty,gt=0"`
}

// MaintenanceResponse reports rows touched by a maintenance job.
type MaintenanceResponse struct {
	Job          string     `json:"job"`
	RowsAffected int64      `json:"rows_affected"`
	TradeDate    *time.Time `json:"trade_date,omitempty"`
	Cutoff       *time.Time `json:"cutoff,omitempty"`
}

// StatsResponse mirrors the scheduler counters with derived fields.
type StatsResponse struct {
	domain.SchedulerStats
	IntervalSeconds float64 `json:"interval_seconds"`
	SuccessRate     float64 `json:"success_rate"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Healthy bool          `json:"healthy"`
	Issues  []string      `json:"issues"`
	Stats   StatsResponse `json:"stats"`
}

// ToHealthResponse converts a scheduler health report.
func ToHealthResponse(r domain.HealthReport) HealthResponse {
	issues := r.Issues
	if issues == nil {
		issues = []string{}
	}
	return HealthResponse{Healthy: r.Healthy, Issues: issues, Stats: ToStatsResponse(r.Stats)}
}

// ToBatchReportResponse converts a domain batch report.
func ToBatchReportResponse(r domain.BatchReport) BatchReportResponse {
	stages := make([]StageOutcomeResponse, 0, len(r.Stages))
	for _, s := range r.Stages {
		stages = append(stages, StageOutcomeResponse{Stage: string(s.Stage), In: s.In, Out: s.Out, Error: s.Err})
	}
	return BatchReportResponse{
		Source:         r.Source,
		CorrelationID:  r.CorrelationID,
		Received:       r.Received,
		Valid:          r.Valid,
		Unique:         r.Unique,
		ProcessedCount: r.ProcessedCount,
		LastStage:      string(r.LastStage()),
		Stages:         stages,
		DurationMs:     r.Duration.Milliseconds(),
	}
}

// ToCollectResponse converts the reports of one cycle.
func ToCollectResponse(reports []domain.BatchReport) CollectResponse {
	resp := CollectResponse{Batches: make([]BatchReportResponse, 0, len(reports))}
	for _, r := range reports {
		resp.Batches = append(resp.Batches, ToBatchReportResponse(r))
		resp.Processed += r.ProcessedCount
	}
	return resp
}

// ToStatsResponse converts scheduler stats.
func ToStatsResponse(s domain.SchedulerStats) StatsResponse {
	return StatsResponse{
		SchedulerStats:  s,
		IntervalSeconds: s.Interval.Seconds(),
		SuccessRate:     s.SuccessRate(),
	}
}
