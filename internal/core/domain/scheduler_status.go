package domain

import "time"

// SchedulerStats is a snapshot of the scheduler's counters.
type SchedulerStats struct {
	Running           bool          `json:"running"`
	CycleInProgress   bool          `json:"cycle_in_progress"`
	Interval          time.Duration `json:"interval"`
	StartedAt         time.Time     `json:"started_at"`
	TotalRuns         int64         `json:"total_runs"`
	SuccessfulRuns    int64         `json:"successful_runs"`
	FailedRuns        int64         `json:"failed_runs"`
	SkippedRuns       int64         `json:"skipped_runs"`
	LastRunTime       *time.Time    `json:"last_run_time,omitempty"`
	LastSuccessTime   *time.Time    `json:"last_success_time,omitempty"`
	LastError         string        `json:"last_error,omitempty"`
	LastCleanupTime   *time.Time    `json:"last_cleanup_time,omitempty"`
	LastAggregateTime *time.Time    `json:"last_aggregate_time,omitempty"`
}

// SuccessRate returns successful/total, or 1 when nothing has run yet.
func (s SchedulerStats) SuccessRate() float64 {
	if s.TotalRuns == 0 {
		return 1
	}
	return float64(s.SuccessfulRuns) / float64(s.TotalRuns)
}

// HealthReport is the scheduler's self assessment.
type HealthReport struct {
	Healthy bool           `json:"healthy"`
	Issues  []string       `json:"issues"`
	Stats   SchedulerStats `json:"stats"`
}
