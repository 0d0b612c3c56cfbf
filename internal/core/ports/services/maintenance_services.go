package services

import (
	"context"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
)

// RollupPeriod selects the bucket size of a rollup.
type RollupPeriod string

const (
	RollupWeek  RollupPeriod = "week"
	RollupMonth RollupPeriod = "month"
)

// AggregationSvc defines daily aggregate and rollup operations
type AggregationSvc interface {
	GenerateDailyAggregates(ctx context.Context, date time.Time) (int64, error)
	Rollup(ctx context.Context, code string, from, to time.Time, period RollupPeriod) ([]domain.PeriodAggregate, error)
}

// RetentionSvc defines history retention operations
type RetentionSvc interface {
	CleanupOldData(ctx context.Context, retention time.Duration) (int64, error)
}

// MaintenanceSvcFacade combines aggregation and retention
type MaintenanceSvcFacade interface {
	AggregationSvc
	RetentionSvc
}
