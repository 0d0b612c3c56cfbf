package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/metrics"
)

type maintenanceService struct {
	BaseService
	history portssvc.HistoryStoreSvc
	now     func() time.Time
}

// MaintenanceOption configures the maintenance service.
type MaintenanceOption func(*maintenanceService)

// WithMaintenanceClock overrides the clock used for retention cutoffs.
func WithMaintenanceClock(now func() time.Time) MaintenanceOption {
	return func(m *maintenanceService) { m.now = now }
}

// NewMaintenanceService creates the aggregation and retention service.
func NewMaintenanceService(history portssvc.HistoryStoreSvc, opts ...MaintenanceOption) portssvc.MaintenanceSvcFacade {
	m := &maintenanceService{history: history, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateDailyAggregates upserts the aggregate of every currency with history on date.
// A failing currency is logged and skipped; its error is joined into the result.
func (m *maintenanceService) GenerateDailyAggregates(ctx context.Context, date time.Time) (int64, error) {
	day := domain.TradeDate(date)
	codes, err := m.history.ListCurrencyCodesForDate(ctx, day)
	if err != nil {
		m.LogError(ctx, err, "Failed to list currencies for aggregation", slog.Time("trade_date", day))
		return 0, err
	}

	var total int64
	var errs []error
	for _, code := range codes {
		n, err := m.history.UpsertDailyAggregate(ctx, code, day)
		if err != nil {
			m.LogError(ctx, err, "Failed to aggregate currency", slog.String("currency_code", code), slog.Time("trade_date", day))
			errs = append(errs, err)
			continue
		}
		total += n
	}

	metrics.RecordMaintenance("aggregate", total)
	m.LogInfo(ctx, "Daily aggregates generated",
		slog.Time("trade_date", day),
		slog.Int("currencies", len(codes)),
		slog.Int64("affected_rows", total))
	return total, errors.Join(errs...)
}

// CleanupOldData deletes history recorded strictly before now-retention.
func (m *maintenanceService) CleanupOldData(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", retention)
	}
	cutoff := m.now().UTC().Add(-retention)
	deleted, err := m.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		m.LogError(ctx, err, "Failed to clean up old data", slog.Time("cutoff", cutoff))
		return 0, err
	}
	metrics.RecordMaintenance("cleanup", deleted)
	m.LogInfo(ctx, "Old data cleaned up", slog.Time("cutoff", cutoff), slog.Int64("deleted_count", deleted))
	return deleted, nil
}

// Rollup buckets the daily aggregates of code between from and to by week or month.
func (m *maintenanceService) Rollup(ctx context.Context, code string, from, to time.Time, period portssvc.RollupPeriod) ([]domain.PeriodAggregate, error) {
	dailies, err := m.history.ListDailyAggregates(ctx, domain.NormalizeCurrencyCode(code), from, to)
	if err != nil {
		return nil, err
	}
	switch period {
	case portssvc.RollupWeek:
		return domain.RollupWeekly(dailies), nil
	case portssvc.RollupMonth:
		return domain.RollupMonthly(dailies), nil
	default:
		return nil, fmt.Errorf("unknown rollup period %q", period)
	}
}
