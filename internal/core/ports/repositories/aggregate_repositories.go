package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
)

// DailyAggregateReader defines read operations for daily aggregates
type DailyAggregateReader interface {
	// ListDailyAggregates returns aggregates for code with from <= trade_date <= to, oldest first.
	ListDailyAggregates(ctx context.Context, code string, from, to time.Time) ([]domain.DailyAggregate, error)
}

// DailyAggregateWriter defines write operations for daily aggregates
type DailyAggregateWriter interface {
	// UpsertDailyAggregate recomputes the aggregate of code on date from history and stores
	// it keyed by (currency_code, trade_date). Returns the affected row count, 0 when the
	// date has no history.
	UpsertDailyAggregate(ctx context.Context, code string, date time.Time) (int64, error)
}

// DailyAggregateRepositoryFacade combines all daily aggregate repository interfaces
type DailyAggregateRepositoryFacade interface {
	DailyAggregateReader
	DailyAggregateWriter
}
