package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExchangeRateReader defines read operations over rate history
type ExchangeRateReader interface {
	// FindRecentSimilar counts rows for code and source with recorded_at > since whose
	// deal base rate differs from rate by strictly less than rate*tolerance, and returns
	// the latest recorded_at among them (zero time when count is 0).
	FindRecentSimilar(ctx context.Context, code, source string, since time.Time, rate, tolerance decimal.Decimal) (count int64, latest time.Time, err error)

	// FindLatest returns the most recent row for code, or apperrors.ErrNotFound.
	FindLatest(ctx context.Context, code string) (*domain.ExchangeRate, error)

	// ListCurrencyCodesForDate returns the distinct codes with history on the UTC date.
	ListCurrencyCodesForDate(ctx context.Context, date time.Time) ([]string, error)
}

// ExchangeRateWriter defines write operations over rate history
type ExchangeRateWriter interface {
	// InsertExchangeRate appends a single history row.
	InsertExchangeRate(ctx context.Context, rate domain.ExchangeRate) error

	// DeleteOlderThan removes rows with recorded_at strictly before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExchangeRateRepositoryFacade combines all rate history repository interfaces
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
