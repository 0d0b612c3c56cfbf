package services

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Deduplicator drops candidates that carry no new information relative to recent history.
type Deduplicator struct {
	BaseService
	history   portssvc.HistoryStoreSvc
	window    time.Duration
	tolerance decimal.Decimal
	now       func() time.Time
}

// DeduplicatorOption configures a Deduplicator.
type DeduplicatorOption func(*Deduplicator)

// WithDedupClock overrides the clock used to compute the lookback window.
func WithDedupClock(now func() time.Time) DeduplicatorOption {
	return func(d *Deduplicator) { d.now = now }
}

// NewDeduplicator creates a Deduplicator looking back window with a relative tolerance.
func NewDeduplicator(history portssvc.HistoryStoreSvc, window time.Duration, tolerance float64, opts ...DeduplicatorOption) *Deduplicator {
	d := &Deduplicator{
		history:   history,
		window:    window,
		tolerance: decimal.NewFromFloat(tolerance),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Filter returns the candidates to persist, preserving input order.
// A candidate is kept when nothing similar was recorded in the window, or when it is
// strictly newer than the latest similar row. Any lookup failure keeps the whole batch.
func (d *Deduplicator) Filter(ctx context.Context, candidates []domain.ExchangeRate) []domain.ExchangeRate {
	since := d.now().UTC().Add(-d.window)
	out := make([]domain.ExchangeRate, 0, len(candidates))

	for _, c := range candidates {
		count, latest, err := d.history.FindRecentSimilar(ctx, c.CurrencyCode, c.Source, since, c.DealBaseRate, d.tolerance)
		if err != nil {
			d.LogError(ctx, err, "Duplicate lookup failed, keeping batch as is", slog.String("currency_code", c.CurrencyCode))
			return candidates
		}

		switch {
		case count == 0:
			out = append(out, c)
		case c.RecordedAt.After(latest):
			d.LogDebug(ctx, "Similar rate superseded by newer sample",
				slog.String("currency_code", c.CurrencyCode),
				slog.Time("previous", latest),
				slog.Time("recorded_at", c.RecordedAt))
			out = append(out, c)
		default:
			d.LogDebug(ctx, "Duplicate rate dropped",
				slog.String("currency_code", c.CurrencyCode),
				slog.String("rate", domain.FormatRate(c.DealBaseRate)))
		}
	}
	return out
}
