package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	portsrepo "github.com/SscSPs/rate_ingestor/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/shopspring/decimal"
)

// historyStore is the persistence gateway over the rate and aggregate repositories.
type historyStore struct {
	BaseService
	rates      portsrepo.ExchangeRateRepositoryFacade
	aggregates portsrepo.DailyAggregateRepositoryFacade
	chunkSize  int
	chunkPause time.Duration
}

// NewHistoryStore creates the persistence gateway. Writes are chunked by chunkSize with
// chunkPause between chunks.
func NewHistoryStore(repos portsrepo.RepositoryProvider, chunkSize int, chunkPause time.Duration) portssvc.HistoryStoreSvc {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &historyStore{
		rates:      repos.ExchangeRateRepo,
		aggregates: repos.DailyAggregateRepo,
		chunkSize:  chunkSize,
		chunkPause: chunkPause,
	}
}

// Append inserts records one by one and returns those that were stored. Per-record
// failures are joined into the returned error and do not stop the batch. A started batch
// is written to the end even if ctx is cancelled.
func (h *historyStore) Append(ctx context.Context, records []domain.ExchangeRate) ([]domain.ExchangeRate, error) {
	ctx = context.WithoutCancel(ctx)
	saved := make([]domain.ExchangeRate, 0, len(records))
	var errs []error

	for start := 0; start < len(records); start += h.chunkSize {
		if start > 0 && h.chunkPause > 0 {
			time.Sleep(h.chunkPause)
		}

		end := min(start+h.chunkSize, len(records))
		for _, rec := range records[start:end] {
			if err := h.rates.InsertExchangeRate(ctx, rec); err != nil {
				h.LogError(ctx, err, "Failed to save exchange rate", slog.String("currency_code", rec.CurrencyCode))
				errs = append(errs, err)
				continue
			}
			saved = append(saved, rec)
		}
	}

	return saved, errors.Join(errs...)
}

func (h *historyStore) FindRecentSimilar(ctx context.Context, code, source string, since time.Time, rate, tolerance decimal.Decimal) (int64, time.Time, error) {
	return h.rates.FindRecentSimilar(ctx, code, source, since, rate, tolerance)
}

func (h *historyStore) UpsertDailyAggregate(ctx context.Context, code string, date time.Time) (int64, error) {
	return h.aggregates.UpsertDailyAggregate(ctx, code, domain.TradeDate(date))
}

func (h *historyStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return h.rates.DeleteOlderThan(ctx, cutoff)
}

func (h *historyStore) ListCurrencyCodesForDate(ctx context.Context, date time.Time) ([]string, error) {
	return h.rates.ListCurrencyCodesForDate(ctx, domain.TradeDate(date))
}

func (h *historyStore) ListDailyAggregates(ctx context.Context, code string, from, to time.Time) ([]domain.DailyAggregate, error) {
	return h.aggregates.ListDailyAggregates(ctx, code, domain.TradeDate(from), domain.TradeDate(to))
}

func (h *historyStore) FindLatest(ctx context.Context, code string) (*domain.ExchangeRate, error) {
	return h.rates.FindLatest(ctx, domain.NormalizeCurrencyCode(code))
}
