package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portsrepo "github.com/SscSPs/rate_ingestor/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type aggregateKey struct {
	code string
	date time.Time
}

// Store keeps rate history and daily aggregates in process memory.
// It backs STORAGE_DRIVER=memory and the pipeline tests.
type Store struct {
	mu         sync.RWMutex
	history    []domain.ExchangeRate
	aggregates map[aggregateKey]domain.DailyAggregate
	now        func() time.Time

	// FailInsert, when set, is consulted before every insert.
	FailInsert func(domain.ExchangeRate) error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		aggregates: make(map[aggregateKey]domain.DailyAggregate),
		now:        time.Now,
	}
}

// Provider exposes the store through the repository ports.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{ExchangeRateRepo: s, DailyAggregateRepo: s}
}

// InsertExchangeRate appends one history row.
func (s *Store) InsertExchangeRate(_ context.Context, rate domain.ExchangeRate) error {
	if s.FailInsert != nil {
		if err := s.FailInsert(rate); err != nil {
			return apperrors.NewDatabaseError("insert", "exchange_rate_history", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rate.CreatedAt.IsZero() {
		rate.CreatedAt = s.now().UTC()
	}
	s.history = append(s.history, rate)
	return nil
}

// FindRecentSimilar implements the similarity lookup over the in-memory history.
func (s *Store) FindRecentSimilar(_ context.Context, code, source string, since time.Time, rate, tolerance decimal.Decimal) (int64, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	var latest time.Time
	for _, r := range s.history {
		if r.CurrencyCode != code || r.Source != source || !r.RecordedAt.After(since) {
			continue
		}
		if !domain.WithinTolerance(rate, r.DealBaseRate, tolerance) {
			continue
		}
		count++
		if r.RecordedAt.After(latest) {
			latest = r.RecordedAt
		}
	}
	return count, latest, nil
}

// FindLatest returns the most recently recorded row for code.
func (s *Store) FindLatest(_ context.Context, code string) (*domain.ExchangeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ExchangeRate
	for i := range s.history {
		r := s.history[i]
		if r.CurrencyCode != code {
			continue
		}
		if latest == nil || r.RecordedAt.After(latest.RecordedAt) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	return latest, nil
}

// ListCurrencyCodesForDate returns the distinct codes recorded on date, sorted.
func (s *Store) ListCurrencyCodesForDate(_ context.Context, date time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := domain.TradeDate(date)
	seen := make(map[string]struct{})
	for _, r := range s.history {
		if domain.TradeDate(r.RecordedAt).Equal(day) {
			seen[r.CurrencyCode] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes, nil
}

func (s *Store) ratesForDateLocked(code string, day time.Time) []domain.ExchangeRate {
	var out []domain.ExchangeRate
	for _, r := range s.history {
		if r.CurrencyCode == code && domain.TradeDate(r.RecordedAt).Equal(day) {
			out = append(out, r)
		}
	}
	return out
}

// DeleteOlderThan removes rows recorded strictly before cutoff.
func (s *Store) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.history[:0]
	var deleted int64
	for _, r := range s.history {
		if r.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.history = kept
	return deleted, nil
}

// UpsertDailyAggregate recomputes and stores the aggregate of code on date.
func (s *Store) UpsertDailyAggregate(_ context.Context, code string, date time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := domain.TradeDate(date)
	agg, ok := domain.ComputeDailyAggregate(code, day, s.ratesForDateLocked(code, day))
	if !ok {
		return 0, nil
	}
	agg.UpdatedAt = s.now().UTC()
	s.aggregates[aggregateKey{code: code, date: day}] = agg
	return 1, nil
}

// ListDailyAggregates returns the aggregates of code within [from, to], oldest first.
func (s *Store) ListDailyAggregates(_ context.Context, code string, from, to time.Time) ([]domain.DailyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to = domain.TradeDate(from), domain.TradeDate(to)
	var out []domain.DailyAggregate
	for k, agg := range s.aggregates {
		if k.code != code || k.date.Before(from) || k.date.After(to) {
			continue
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate.Before(out[j].TradeDate) })
	return out, nil
}

// Len returns the number of history rows held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

var (
	_ portsrepo.ExchangeRateRepositoryFacade   = (*Store)(nil)
	_ portsrepo.DailyAggregateRepositoryFacade = (*Store)(nil)
)
