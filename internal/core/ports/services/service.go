package services

import (
	"context"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ServiceContainer holds the ingestion services wired once at startup.
// The scheduler and the ops handlers read from it.
type ServiceContainer struct {
	Collector   CollectorSvc
	Processor   ProcessorSvc
	Maintenance MaintenanceSvcFacade
	History     HistoryStoreSvc
}

// RateSource fetches one snapshot from one external provider.
type RateSource interface {
	Name() string
	FetchSnapshot(ctx context.Context) ([]domain.RawSample, error)
}

// CollectorSvc fetches from every configured source.
type CollectorSvc interface {
	CollectAll(ctx context.Context) []domain.CollectionResult
}

// ProcessorSvc turns one collection result into persisted, cached and notified records.
type ProcessorSvc interface {
	Process(ctx context.Context, result domain.CollectionResult) (domain.BatchReport, error)
}

// HistoryStoreSvc is the persistence gateway used by the pipeline.
type HistoryStoreSvc interface {
	Append(ctx context.Context, records []domain.ExchangeRate) ([]domain.ExchangeRate, error)
	FindRecentSimilar(ctx context.Context, code, source string, since time.Time, rate, tolerance decimal.Decimal) (int64, time.Time, error)
	UpsertDailyAggregate(ctx context.Context, code string, date time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	ListCurrencyCodesForDate(ctx context.Context, date time.Time) ([]string, error)
	ListDailyAggregates(ctx context.Context, code string, from, to time.Time) ([]domain.DailyAggregate, error)
	FindLatest(ctx context.Context, code string) (*domain.ExchangeRate, error)
}

// RatePublisher writes accepted records to the shared cache. Best effort.
type RatePublisher interface {
	PublishRate(ctx context.Context, rate domain.ExchangeRate) error
	CacheKeys(code string) []string
}

// EventTransport delivers an already encoded event on a named channel.
type EventTransport interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// EventEmitter schedules a detached event publication.
type EventEmitter interface {
	Emit(name domain.EventType, payload any) bool
}

// TaskDispatcher runs detached tasks off the caller's goroutine.
type TaskDispatcher interface {
	Submit(name string, task func(ctx context.Context) error) bool
}

// IngestionControl is what the ops API and CLI drive.
type IngestionControl interface {
	RunCollection(ctx context.Context) ([]domain.BatchReport, error)
	RunAggregation(ctx context.Context, date time.Time) (int64, error)
	RunCleanup(ctx context.Context, retention time.Duration) (int64, error)
	Stats() domain.SchedulerStats
	Health() domain.HealthReport
}
