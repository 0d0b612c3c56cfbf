package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/metrics"
	"github.com/SscSPs/rate_ingestor/internal/middleware"
	"github.com/google/uuid"
)

// invalidationType tags cache invalidation events raised by ingestion.
const invalidationType = "exchange_rate_update"

type processor struct {
	BaseService
	validator    *SampleValidator
	deduplicator *Deduplicator
	history      portssvc.HistoryStoreSvc
	publisher    portssvc.RatePublisher
	events       portssvc.EventEmitter
	dispatcher   portssvc.TaskDispatcher
	now          func() time.Time
}

// ProcessorOption configures the processor.
type ProcessorOption func(*processor)

// WithProcessorClock overrides the clock used for event timestamps.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *processor) { p.now = now }
}

// NewProcessor wires the batch pipeline. publisher and events may be nil, in which case
// the cache and notify stages are skipped.
func NewProcessor(
	validator *SampleValidator,
	deduplicator *Deduplicator,
	history portssvc.HistoryStoreSvc,
	publisher portssvc.RatePublisher,
	events portssvc.EventEmitter,
	dispatcher portssvc.TaskDispatcher,
	opts ...ProcessorOption,
) portssvc.ProcessorSvc {
	p := &processor{
		validator:    validator,
		deduplicator: deduplicator,
		history:      history,
		publisher:    publisher,
		events:       events,
		dispatcher:   dispatcher,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one collection result through validate, dedupe, persist, cache and notify.
// The only error returned is a DataProcessingError for a non-empty batch with no valid
// sample; every other shortfall ends the batch early with a warning.
func (p *processor) Process(ctx context.Context, result domain.CollectionResult) (report domain.BatchReport, err error) {
	start := p.now()
	report = domain.BatchReport{
		Source:        result.Source,
		CorrelationID: middleware.CorrelationIDFromCtx(ctx),
		StartedAt:     start,
	}
	defer func() { report.Duration = p.now().Sub(start) }()
	logger := p.GetLogger(ctx).With(slog.String("source", result.Source))

	received := len(result.RawData)
	report.Received = received
	if !result.Success || received == 0 {
		var stageErr error
		if result.ErrorMessage != "" {
			stageErr = errors.New(result.ErrorMessage)
		}
		logger.Warn("No data to process", slog.Bool("success", result.Success), slog.String("error", result.ErrorMessage))
		report.Record(domain.StageReceived, received, 0, stageErr)
		report.Record(domain.StageDone, 0, 0, nil)
		return report, nil
	}
	report.Record(domain.StageReceived, received, received, nil)
	metrics.RecordStage(string(domain.StageReceived), received)
	logger.Info("Processing exchange rate data", slog.Int("data_count", received))

	validated := p.validator.ValidateBatch(ctx, result.Source, result.RawData)
	report.Valid = len(validated.Valid)
	metrics.RecordRejected(len(validated.Rejected))
	if report.Valid == 0 {
		err = apperrors.NewDataProcessingError(result.Source, string(domain.StageValidated), errors.Join(validated.Rejected...))
		report.Record(domain.StageValidated, received, 0, err)
		logger.Error("No valid data after cleaning", slog.Int("rejected", len(validated.Rejected)))
		return report, err
	}
	report.Record(domain.StageValidated, received, report.Valid, nil)
	metrics.RecordStage(string(domain.StageValidated), report.Valid)

	unique := p.deduplicator.Filter(ctx, validated.Valid)
	report.Unique = len(unique)
	report.Record(domain.StageDeduplicated, report.Valid, report.Unique, nil)
	metrics.RecordStage(string(domain.StageDeduplicated), report.Unique)
	if report.Unique == 0 {
		logger.Warn("All samples were duplicates", slog.Int("valid", report.Valid))
		report.Record(domain.StageDone, 0, 0, nil)
		return report, nil
	}

	saved, saveErr := p.history.Append(ctx, unique)
	report.ProcessedCount = len(saved)
	report.Record(domain.StagePersisted, report.Unique, len(saved), saveErr)
	metrics.RecordStage(string(domain.StagePersisted), len(saved))
	if len(saved) == 0 {
		logger.Warn("Nothing was saved", slog.Int("attempted", report.Unique))
		report.Record(domain.StageDone, 0, 0, nil)
		return report, nil
	}

	cached := p.cache(ctx, saved)
	report.Record(domain.StageCached, len(saved), cached, nil)

	notified := p.notify(ctx, result, report, saved)
	report.Record(domain.StageNotified, len(saved), notified, nil)

	report.Record(domain.StageDone, len(saved), len(saved), nil)
	logger.Info("Data processing completed",
		slog.Int("received", received),
		slog.Int("valid", report.Valid),
		slog.Int("unique", report.Unique),
		slog.Int("saved", report.ProcessedCount))
	return report, nil
}

// cache schedules one detached publish per saved record and returns how many were queued.
func (p *processor) cache(ctx context.Context, saved []domain.ExchangeRate) int {
	if p.publisher == nil || p.dispatcher == nil {
		return 0
	}
	logger := p.GetLogger(ctx)
	queued := 0
	for _, rec := range saved {
		ok := p.dispatcher.Submit("cache:"+rec.CurrencyCode, func(taskCtx context.Context) error {
			return p.publisher.PublishRate(middleware.WithLogger(taskCtx, logger), rec)
		})
		if ok {
			queued++
		}
	}
	return queued
}

// notify emits the batch events in order and returns how many were accepted.
func (p *processor) notify(ctx context.Context, result domain.CollectionResult, report domain.BatchReport, saved []domain.ExchangeRate) int {
	if p.events == nil {
		return 0
	}
	now := p.now().UTC()
	sent := 0
	count := func(ok bool) {
		if ok {
			sent++
		}
	}

	count(p.events.Emit(domain.EventNewDataReceived, domain.NewDataReceivedEvent{
		EventID:          uuid.NewString(),
		Source:           result.Source,
		DataCount:        len(saved),
		CollectionTime:   result.CollectionTime,
		ProcessingTimeMs: result.ProcessingTimeMs,
		CorrelationID:    report.CorrelationID,
	}))

	keys := make([]string, 0, len(saved)*2)
	for _, rec := range saved {
		count(p.events.Emit(domain.EventExchangeRateUpdated, domain.ExchangeRateUpdatedEvent{
			EventID:      uuid.NewString(),
			CurrencyCode: rec.CurrencyCode,
			CurrencyName: rec.CurrencyName,
			DealBaseRate: rec.DealBaseRate.InexactFloat64(),
			TTS:          rec.TTS.InexactFloat64(),
			TTB:          rec.TTB.InexactFloat64(),
			Source:       rec.Source,
			RecordedAt:   rec.RecordedAt,
			UpdatedAt:    now,
		}))
		if p.publisher != nil {
			keys = append(keys, p.publisher.CacheKeys(rec.CurrencyCode)...)
		}
	}

	count(p.events.Emit(domain.EventDataProcessingCompleted, domain.DataProcessingCompletedEvent{
		EventID:          uuid.NewString(),
		Source:           result.Source,
		TotalReceived:    report.Received,
		TotalValid:       report.Valid,
		TotalProcessed:   report.Unique,
		TotalSaved:       len(saved),
		ProcessingTimeMs: now.Sub(report.StartedAt).Milliseconds(),
		CompletedAt:      now,
		CorrelationID:    report.CorrelationID,
	}))

	if len(keys) > 0 {
		count(p.events.Emit(domain.EventCacheInvalidation, domain.CacheInvalidationEvent{
			EventID:          uuid.NewString(),
			CacheKeys:        keys,
			InvalidationType: invalidationType,
			InvalidatedAt:    now,
		}))
	}

	metrics.RecordStage(string(domain.StageNotified), sent)
	return sent
}
