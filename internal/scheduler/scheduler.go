package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/metrics"
	"github.com/SscSPs/rate_ingestor/internal/middleware"
	"golang.org/x/sync/errgroup"
)

const (
	healthLagFactor    = 2
	minHealthySuccess  = 0.8
	cycleResultSuccess = "success"
	cycleResultFailure = "failure"
	cycleResultSkipped = "skipped"
)

// Options holds the scheduler's timing knobs.
type Options struct {
	Interval          time.Duration
	ErrorBackoff      time.Duration
	MaintenanceCheck  time.Duration
	CleanupInterval   time.Duration
	AggregateInterval time.Duration
	Retention         time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler drives the collection loop on wall-clock boundaries and the maintenance loop
// on a fixed check interval.
type Scheduler struct {
	services *portssvc.ServiceContainer
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) bool

	inFlight atomic.Bool
	running  atomic.Bool

	mu    sync.RWMutex
	stats domain.SchedulerStats
}

// New creates a Scheduler. Nothing runs until Start or one of the Run* methods is called.
func New(services *portssvc.ServiceContainer, opts Options, logger *slog.Logger, options ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		services: services,
		opts:     opts,
		logger:   logger.With(slog.String("component", "scheduler")),
		now:      time.Now,
		sleep:    sleep,
	}
	for _, opt := range options {
		opt(s)
	}
	s.stats.Interval = opts.Interval
	s.stats.StartedAt = s.now().UTC()
	return s
}

// NextBoundary returns the first multiple of interval strictly after now,
// e.g. 00:05 for 00:03:12 with a five minute interval.
func NextBoundary(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}

// Start runs both loops until ctx is cancelled. It returns nil on a clean shutdown.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("scheduler already running")
	}
	defer s.running.Store(false)

	s.mu.Lock()
	s.stats.StartedAt = s.now().UTC()
	s.mu.Unlock()

	s.logger.Info("Scheduler started",
		slog.Duration("interval", s.opts.Interval),
		slog.Duration("maintenance_check", s.opts.MaintenanceCheck))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.collectionLoop(gctx) })
	g.Go(func() error { return s.maintenanceLoop(gctx) })
	err := g.Wait()

	s.logger.Info("Scheduler stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Scheduler) collectionLoop(ctx context.Context) error {
	for {
		now := s.now()
		next := NextBoundary(now, s.opts.Interval)
		s.logger.Debug("Waiting for next collection boundary", slog.Time("next_run", next))
		if !s.sleep(ctx, next.Sub(now)) {
			return nil
		}

		_, err := s.RunCollection(ctx)
		if err == nil || errors.Is(err, apperrors.ErrCycleInProgress) {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn("Backing off after failed collection cycle", slog.Duration("backoff", s.opts.ErrorBackoff))
		if !s.sleep(ctx, s.opts.ErrorBackoff) {
			return nil
		}
	}
}

func (s *Scheduler) maintenanceLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.MaintenanceCheck)
	defer ticker.Stop()

	s.maintain(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.maintain(ctx)
		}
	}
}

// maintain runs whichever maintenance job is due. Each job absorbs its own failure.
func (s *Scheduler) maintain(ctx context.Context) {
	now := s.now().UTC()
	stats := s.Stats()

	if due(stats.LastCleanupTime, now, s.opts.CleanupInterval) {
		if _, err := s.RunCleanup(ctx, s.opts.Retention); err != nil {
			s.logger.Error("Scheduled cleanup failed", slog.String("error", err.Error()))
		}
	}
	if due(stats.LastAggregateTime, now, s.opts.AggregateInterval) {
		yesterday := domain.TradeDate(now).AddDate(0, 0, -1)
		if _, err := s.RunAggregation(ctx, yesterday); err != nil {
			s.logger.Error("Scheduled aggregation failed", slog.String("error", err.Error()))
		}
	}
}

func due(last *time.Time, now time.Time, every time.Duration) bool {
	return last == nil || now.Sub(*last) >= every
}

// RunCollection runs one collect-and-process cycle. A call made while another cycle is
// active returns ErrCycleInProgress immediately and counts as skipped.
func (s *Scheduler) RunCollection(ctx context.Context) ([]domain.BatchReport, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.mu.Lock()
		s.stats.SkippedRuns++
		s.mu.Unlock()
		metrics.RecordCycle(cycleResultSkipped, 0)
		s.logger.Warn("Collection cycle skipped, previous cycle still running")
		return nil, apperrors.ErrCycleInProgress
	}
	defer s.inFlight.Store(false)

	ctx, _ = middleware.WithCorrelationID(middleware.WithLogger(ctx, s.logger), "")
	logger := middleware.GetLoggerFromCtx(ctx)

	start := s.now()
	logger.Info("Collection cycle started")
	reports, err := s.cycle(ctx)
	elapsed := s.now().Sub(start)

	finished := s.now().UTC()
	s.mu.Lock()
	s.stats.TotalRuns++
	s.stats.LastRunTime = &finished
	if err != nil {
		s.stats.FailedRuns++
		s.stats.LastError = err.Error()
	} else {
		s.stats.SuccessfulRuns++
		s.stats.LastSuccessTime = &finished
	}
	s.mu.Unlock()

	if err != nil {
		metrics.RecordCycle(cycleResultFailure, elapsed)
		logger.Error("Collection cycle failed", slog.String("error", err.Error()), slog.Duration("duration", elapsed))
		return reports, err
	}

	processed := 0
	for _, r := range reports {
		processed += r.ProcessedCount
	}
	metrics.RecordCycle(cycleResultSuccess, elapsed)
	logger.Info("Collection cycle completed",
		slog.Int("batches", len(reports)),
		slog.Int("processed", processed),
		slog.Duration("duration", elapsed))
	return reports, nil
}

// cycle fails when no source delivered data or when any batch failed processing.
// A panic anywhere below is turned into an error. Fetching follows ctx; once data is in
// hand the batches are processed to completion even if ctx is cancelled meanwhile.
func (s *Scheduler) cycle(ctx context.Context) (reports []domain.BatchReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collection cycle panicked: %v", r)
		}
	}()

	results := s.services.Collector.CollectAll(ctx)
	if len(results) == 0 {
		return nil, errors.New("no rate sources configured")
	}
	ctx = context.WithoutCancel(ctx)

	var sourceErrs, processErrs []error
	for _, res := range results {
		if !res.Success {
			sourceErrs = append(sourceErrs, apperrors.NewExternalAPIError(res.Source, 0, errors.New(res.ErrorMessage)))
		}
		report, perr := s.services.Processor.Process(ctx, res)
		reports = append(reports, report)
		if perr != nil {
			processErrs = append(processErrs, perr)
		}
	}

	if len(sourceErrs) == len(results) {
		return reports, errors.Join(sourceErrs...)
	}
	return reports, errors.Join(processErrs...)
}

// RunAggregation recomputes the daily aggregates of date. Once started it is not
// interrupted by cancellation of ctx.
func (s *Scheduler) RunAggregation(ctx context.Context, date time.Time) (int64, error) {
	ctx = middleware.WithLogger(context.WithoutCancel(ctx), s.logger)
	n, err := safeRun(func() (int64, error) {
		return s.services.Maintenance.GenerateDailyAggregates(ctx, date)
	})

	at := s.now().UTC()
	s.mu.Lock()
	s.stats.LastAggregateTime = &at
	s.mu.Unlock()
	return n, err
}

// RunCleanup deletes history older than retention. Like RunAggregation it runs to
// completion once started.
func (s *Scheduler) RunCleanup(ctx context.Context, retention time.Duration) (int64, error) {
	ctx = middleware.WithLogger(context.WithoutCancel(ctx), s.logger)
	n, err := safeRun(func() (int64, error) {
		return s.services.Maintenance.CleanupOldData(ctx, retention)
	})

	at := s.now().UTC()
	s.mu.Lock()
	s.stats.LastCleanupTime = &at
	s.mu.Unlock()
	return n, err
}

func safeRun(fn func() (int64, error)) (n int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("maintenance job panicked: %v", r)
		}
	}()
	return fn()
}

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() domain.SchedulerStats {
	s.mu.RLock()
	stats := s.stats
	s.mu.RUnlock()
	stats.Running = s.running.Load()
	stats.CycleInProgress = s.inFlight.Load()
	return stats
}

// Health is healthy while the last success (or start, before any) is within two intervals
// and the lifetime success rate is at least 80%.
func (s *Scheduler) Health() domain.HealthReport {
	stats := s.Stats()
	report := domain.HealthReport{Healthy: true, Issues: []string{}, Stats: stats}

	since := stats.StartedAt
	if stats.LastSuccessTime != nil {
		since = *stats.LastSuccessTime
	}
	if lag := s.now().Sub(since); lag >= healthLagFactor*s.opts.Interval {
		report.Healthy = false
		report.Issues = append(report.Issues, fmt.Sprintf("no successful collection for %s", lag.Round(time.Second)))
	}
	if rate := stats.SuccessRate(); rate < minHealthySuccess {
		report.Healthy = false
		report.Issues = append(report.Issues, fmt.Sprintf("success rate %.1f%% is below %.0f%%", rate*100, minHealthySuccess*100))
	}
	if stats.LastError != "" && !report.Healthy {
		report.Issues = append(report.Issues, "last error: "+stats.LastError)
	}
	return report
}

// sleep waits for d or until ctx is done. It reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var _ portssvc.IngestionControl = (*Scheduler)(nil)
