package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/metrics"
	"golang.org/x/sync/errgroup"
)

type collector struct {
	BaseService
	sources []portssvc.RateSource
	now     func() time.Time
}

// NewCollector creates a collector fetching from every source concurrently.
func NewCollector(sources ...portssvc.RateSource) portssvc.CollectorSvc {
	return &collector{sources: sources, now: time.Now}
}

// CollectAll returns one result per source in source order. Source failures are
// reported in the result, never as an error.
func (c *collector) CollectAll(ctx context.Context) []domain.CollectionResult {
	results := make([]domain.CollectionResult, len(c.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			results[i] = c.collect(gctx, src)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *collector) collect(ctx context.Context, src portssvc.RateSource) domain.CollectionResult {
	start := c.now()
	samples, err := src.FetchSnapshot(ctx)
	elapsed := c.now().Sub(start)
	metrics.RecordSourceFetch(src.Name(), err == nil, elapsed)

	res := domain.CollectionResult{
		Source:           src.Name(),
		CollectionTime:   start.UTC(),
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
	if err != nil {
		c.LogError(ctx, err, "Rate collection failed", slog.String("source", src.Name()))
		res.ErrorMessage = err.Error()
		return res
	}

	res.Success = true
	res.RawData = samples
	c.LogInfo(ctx, "Rate collection completed",
		slog.String("source", src.Name()),
		slog.Int("data_count", len(samples)),
		slog.Int64("processing_time_ms", res.ProcessingTimeMs))
	return res
}
