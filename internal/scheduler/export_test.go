package scheduler

import (
	"context"
	"time"
)

func WithSleep(fn func(ctx context.Context, d time.Duration) bool) Option {
	return func(s *Scheduler) { s.sleep = fn }
}

func (s *Scheduler) Maintain(ctx context.Context) { s.maintain(ctx) }

func (s *Scheduler) CollectionLoop(ctx context.Context) error { return s.collectionLoop(ctx) }
