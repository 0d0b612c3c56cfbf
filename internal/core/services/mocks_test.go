package services_test

import (
	"context"
	"sync"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// --- Mock RatePublisher ---
type MockRatePublisher struct {
	mock.Mock
}

func (m *MockRatePublisher) PublishRate(ctx context.Context, rate domain.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockRatePublisher) CacheKeys(code string) []string {
	return []string{"rate:" + code, "currency_info:" + code}
}

// --- Mock EventEmitter ---
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) Emit(name domain.EventType, payload any) bool {
	args := m.Called(name, payload)
	return args.Bool(0)
}

// --- Mock RateSource ---
type MockRateSource struct {
	mock.Mock
	name string
}

func (m *MockRateSource) Name() string { return m.name }

func (m *MockRateSource) FetchSnapshot(ctx context.Context) ([]domain.RawSample, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawSample), args.Error(1)
}

// --- Mock EventTransport ---
type MockEventTransport struct {
	mock.Mock
}

func (m *MockEventTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}

// inlineDispatcher runs every task synchronously on Submit.
type inlineDispatcher struct {
	mu    sync.Mutex
	names []string
}

func (d *inlineDispatcher) Submit(name string, task func(ctx context.Context) error) bool {
	d.mu.Lock()
	d.names = append(d.names, name)
	d.mu.Unlock()
	_ = task(context.Background())
	return true
}

// deferredDispatcher queues tasks until Drain is called.
type deferredDispatcher struct {
	mu    sync.Mutex
	tasks []func(ctx context.Context) error
}

func (d *deferredDispatcher) Submit(_ string, task func(ctx context.Context) error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
	return true
}

func (d *deferredDispatcher) Drain() {
	d.mu.Lock()
	tasks := d.tasks
	d.tasks = nil
	d.mu.Unlock()
	for _, task := range tasks {
		_ = task(context.Background())
	}
}
