package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/middleware"
	"github.com/SscSPs/rate_ingestor/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockCollector struct{ mock.Mock }

func (m *MockCollector) CollectAll(ctx context.Context) []domain.CollectionResult {
	args := m.Called(ctx)
	return args.Get(0).([]domain.CollectionResult)
}

type MockProcessor struct{ mock.Mock }

func (m *MockProcessor) Process(ctx context.Context, result domain.CollectionResult) (domain.BatchReport, error) {
	args := m.Called(ctx, result)
	return args.Get(0).(domain.BatchReport), args.Error(1)
}

type MockMaintenance struct{ mock.Mock }

func (m *MockMaintenance) GenerateDailyAggregates(ctx context.Context, date time.Time) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenance) Rollup(ctx context.Context, code string, from, to time.Time, period portssvc.RollupPeriod) ([]domain.PeriodAggregate, error) {
	args := m.Called(ctx, code, from, to, period)
	return args.Get(0).([]domain.PeriodAggregate), args.Error(1)
}

func (m *MockMaintenance) CleanupOldData(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type SchedulerTestSuite struct {
	suite.Suite
	collector   *MockCollector
	processor   *MockProcessor
	maintenance *MockMaintenance
	clock       *clock
	scheduler   *scheduler.Scheduler
}

func (s *SchedulerTestSuite) SetupTest() {
	s.collector = new(MockCollector)
	s.processor = new(MockProcessor)
	s.maintenance = new(MockMaintenance)
	s.clock = &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	services := &portssvc.ServiceContainer{
		Collector:   s.collector,
		Processor:   s.processor,
		Maintenance: s.maintenance,
	}
	s.scheduler = scheduler.New(services, scheduler.Options{
		Interval:          5 * time.Minute,
		ErrorBackoff:      time.Minute,
		MaintenanceCheck:  time.Minute,
		CleanupInterval:   24 * time.Hour,
		AggregateInterval: time.Hour,
		Retention:         365 * 24 * time.Hour,
	}, nil, scheduler.WithClock(s.clock.Now))
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func okResult(source string) domain.CollectionResult {
	return domain.CollectionResult{Source: source, Success: true, RawData: []domain.RawSample{{CurrencyCode: "USD", Rate: 1350}}}
}

func (s *SchedulerTestSuite) TestRunCollection_Success() {
	res := okResult("exchangerate-api")
	s.collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{res}).Once()
	s.processor.On("Process", mock.Anything, res).Return(domain.BatchReport{Source: res.Source, ProcessedCount: 1}, nil).Once()

	reports, err := s.scheduler.RunCollection(context.Background())
	s.Require().NoError(err)
	s.Require().Len(reports, 1)
	s.Equal(1, reports[0].ProcessedCount)

	stats := s.scheduler.Stats()
	s.EqualValues(1, stats.TotalRuns)
	s.EqualValues(1, stats.SuccessfulRuns)
	s.Require().NotNil(stats.LastSuccessTime)
	s.False(stats.CycleInProgress)
}

func (s *SchedulerTestSuite) TestRunCollection_PassesCorrelationID() {
	res := okResult("exchangerate-api")
	s.collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{res}).Once()
	s.processor.On("Process", mock.MatchedBy(func(ctx context.Context) bool {
		return middleware.CorrelationIDFromCtx(ctx) != ""
	}), res).Return(domain.BatchReport{}, nil).Once()

	_, err := s.scheduler.RunCollection(context.Background())
	s.NoError(err)
	s.processor.AssertExpectations(s.T())
}

func (s *SchedulerTestSuite) TestRunCollection_AllSourcesFailed() {
	res := domain.CollectionResult{Source: "exchangerate-api", ErrorMessage: "status 502"}
	s.collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{res}).Once()
	s.processor.On("Process", mock.Anything, res).Return(domain.BatchReport{}, nil).Once()

	_, err := s.scheduler.RunCollection(context.Background())
	s.ErrorIs(err, apperrors.ErrExternalAPI)

	stats := s.scheduler.Stats()
	s.EqualValues(1, stats.FailedRuns)
	s.Contains(stats.LastError, "status 502")
	s.Nil(stats.LastSuccessTime)
}

func (s *SchedulerTestSuite) TestRunCollection_ProcessingErrorFailsCycle() {
	res := okResult("exchangerate-api")
	s.collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{res}).Once()
	s.processor.On("Process", mock.Anything, res).
		Return(domain.BatchReport{}, apperrors.NewDataProcessingError(res.Source, "validated", errors.New("no valid samples"))).Once()

	_, err := s.scheduler.RunCollection(context.Background())
	s.ErrorIs(err, apperrors.ErrDataProcessing)
	s.EqualValues(1, s.scheduler.Stats().FailedRuns)
}

func (s *SchedulerTestSuite) TestRunCollection_RecoversPanic() {
	s.collector.On("CollectAll", mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Return([]domain.CollectionResult(nil)).Once()

	_, err := s.scheduler.RunCollection(context.Background())
	s.ErrorContains(err, "boom")
	s.EqualValues(1, s.scheduler.Stats().FailedRuns)

	// the single-flight guard is released after a panic
	res := okResult("exchangerate-api")
	s.collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{res}).Once()
	s.processor.On("Process", mock.Anything, res).Return(domain.BatchReport{}, nil).Once()
	_, err = s.scheduler.RunCollection(context.Background())
	s.NoError(err)
}

func (s *SchedulerTestSuite) TestRunCollection_SkipsWhileInFlight() {
	entered := make(chan struct{})
	release := make(chan struct{})
	res := okResult("exchangerate-api")
	s.collector.On("CollectAll", mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return([]domain.CollectionResult{res}).Once()
	s.processor.On("Process", mock.Anything, res).Return(domain.BatchReport{}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := s.scheduler.RunCollection(context.Background())
		done <- err
	}()
	<-entered
	s.True(s.scheduler.Stats().CycleInProgress)

	_, err := s.scheduler.RunCollection(context.Background())
	s.ErrorIs(err, apperrors.ErrCycleInProgress)

	close(release)
	s.NoError(<-done)

	stats := s.scheduler.Stats()
	s.EqualValues(1, stats.TotalRuns)
	s.EqualValues(1, stats.SkippedRuns)
	s.collector.AssertNumberOfCalls(s.T(), "CollectAll", 1)
}

func (s *SchedulerTestSuite) TestRunAggregationAndCleanup_StampStats() {
	date := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	s.maintenance.On("GenerateDailyAggregates", mock.Anything, date).Return(int64(7), nil).Once()
	s.maintenance.On("CleanupOldData", mock.Anything, 30*24*time.Hour).Return(int64(0), errors.New("db down")).Once()

	n, err := s.scheduler.RunAggregation(context.Background(), date)
	s.NoError(err)
	s.EqualValues(7, n)

	_, err = s.scheduler.RunCleanup(context.Background(), 30*24*time.Hour)
	s.Error(err)

	stats := s.scheduler.Stats()
	s.NotNil(stats.LastAggregateTime)
	s.NotNil(stats.LastCleanupTime)
}

func (s *SchedulerTestSuite) TestHealth_BeforeFirstRunMeasuresFromStart() {
	s.True(s.scheduler.Health().Healthy)

	s.clock.Advance(10 * time.Minute)
	report := s.scheduler.Health()
	s.False(report.Healthy)
	s.Len(report.Issues, 1)
}

func (s *SchedulerTestSuite) TestHealth_SuccessRateThreshold() {
	res := okResult("exchangerate-api")
	failed := domain.CollectionResult{Source: "exchangerate-api", ErrorMessage: "timeout"}
	s.processor.On("Process", mock.Anything, mock.Anything).Return(domain.BatchReport{}, nil)

	for range 4 {
		s.collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{res}).Once()
		_, err := s.scheduler.RunCollection(context.Background())
		s.Require().NoError(err)
	}
	s.collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{failed}).Once()
	_, _ = s.scheduler.RunCollection(context.Background())

	// 4 of 5 is exactly 80%
	s.True(s.scheduler.Health().Healthy)

	s.collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{failed}).Once()
	_, _ = s.scheduler.RunCollection(context.Background())

	report := s.scheduler.Health()
	s.False(report.Healthy)
	s.NotEmpty(report.Issues)
}

func TestNextBoundary(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"mid interval", time.Date(2024, 3, 1, 0, 3, 12, 0, time.UTC), time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)},
		{"exactly on boundary", time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 10, 0, 0, time.UTC)},
		{"hour rollover", time.Date(2024, 3, 1, 0, 57, 0, 0, time.UTC), time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)},
		{"day rollover", time.Date(2024, 3, 1, 23, 58, 30, 0, time.UTC), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"year rollover", time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scheduler.NextBoundary(tt.now, 5*time.Minute))
		})
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	maintenance := new(MockMaintenance)
	maintenance.On("CleanupOldData", mock.Anything, mock.Anything).Return(int64(0), nil)
	maintenance.On("GenerateDailyAggregates", mock.Anything, mock.Anything).Return(int64(0), nil)

	s := scheduler.New(&portssvc.ServiceContainer{Maintenance: maintenance}, scheduler.Options{
		Interval:          time.Hour,
		ErrorBackoff:      time.Minute,
		MaintenanceCheck:  time.Hour,
		CleanupInterval:   24 * time.Hour,
		AggregateInterval: time.Hour,
		Retention:         24 * time.Hour,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		return s.Stats().Running && s.Stats().LastAggregateTime != nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.False(t, s.Stats().Running)
	maintenance.AssertCalled(t, "CleanupOldData", mock.Anything, 24*time.Hour)
}

func (s *SchedulerTestSuite) TestRunCollection_ProcessesBatchAfterCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := okResult("exchangerate-api")
	s.collector.On("CollectAll", mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return([]domain.CollectionResult{res}).Once()
	s.processor.On("Process", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), res).Return(domain.BatchReport{ProcessedCount: 1}, nil).Once()

	reports, err := s.scheduler.RunCollection(ctx)
	s.Require().NoError(err)
	s.Equal(1, reports[0].ProcessedCount)
	s.processor.AssertExpectations(s.T())
}

func (s *SchedulerTestSuite) TestMaintenanceJobs_IgnoreCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	s.maintenance.On("CleanupOldData", live, time.Hour).Return(int64(3), nil).Once()
	s.maintenance.On("GenerateDailyAggregates", live, mock.Anything).Return(int64(1), nil).Once()

	n, err := s.scheduler.RunCleanup(ctx, time.Hour)
	s.NoError(err)
	s.EqualValues(3, n)
	_, err = s.scheduler.RunAggregation(ctx, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.maintenance.AssertExpectations(s.T())
}

func (s *SchedulerTestSuite) TestMaintain_RunsJobsWhenDue() {
	ctx := context.Background()
	feb29 := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	mar1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.maintenance.On("CleanupOldData", mock.Anything, 365*24*time.Hour).Return(int64(0), nil)
	s.maintenance.On("GenerateDailyAggregates", mock.Anything, mock.Anything).Return(int64(0), nil)

	// 2024-03-01 12:00: nothing has run yet
	s.scheduler.Maintain(ctx)
	s.maintenance.AssertNumberOfCalls(s.T(), "CleanupOldData", 1)
	s.maintenance.AssertCalled(s.T(), "GenerateDailyAggregates", mock.Anything, feb29)
	s.maintenance.AssertNumberOfCalls(s.T(), "GenerateDailyAggregates", 1)

	s.clock.Advance(30 * time.Minute)
	s.scheduler.Maintain(ctx)
	s.maintenance.AssertNumberOfCalls(s.T(), "CleanupOldData", 1)
	s.maintenance.AssertNumberOfCalls(s.T(), "GenerateDailyAggregates", 1)

	// 13:00: aggregation is due again, cleanup is not
	s.clock.Advance(30 * time.Minute)
	s.scheduler.Maintain(ctx)
	s.maintenance.AssertNumberOfCalls(s.T(), "CleanupOldData", 1)
	s.maintenance.AssertNumberOfCalls(s.T(), "GenerateDailyAggregates", 2)

	// 2024-03-02 01:00: aggregation moves to the previous UTC day
	s.clock.Advance(12 * time.Hour)
	s.scheduler.Maintain(ctx)
	s.maintenance.AssertNumberOfCalls(s.T(), "CleanupOldData", 1)
	s.maintenance.AssertCalled(s.T(), "GenerateDailyAggregates", mock.Anything, mar1)
	s.maintenance.AssertNumberOfCalls(s.T(), "GenerateDailyAggregates", 3)

	// 2024-03-02 12:00: 24h since the first cleanup
	s.clock.Advance(11 * time.Hour)
	s.scheduler.Maintain(ctx)
	s.maintenance.AssertNumberOfCalls(s.T(), "CleanupOldData", 2)
	s.maintenance.AssertNumberOfCalls(s.T(), "GenerateDailyAggregates", 4)
}

func (s *SchedulerTestSuite) TestMaintain_FailingCleanupDoesNotBlockAggregation() {
	s.maintenance.On("CleanupOldData", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("disk full") }).
		Return(int64(0), nil).Once()
	s.maintenance.On("GenerateDailyAggregates", mock.Anything, mock.Anything).Return(int64(4), nil).Once()

	s.scheduler.Maintain(context.Background())

	s.maintenance.AssertExpectations(s.T())
	stats := s.scheduler.Stats()
	s.NotNil(stats.LastCleanupTime)
	s.NotNil(stats.LastAggregateTime)
}

func (s *SchedulerTestSuite) TestMaintain_FailingAggregationDoesNotBlockCleanup() {
	s.maintenance.On("GenerateDailyAggregates", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))
	s.maintenance.On("CleanupOldData", mock.Anything, mock.Anything).Return(int64(2), nil)

	s.scheduler.Maintain(context.Background())
	s.maintenance.AssertNumberOfCalls(s.T(), "CleanupOldData", 1)
	s.maintenance.AssertNumberOfCalls(s.T(), "GenerateDailyAggregates", 1)

	// a failed aggregation is retried after the aggregate interval, cleanup stays on its own schedule
	s.clock.Advance(time.Hour)
	s.scheduler.Maintain(context.Background())
	s.maintenance.AssertNumberOfCalls(s.T(), "GenerateDailyAggregates", 2)
	s.maintenance.AssertNumberOfCalls(s.T(), "CleanupOldData", 1)

	s.clock.Advance(23 * time.Hour)
	s.scheduler.Maintain(context.Background())
	s.maintenance.AssertNumberOfCalls(s.T(), "CleanupOldData", 2)
}

func TestCollectionLoop_BacksOffThenRealigns(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	collector := new(MockCollector)
	processor := new(MockProcessor)

	failed := domain.CollectionResult{Source: "exchangerate-api", ErrorMessage: "status 502"}
	ok := okResult("exchangerate-api")
	collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{failed}).Once()
	collector.On("CollectAll", mock.Anything).Return([]domain.CollectionResult{ok}).Once()
	processor.On("Process", mock.Anything, mock.Anything).Return(domain.BatchReport{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var waits []time.Duration
	sleeper := func(_ context.Context, d time.Duration) bool {
		waits = append(waits, d)
		if len(waits) == 4 {
			cancel()
			return false
		}
		c.Advance(d)
		return true
	}

	s := scheduler.New(&portssvc.ServiceContainer{Collector: collector, Processor: processor}, scheduler.Options{
		Interval:     5 * time.Minute,
		ErrorBackoff: time.Minute,
	}, nil, scheduler.WithClock(c.Now), scheduler.WithSleep(sleeper))

	require.NoError(t, s.CollectionLoop(ctx))

	// boundary 12:05, backoff to 12:06, realign to 12:10, then wait for 12:15
	assert.Equal(t, []time.Duration{5 * time.Minute, time.Minute, 4 * time.Minute, 5 * time.Minute}, waits)
	stats := s.Stats()
	assert.EqualValues(t, 2, stats.TotalRuns)
	assert.EqualValues(t, 1, stats.FailedRuns)
	assert.EqualValues(t, 1, stats.SuccessfulRuns)
	collector.AssertExpectations(t)
}
