package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/adapters/database/memory"
	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testSource = "test-source"

// --- Test Suite ---
type ProcessorTestSuite struct {
	suite.Suite
	store      *memory.Store
	publisher  *MockRatePublisher
	emitter    *MockEventEmitter
	dispatcher *inlineDispatcher
	now        time.Time
	processor  portssvc.ProcessorSvc
}

func (suite *ProcessorTestSuite) SetupTest() {
	suite.store = memory.NewStore()
	suite.publisher = new(MockRatePublisher)
	suite.emitter = new(MockEventEmitter)
	suite.dispatcher = &inlineDispatcher{}
	suite.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	clock := func() time.Time { return suite.now }
	history := services.NewHistoryStore(suite.store.Provider(), 100, 0)
	suite.processor = services.NewProcessor(
		services.NewSampleValidator(),
		services.NewDeduplicator(history, 10*time.Minute, 0.001, services.WithDedupClock(clock)),
		history,
		suite.publisher,
		suite.emitter,
		suite.dispatcher,
		services.WithProcessorClock(clock),
	)

	suite.publisher.On("PublishRate", mock.Anything, mock.Anything).Return(nil).Maybe()
	suite.emitter.On("Emit", mock.Anything, mock.Anything).Return(true).Maybe()
}

func (suite *ProcessorTestSuite) result(samples ...domain.RawSample) domain.CollectionResult {
	return domain.CollectionResult{Source: testSource, Success: true, RawData: samples, CollectionTime: suite.now}
}

func (suite *ProcessorTestSuite) TestFirstUSDSampleIsStoredCachedAndNotified() {
	ctx := context.Background()

	report, err := suite.processor.Process(ctx, suite.result(domain.RawSample{CurrencyCode: "USD", Rate: 1350, ObservedAt: suite.now}))
	suite.Require().NoError(err)
	suite.Equal(1, report.ProcessedCount)
	suite.Equal(domain.StageDone, report.LastStage())

	latest, err := suite.store.FindLatest(ctx, "USD")
	suite.Require().NoError(err)
	suite.Equal("1350.0000", domain.FormatRate(latest.DealBaseRate))
	suite.Equal("1377.0000", domain.FormatRate(latest.TTS))
	suite.Equal("1323.0000", domain.FormatRate(latest.TTB))

	suite.publisher.AssertCalled(suite.T(), "PublishRate", mock.Anything, mock.MatchedBy(func(r domain.ExchangeRate) bool {
		return r.CurrencyCode == "USD" && domain.FormatRate(r.DealBaseRate) == "1350.0000"
	}))
	suite.emitter.AssertCalled(suite.T(), "Emit", domain.EventNewDataReceived, mock.Anything)
	suite.emitter.AssertCalled(suite.T(), "Emit", domain.EventExchangeRateUpdated, mock.Anything)
	suite.emitter.AssertCalled(suite.T(), "Emit", domain.EventDataProcessingCompleted, mock.Anything)
	suite.emitter.AssertCalled(suite.T(), "Emit", domain.EventCacheInvalidation, mock.MatchedBy(func(e domain.CacheInvalidationEvent) bool {
		return len(e.CacheKeys) == 2 && e.CacheKeys[0] == "rate:USD"
	}))
}

func (suite *ProcessorTestSuite) TestSimilarRateEightMinutesLaterSupersedes() {
	ctx := context.Background()
	first := suite.now.Add(-8 * time.Minute)

	_, err := suite.processor.Process(ctx, suite.result(domain.RawSample{CurrencyCode: "USD", Rate: 1350, ObservedAt: first}))
	suite.Require().NoError(err)

	report, err := suite.processor.Process(ctx, suite.result(domain.RawSample{CurrencyCode: "USD", Rate: 1350.5, ObservedAt: suite.now}))
	suite.Require().NoError(err)
	suite.Equal(1, report.ProcessedCount)
	suite.Equal(2, suite.store.Len())
}

func (suite *ProcessorTestSuite) TestLargeMoveIsAccepted() {
	ctx := context.Background()

	_, err := suite.processor.Process(ctx, suite.result(domain.RawSample{CurrencyCode: "USD", Rate: 1350, ObservedAt: suite.now.Add(-time.Minute)}))
	suite.Require().NoError(err)
	report, err := suite.processor.Process(ctx, suite.result(domain.RawSample{CurrencyCode: "USD", Rate: 1500, ObservedAt: suite.now.Add(-time.Minute)}))
	suite.Require().NoError(err)

	suite.Equal(1, report.ProcessedCount)
	suite.Equal(2, suite.store.Len())
}

func (suite *ProcessorTestSuite) TestReplayedSampleIsDropped() {
	ctx := context.Background()
	sample := domain.RawSample{CurrencyCode: "USD", Rate: 1350, ObservedAt: suite.now.Add(-time.Minute)}

	_, err := suite.processor.Process(ctx, suite.result(sample))
	suite.Require().NoError(err)
	report, err := suite.processor.Process(ctx, suite.result(sample))
	suite.Require().NoError(err)

	suite.Equal(0, report.ProcessedCount)
	suite.Equal(0, report.Unique)
	suite.Equal(domain.StageDone, report.LastStage())
	suite.Equal(1, suite.store.Len())
}

func (suite *ProcessorTestSuite) TestMixedBatchOfFifty() {
	ctx := context.Background()
	codes := domain.SupportedCurrencyCodes()[:47]
	stored := suite.now.Add(-time.Minute)

	// two codes already have an identical rate stored at the same instant
	for _, code := range codes[:2] {
		rec, err := domain.NewExchangeRate(code, testSource, decimal.NewFromInt(100), stored)
		suite.Require().NoError(err)
		suite.Require().NoError(suite.store.InsertExchangeRate(ctx, rec))
	}

	samples := make([]domain.RawSample, 0, 50)
	for i, code := range codes {
		observed := suite.now
		if i < 2 {
			observed = stored
		}
		samples = append(samples, domain.RawSample{CurrencyCode: code, Rate: 100, ObservedAt: observed})
	}
	samples = append(samples,
		domain.RawSample{CurrencyCode: "XXX", Rate: 100, ObservedAt: suite.now},
		domain.RawSample{CurrencyCode: "ZZZ", Rate: 100, ObservedAt: suite.now},
		domain.RawSample{CurrencyCode: "QQQ", Rate: 100, ObservedAt: suite.now},
	)
	suite.Require().Len(samples, 50)

	report, err := suite.processor.Process(ctx, suite.result(samples...))
	suite.Require().NoError(err)
	suite.Equal(50, report.Received)
	suite.Equal(47, report.Valid)
	suite.Equal(45, report.Unique)
	suite.Equal(45, report.ProcessedCount)
	suite.Equal(47, suite.store.Len())
}

func (suite *ProcessorTestSuite) TestAllInvalidReturnsProcessingError() {
	report, err := suite.processor.Process(context.Background(), suite.result(
		domain.RawSample{CurrencyCode: "XXX", Rate: 1, ObservedAt: suite.now},
		domain.RawSample{CurrencyCode: "USD", Rate: 0, ObservedAt: suite.now},
	))

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrDataProcessing))
	suite.Equal(0, report.ProcessedCount)
	suite.Zero(suite.store.Len())
	suite.emitter.AssertNotCalled(suite.T(), "Emit", mock.Anything, mock.Anything)
}

func (suite *ProcessorTestSuite) TestFailedCollectionIsNoop() {
	report, err := suite.processor.Process(context.Background(), domain.CollectionResult{
		Source: testSource, Success: false, ErrorMessage: "timeout",
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StageDone, report.LastStage())
	suite.Equal("timeout", report.Stages[0].Err)
	suite.publisher.AssertNotCalled(suite.T(), "PublishRate", mock.Anything, mock.Anything)
}

func (suite *ProcessorTestSuite) TestPartialSaveFailureKeepsGoing() {
	suite.store.FailInsert = func(r domain.ExchangeRate) error {
		if r.CurrencyCode == "JPY" {
			return errors.New("constraint violation")
		}
		return nil
	}

	report, err := suite.processor.Process(context.Background(), suite.result(
		domain.RawSample{CurrencyCode: "USD", Rate: 1350, ObservedAt: suite.now},
		domain.RawSample{CurrencyCode: "JPY", Rate: 9.1, ObservedAt: suite.now},
		domain.RawSample{CurrencyCode: "EUR", Rate: 1480, ObservedAt: suite.now},
	))

	suite.Require().NoError(err)
	suite.Equal(2, report.ProcessedCount)
	suite.publisher.AssertNumberOfCalls(suite.T(), "PublishRate", 2)
	for _, st := range report.Stages {
		if st.Stage == domain.StagePersisted {
			suite.Equal(3, st.In)
			suite.Equal(2, st.Out)
			suite.NotEmpty(st.Err)
		}
	}
}

func (suite *ProcessorTestSuite) TestCacheFailureDoesNotFailBatch() {
	suite.publisher.ExpectedCalls = nil
	suite.publisher.On("PublishRate", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	report, err := suite.processor.Process(context.Background(), suite.result(domain.RawSample{CurrencyCode: "USD", Rate: 1350, ObservedAt: suite.now}))
	suite.Require().NoError(err)
	suite.Equal(1, report.ProcessedCount)
	suite.Equal(domain.StageDone, report.LastStage())
}

func (suite *ProcessorTestSuite) TestQueuedCacheTasksPublishTheirOwnRecord() {
	deferred := &deferredDispatcher{}
	clock := func() time.Time { return suite.now }
	history := services.NewHistoryStore(suite.store.Provider(), 100, 0)
	processor := services.NewProcessor(
		services.NewSampleValidator(),
		services.NewDeduplicator(history, 10*time.Minute, 0.001, services.WithDedupClock(clock)),
		history,
		suite.publisher,
		suite.emitter,
		deferred,
		services.WithProcessorClock(clock),
	)

	_, err := processor.Process(context.Background(), suite.result(
		domain.RawSample{CurrencyCode: "USD", Rate: 1350, ObservedAt: suite.now},
		domain.RawSample{CurrencyCode: "EUR", Rate: 1480, ObservedAt: suite.now},
		domain.RawSample{CurrencyCode: "GBP", Rate: 1700, ObservedAt: suite.now},
	))
	suite.Require().NoError(err)
	deferred.Drain()

	var published []string
	for _, call := range suite.publisher.Calls {
		if call.Method == "PublishRate" {
			published = append(published, call.Arguments.Get(1).(domain.ExchangeRate).CurrencyCode)
		}
	}
	suite.ElementsMatch([]string{"USD", "EUR", "GBP"}, published)
}

func TestProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}
