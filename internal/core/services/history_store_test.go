package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/adapters/database/memory"
	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/SscSPs/rate_ingestor/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStore_AppendChunksAndContinuesOnError(t *testing.T) {
	store := memory.NewStore()
	store.FailInsert = func(r domain.ExchangeRate) error {
		if r.CurrencyCode == "EUR" {
			return errors.New("duplicate key")
		}
		return nil
	}
	history := services.NewHistoryStore(store.Provider(), 2, 10*time.Millisecond)
	now := time.Now()

	records := []domain.ExchangeRate{
		candidate(t, "USD", 1350, now),
		candidate(t, "EUR", 1480, now),
		candidate(t, "JPY", 9, now),
		candidate(t, "GBP", 1700, now),
		candidate(t, "CNY", 190, now),
	}

	start := time.Now()
	saved, err := history.Append(context.Background(), records)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.Len(t, saved, 4)
	assert.Equal(t, 4, store.Len())
	// three chunks, two pauses
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestHistoryStore_AppendFinishesBatchAfterCancel(t *testing.T) {
	store := memory.NewStore()
	history := services.NewHistoryStore(store.Provider(), 1, 5*time.Millisecond)
	now := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []domain.ExchangeRate{
		candidate(t, "USD", 1350, now),
		candidate(t, "EUR", 1480, now),
		candidate(t, "JPY", 9, now),
	}
	saved, err := history.Append(ctx, records)
	require.NoError(t, err)
	assert.Len(t, saved, 3)
	assert.Equal(t, 3, store.Len())
}
