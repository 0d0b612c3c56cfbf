package config_test

import (
	"testing"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, config.StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 5*time.Minute, cfg.CollectionInterval)
	assert.Equal(t, 60*time.Second, cfg.CollectionErrorBackoff)
	assert.Equal(t, 10*time.Second, cfg.RateSourceTimeout)
	assert.Equal(t, 100, cfg.BatchChunkSize)
	assert.Equal(t, 10*time.Minute, cfg.DedupWindow)
	assert.InDelta(t, 0.001, cfg.DedupTolerance, 1e-12)
	assert.Equal(t, 1024, cfg.DispatchQueueSize)
	assert.Equal(t, 365*24*time.Hour, cfg.Retention())
	assert.Empty(t, cfg.RateSourceCurrencies)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("COLLECTION_INTERVAL", "1m")
	t.Setenv("RATE_SOURCE_CURRENCIES", "usd, jpy,,eur")
	t.Setenv("RETENTION_DAYS", "30")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, time.Minute, cfg.CollectionInterval)
	assert.Equal(t, []string{"USD", "JPY", "EUR"}, cfg.RateSourceCurrencies)
	assert.Equal(t, 30, cfg.RetentionDays)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("COLLECTION_INTERVAL", "soon")
	t.Setenv("BATCH_CHUNK_SIZE", "-4")
	t.Setenv("DEDUP_TOLERANCE", "2")
	t.Setenv("RATE_SOURCE_TIMEOUT", "2m")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.CollectionInterval)
	assert.Equal(t, 100, cfg.BatchChunkSize)
	assert.InDelta(t, 0.001, cfg.DedupTolerance, 1e-12)
	assert.Equal(t, config.MaxSourceTimeout, cfg.RateSourceTimeout)
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}
