package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/rate_ingestor/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPgxPool_RejectsEmptyURL(t *testing.T) {
	_, err := database.NewPgxPool(context.Background(), "")
	assert.ErrorContains(t, err, "cannot be empty")
}

func TestNewPgxPool_RejectsMalformedURL(t *testing.T) {
	_, err := database.NewPgxPool(context.Background(), "postgres://%zz")
	assert.ErrorContains(t, err, "parse database config")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	client, err := database.NewRedisClient(ctx, "127.0.0.1:1", "", 0)
	assert.ErrorContains(t, err, "failed to ping redis")
	require.NotNil(t, client)
	assert.NoError(t, client.Close())
}
