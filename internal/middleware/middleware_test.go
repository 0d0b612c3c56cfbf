package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/rate_ingestor/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWithCorrelationID(t *testing.T) {
	ctx, id := middleware.WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, middleware.CorrelationIDFromCtx(ctx))

	_, fixed := middleware.WithCorrelationID(context.Background(), "cycle-1")
	assert.Equal(t, "cycle-1", fixed)
	assert.Empty(t, middleware.CorrelationIDFromCtx(context.Background()))
}

func TestGetLoggerFromCtx_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), middleware.GetLoggerFromCtx(context.Background()))

	logger := quietLogger()
	assert.Same(t, logger, middleware.GetLoggerFromCtx(middleware.WithLogger(context.Background(), logger)))
}

func TestStructuredLoggingMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(quietLogger()))
	r.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, middleware.GetLoggerFromContext(c))
		c.Status(http.StatusNoContent)
	})

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, err := middleware.NewOpsLimiter("2-M")
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.RateLimit(limiter))
	r.POST("/collect", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		req, _ := http.NewRequest(http.MethodPost, "/collect", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestNewOpsLimiter_RejectsBadFormat(t *testing.T) {
	_, err := middleware.NewOpsLimiter("often")
	assert.Error(t, err)
}
