package ratesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/middleware"
	"github.com/tidwall/gjson"
)

// maxBodyBytes bounds how much of a snapshot response is read.
const maxBodyBytes = 4 << 20

// Client fetches "latest rates" snapshots from an exchangerate-api style endpoint:
//
//	{"base": "KRW", "date": "2024-03-01", "rates": {"USD": 0.00074, ...}}
//
// Each rate is quoted per unit of the base currency and is inverted on the way out.
type Client struct {
	name       string
	url        string
	httpClient *http.Client
	allowed    map[string]struct{}
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces the clock used for ObservedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a Client. An empty allowList emits every code in the response.
func NewClient(name, url string, timeout time.Duration, allowList []string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	if len(allowList) > 0 {
		c.allowed = make(map[string]struct{}, len(allowList))
		for _, code := range allowList {
			c.allowed[domain.NormalizeCurrencyCode(code)] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the source id stamped on every record from this client.
func (c *Client) Name() string { return c.name }

// FetchSnapshot performs one GET and returns the parsed samples.
func (c *Client) FetchSnapshot(ctx context.Context) ([]domain.RawSample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(c.name, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(c.name, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, apperrors.NewExternalAPIError(c.name, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewExternalAPIError(c.name, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	observedAt := c.now().UTC()

	return c.parse(ctx, body, observedAt, resp.StatusCode)
}

func (c *Client) parse(ctx context.Context, body []byte, observedAt time.Time, status int) ([]domain.RawSample, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperrors.NewExternalAPIError(c.name, status, errors.New("response is not valid JSON"))
	}
	doc := gjson.ParseBytes(body)
	rates := doc.Get("rates")
	if !rates.IsObject() {
		return nil, apperrors.NewExternalAPIError(c.name, status, errors.New("response has no rates object"))
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	base := doc.Get("base").String()
	if base == "" {
		base = domain.BaseCurrencyCode
	}
	date := doc.Get("date").String()

	var samples []domain.RawSample
	rates.ForEach(func(key, value gjson.Result) bool {
		code := strings.ToUpper(key.String())
		if c.allowed != nil {
			if _, ok := c.allowed[code]; !ok {
				return true
			}
		}
		if value.Type != gjson.Number || value.Float() <= 0 {
			logger.Warn("Skipping unusable source rate", "source", c.name, "currency_code", code, "raw", value.Raw)
			return true
		}
		original := value.Float()
		samples = append(samples, domain.RawSample{
			CurrencyCode: code,
			Rate:         1 / original,
			ObservedAt:   observedAt,
			Metadata: map[string]any{
				"base_currency": base,
				"date":          date,
				"original_rate": original,
			},
		})
		return true
	})

	logger.Debug("Fetched rate snapshot", "source", c.name, "count", len(samples))
	return samples, nil
}

var _ portssvc.RateSource = (*Client)(nil)
