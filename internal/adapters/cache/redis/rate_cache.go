package redis

import (
	"context"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/go-redis/redis/v8"
)

// RateCache publishes accepted rates as Redis hashes for the read side.
type RateCache struct {
	client  redis.Cmdable
	prefix  string
	rateTTL time.Duration
	infoTTL time.Duration
}

// NewRateCache creates a RateCache. prefix is prepended to every key.
func NewRateCache(client redis.Cmdable, prefix string, rateTTL, infoTTL time.Duration) *RateCache {
	return &RateCache{client: client, prefix: prefix, rateTTL: rateTTL, infoTTL: infoTTL}
}

// RateKey is the hash holding the latest rate of code.
func (c *RateCache) RateKey(code string) string {
	return c.prefix + "rate:" + code
}

// InfoKey is the hash holding the display info of code.
func (c *RateCache) InfoKey(code string) string {
	return c.prefix + "currency_info:" + code
}

// CacheKeys lists every key PublishRate writes for code.
func (c *RateCache) CacheKeys(code string) []string {
	return []string{c.RateKey(code), c.InfoKey(code)}
}

// RateFields renders the rate hash. Decimals carry exactly four places.
func RateFields(rec domain.ExchangeRate) map[string]any {
	return map[string]any{
		"currency_name":   rec.CurrencyName,
		"deal_base_rate":  domain.FormatRate(rec.DealBaseRate),
		"tts":             domain.FormatRate(rec.TTS),
		"ttb":             domain.FormatRate(rec.TTB),
		"source":          rec.Source,
		"last_updated_at": rec.RecordedAt.UTC().Format(time.RFC3339),
	}
}

// InfoFields renders the currency info hash.
func InfoFields(rec domain.ExchangeRate) map[string]any {
	return map[string]any{
		"currency_code":   rec.CurrencyCode,
		"currency_name":   rec.CurrencyName,
		"deal_base_rate":  domain.FormatRate(rec.DealBaseRate),
		"source":          rec.Source,
		"last_updated_at": rec.RecordedAt.UTC().Format(time.RFC3339),
	}
}

// PublishRate writes both hashes and their TTLs in one pipeline.
func (c *RateCache) PublishRate(ctx context.Context, rec domain.ExchangeRate) error {
	rateKey, infoKey := c.RateKey(rec.CurrencyCode), c.InfoKey(rec.CurrencyCode)
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rateKey, RateFields(rec))
		pipe.Expire(ctx, rateKey, c.rateTTL)
		pipe.HSet(ctx, infoKey, InfoFields(rec))
		pipe.Expire(ctx, infoKey, c.infoTTL)
		return nil
	})
	return err
}

var _ portssvc.RatePublisher = (*RateCache)(nil)
