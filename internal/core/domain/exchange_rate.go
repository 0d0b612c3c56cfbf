package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ttsFactor = decimal.RequireFromString("1.02")
	ttbFactor = decimal.RequireFromString("0.98")
)

// ErrRateOutOfPrecision is returned when a rate does not survive rounding to RatePrecision
// with a strictly ordered TTS > deal base rate > TTB.
var ErrRateOutOfPrecision = errors.New("rate too small for stored precision")

// RawSample is one currency observation as delivered by a rate source.
// Rate is already expressed as the base-currency value of one unit of CurrencyCode.
type RawSample struct {
	CurrencyCode string         `json:"currency_code" validate:"required,len=3,alpha"`
	Rate         float64        `json:"rate" validate:"gt=0,lte=10000"`
	ObservedAt   time.Time      `json:"observed_at"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ExchangeRate is one immutable row of rate history.
type ExchangeRate struct {
	CurrencyCode string          `json:"currency_code"`
	CurrencyName string          `json:"currency_name"`
	DealBaseRate decimal.Decimal `json:"deal_base_rate"`
	TTS          decimal.Decimal `json:"tts"`
	TTB          decimal.Decimal `json:"ttb"`
	Source       string          `json:"source"`
	RecordedAt   time.Time       `json:"recorded_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewExchangeRate derives a history record from a deal base rate. The rate is rounded to
// RatePrecision and TTS/TTB are computed with the fixed 2% spread.
func NewExchangeRate(code, source string, rate decimal.Decimal, recordedAt time.Time) (ExchangeRate, error) {
	base := rate.Round(RatePrecision)
	tts := base.Mul(ttsFactor).Round(RatePrecision)
	ttb := base.Mul(ttbFactor).Round(RatePrecision)

	if !base.IsPositive() || !tts.GreaterThan(base) || !base.GreaterThan(ttb) {
		return ExchangeRate{}, ErrRateOutOfPrecision
	}

	return ExchangeRate{
		CurrencyCode: code,
		CurrencyName: CurrencyName(code),
		DealBaseRate: base,
		TTS:          tts,
		TTB:          ttb,
		Source:       source,
		RecordedAt:   recordedAt.UTC(),
	}, nil
}

// WithinTolerance reports whether other differs from r by strictly less than r*tolerance.
func WithinTolerance(r, other, tolerance decimal.Decimal) bool {
	return r.Sub(other).Abs().LessThan(r.Mul(tolerance))
}
