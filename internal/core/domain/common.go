package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RatePrecision is the number of decimal places kept for every stored rate.
const RatePrecision int32 = 4

// StatPrecision is the number of decimal places kept for derived statistics (avg, volatility).
const StatPrecision int32 = 6

// TradeDate returns the UTC calendar day containing t, as midnight UTC.
func TradeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatRate renders a rate with exactly RatePrecision decimal places, e.g. "1350.0000".
func FormatRate(d decimal.Decimal) string {
	return d.StringFixed(RatePrecision)
}
