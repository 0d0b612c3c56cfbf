package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateHistory is one row of exchange_rate_history.
type ExchangeRateHistory struct {
	ID           int64           `db:"id"`
	CurrencyCode string          `db:"currency_code"`
	CurrencyName string          `db:"currency_name"`
	DealBaseRate decimal.Decimal `db:"deal_base_rate"`
	TTS          decimal.Decimal `db:"tts"`
	TTB          decimal.Decimal `db:"ttb"`
	Source       string          `db:"source"`
	RecordedAt   time.Time       `db:"recorded_at"`
	CreatedAt    time.Time       `db:"created_at"`
}

// DailyExchangeRate is one row of daily_exchange_rates, keyed by (currency_code, trade_date).
type DailyExchangeRate struct {
	CurrencyCode string          `db:"currency_code"`
	TradeDate    time.Time       `db:"trade_date"`
	OpenRate     decimal.Decimal `db:"open_rate"`
	CloseRate    decimal.Decimal `db:"close_rate"`
	HighRate     decimal.Decimal `db:"high_rate"`
	LowRate      decimal.Decimal `db:"low_rate"`
	AvgRate      decimal.Decimal `db:"avg_rate"`
	Volatility   decimal.Decimal `db:"volatility"`
	Volume       int64           `db:"volume"`
	UpdatedAt    time.Time       `db:"updated_at"`
}
