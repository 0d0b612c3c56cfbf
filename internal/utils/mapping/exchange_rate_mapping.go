package mapping

import (
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/SscSPs/rate_ingestor/internal/models"
)

// ToModelExchangeRate converts a domain ExchangeRate to a history row
func ToModelExchangeRate(d domain.ExchangeRate) models.ExchangeRateHistory {
	return models.ExchangeRateHistory{
		CurrencyCode: d.CurrencyCode,
		CurrencyName: d.CurrencyName,
		DealBaseRate: d.DealBaseRate,
		TTS:          d.TTS,
		TTB:          d.TTB,
		Source:       d.Source,
		RecordedAt:   d.RecordedAt.UTC(),
		CreatedAt:    d.CreatedAt,
	}
}

// ToDomainExchangeRate converts a history row to a domain ExchangeRate
func ToDomainExchangeRate(m models.ExchangeRateHistory) domain.ExchangeRate {
	return domain.ExchangeRate{
		CurrencyCode: m.CurrencyCode,
		CurrencyName: m.CurrencyName,
		DealBaseRate: m.DealBaseRate,
		TTS:          m.TTS,
		TTB:          m.TTB,
		Source:       m.Source,
		RecordedAt:   m.RecordedAt.UTC(),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

// ToModelDailyAggregate converts a domain DailyAggregate to a daily_exchange_rates row
func ToModelDailyAggregate(d domain.DailyAggregate) models.DailyExchangeRate {
	return models.DailyExchangeRate{
		CurrencyCode: d.CurrencyCode,
		TradeDate:    domain.TradeDate(d.TradeDate),
		OpenRate:     d.OpenRate,
		CloseRate:    d.CloseRate,
		HighRate:     d.HighRate,
		LowRate:      d.LowRate,
		AvgRate:      d.AvgRate,
		Volatility:   d.Volatility,
		Volume:       d.Volume,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ToDomainDailyAggregate converts a daily_exchange_rates row to a domain DailyAggregate
func ToDomainDailyAggregate(m models.DailyExchangeRate) domain.DailyAggregate {
	return domain.DailyAggregate{
		CurrencyCode: m.CurrencyCode,
		TradeDate:    domain.TradeDate(m.TradeDate),
		OpenRate:     m.OpenRate,
		CloseRate:    m.CloseRate,
		HighRate:     m.HighRate,
		LowRate:      m.LowRate,
		AvgRate:      m.AvgRate,
		Volatility:   m.Volatility,
		Volume:       m.Volume,
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}
