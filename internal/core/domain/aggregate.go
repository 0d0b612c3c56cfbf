package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DailyAggregate is the OHLC summary of one currency's history for one UTC day.
type DailyAggregate struct {
	CurrencyCode string          `json:"currency_code"`
	TradeDate    time.Time       `json:"trade_date"`
	OpenRate     decimal.Decimal `json:"open_rate"`
	CloseRate    decimal.Decimal `json:"close_rate"`
	HighRate     decimal.Decimal `json:"high_rate"`
	LowRate      decimal.Decimal `json:"low_rate"`
	AvgRate      decimal.Decimal `json:"avg_rate"`
	Volatility   decimal.Decimal `json:"volatility"`
	Volume       int64           `json:"volume"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ComputeDailyAggregate summarises every record of one currency for one trade date in a
// single pass. Records may arrive in any order; ties on RecordedAt keep input order.
// ok is false when records is empty.
func ComputeDailyAggregate(code string, tradeDate time.Time, records []ExchangeRate) (agg DailyAggregate, ok bool) {
	if len(records) == 0 {
		return DailyAggregate{}, false
	}

	sorted := make([]ExchangeRate, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.Before(sorted[j].RecordedAt)
	})

	high := sorted[0].DealBaseRate
	low := sorted[0].DealBaseRate
	sum := decimal.Zero
	values := make([]float64, 0, len(sorted))
	for _, r := range sorted {
		if r.DealBaseRate.GreaterThan(high) {
			high = r.DealBaseRate
		}
		if r.DealBaseRate.LessThan(low) {
			low = r.DealBaseRate
		}
		sum = sum.Add(r.DealBaseRate)
		values = append(values, r.DealBaseRate.InexactFloat64())
	}

	n := int64(len(sorted))
	return DailyAggregate{
		CurrencyCode: code,
		TradeDate:    TradeDate(tradeDate),
		OpenRate:     sorted[0].DealBaseRate,
		CloseRate:    sorted[len(sorted)-1].DealBaseRate,
		HighRate:     high,
		LowRate:      low,
		AvgRate:      sum.Div(decimal.NewFromInt(n)).Round(StatPrecision),
		Volatility:   decimal.NewFromFloat(sampleStdDev(values)).Round(StatPrecision),
		Volume:       n,
	}, true
}

// sampleStdDev returns the n-1 standard deviation, or 0 for fewer than two values.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

// PeriodAggregate rolls several daily aggregates into one week or month.
type PeriodAggregate struct {
	CurrencyCode  string          `json:"currency_code"`
	Label         string          `json:"label"`
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
	OpenRate      decimal.Decimal `json:"open_rate"`
	CloseRate     decimal.Decimal `json:"close_rate"`
	HighRate      decimal.Decimal `json:"high_rate"`
	LowRate       decimal.Decimal `json:"low_rate"`
	AvgRate       decimal.Decimal `json:"avg_rate"`
	Volatility    decimal.Decimal `json:"volatility"`
	Volume        int64           `json:"volume"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// RollupWeekly groups dailies by ISO week (label "2024-W07").
func RollupWeekly(dailies []DailyAggregate) []PeriodAggregate {
	return rollup(dailies, func(t time.Time) string {
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	})
}

// RollupMonthly groups dailies by calendar month (label "2024-02").
func RollupMonthly(dailies []DailyAggregate) []PeriodAggregate {
	return rollup(dailies, func(t time.Time) string {
		return t.Format("2006-01")
	})
}

func rollup(dailies []DailyAggregate, key func(time.Time) string) []PeriodAggregate {
	if len(dailies) == 0 {
		return nil
	}

	sorted := make([]DailyAggregate, len(dailies))
	copy(sorted, dailies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TradeDate.Before(sorted[j].TradeDate)
	})

	var out []PeriodAggregate
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && key(sorted[i].TradeDate) == key(sorted[start].TradeDate) {
			continue
		}
		out = append(out, summarisePeriod(key(sorted[start].TradeDate), sorted[start:i]))
		start = i
	}
	return out
}

func summarisePeriod(label string, days []DailyAggregate) PeriodAggregate {
	first, last := days[0], days[len(days)-1]
	p := PeriodAggregate{
		CurrencyCode: first.CurrencyCode,
		Label:        label,
		PeriodStart:  first.TradeDate,
		PeriodEnd:    last.TradeDate,
		OpenRate:     first.OpenRate,
		CloseRate:    last.CloseRate,
		HighRate:     first.HighRate,
		LowRate:      first.LowRate,
	}

	avgSum, volSum := decimal.Zero, decimal.Zero
	for _, d := range days {
		if d.HighRate.GreaterThan(p.HighRate) {
			p.HighRate = d.HighRate
		}
		if d.LowRate.LessThan(p.LowRate) {
			p.LowRate = d.LowRate
		}
		avgSum = avgSum.Add(d.AvgRate)
		volSum = volSum.Add(d.Volatility)
		p.Volume += d.Volume
	}

	n := decimal.NewFromInt(int64(len(days)))
	p.AvgRate = avgSum.Div(n).Round(StatPrecision)
	p.Volatility = volSum.Div(n).Round(StatPrecision)
	p.Change = p.CloseRate.Sub(p.OpenRate)
	if !p.OpenRate.IsZero() {
		p.ChangePercent = p.Change.Div(p.OpenRate).Mul(decimal.NewFromInt(100)).Round(StatPrecision)
	}
	return p
}
