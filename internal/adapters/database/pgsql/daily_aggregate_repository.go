package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/SscSPs/rate_ingestor/internal/models"
	"github.com/SscSPs/rate_ingestor/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const aggregateTable = "daily_exchange_rates"

// PgxDailyAggregateRepository stores daily OHLC aggregates in PostgreSQL.
type PgxDailyAggregateRepository struct {
	BaseRepository
}

// NewPgxDailyAggregateRepository creates a daily aggregate repository over db.
func NewPgxDailyAggregateRepository(db DB) *PgxDailyAggregateRepository {
	return &PgxDailyAggregateRepository{BaseRepository: BaseRepository{Pool: db}}
}

// UpsertDailyAggregate reads the day's history for code and upserts its aggregate in one
// transaction. Running it twice for the same day yields the same row.
func (r *PgxDailyAggregateRepository) UpsertDailyAggregate(ctx context.Context, code string, date time.Time) (int64, error) {
	day := domain.TradeDate(date)

	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	rates, err := listRatesForDate(ctx, tx, code, day)
	if err != nil {
		return 0, err
	}
	agg, ok := domain.ComputeDailyAggregate(code, day, rates)
	if !ok {
		return 0, nil
	}
	m := mapping.ToModelDailyAggregate(agg)

	tag, err := tx.Exec(ctx, `
		INSERT INTO daily_exchange_rates (
			currency_code, trade_date, open_rate, close_rate, high_rate, low_rate,
			avg_rate, volatility, volume, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (currency_code, trade_date) DO UPDATE SET
			open_rate = EXCLUDED.open_rate,
			close_rate = EXCLUDED.close_rate,
			high_rate = EXCLUDED.high_rate,
			low_rate = EXCLUDED.low_rate,
			avg_rate = EXCLUDED.avg_rate,
			volatility = EXCLUDED.volatility,
			volume = EXCLUDED.volume,
			updated_at = NOW()`,
		m.CurrencyCode, m.TradeDate, m.OpenRate, m.CloseRate, m.HighRate, m.LowRate,
		m.AvgRate, m.Volatility, m.Volume,
	)
	if err != nil {
		return 0, apperrors.NewDatabaseError("upsert", aggregateTable, err)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListDailyAggregates returns aggregates of code with from <= trade_date <= to, oldest first.
func (r *PgxDailyAggregateRepository) ListDailyAggregates(ctx context.Context, code string, from, to time.Time) ([]domain.DailyAggregate, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT currency_code, trade_date, open_rate, close_rate, high_rate, low_rate,
			avg_rate, volatility, volume, updated_at
		FROM daily_exchange_rates
		WHERE currency_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date`,
		code, domain.TradeDate(from), domain.TradeDate(to),
	)
	if err != nil {
		return nil, apperrors.NewDatabaseError("select", aggregateTable, err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.DailyExchangeRate])
	if err != nil {
		return nil, apperrors.NewDatabaseError("scan", aggregateTable, err)
	}
	out := make([]domain.DailyAggregate, 0, len(ms))
	for _, m := range ms {
		out = append(out, mapping.ToDomainDailyAggregate(m))
	}
	return out, nil
}
