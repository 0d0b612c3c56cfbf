package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/apperrors"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	"github.com/SscSPs/rate_ingestor/internal/models"
	"github.com/SscSPs/rate_ingestor/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const historyTable = "exchange_rate_history"

// PgxExchangeRateRepository stores rate history in PostgreSQL.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// NewPgxExchangeRateRepository creates a rate history repository over db.
func NewPgxExchangeRateRepository(db DB) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{BaseRepository: BaseRepository{Pool: db}}
}

// InsertExchangeRate appends one history row.
func (r *PgxExchangeRateRepository) InsertExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	m := mapping.ToModelExchangeRate(rate)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO exchange_rate_history (
			currency_code, currency_name, deal_base_rate, tts, ttb, source, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.CurrencyCode, m.CurrencyName, m.DealBaseRate, m.TTS, m.TTB, m.Source, m.RecordedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError("insert", historyTable, err)
	}
	return nil
}

// FindRecentSimilar counts rows of code/source newer than since whose rate lies within
// rate*tolerance (exclusive), and returns the newest recorded_at among them.
func (r *PgxExchangeRateRepository) FindRecentSimilar(ctx context.Context, code, source string, since time.Time, rate, tolerance decimal.Decimal) (int64, time.Time, error) {
	var count int64
	var latest *time.Time
	err := r.Pool.QueryRow(ctx, `
		SELECT COUNT(*), MAX(recorded_at)
		FROM exchange_rate_history
		WHERE currency_code = $1
			AND source = $2
			AND recorded_at > $3
			AND ABS(deal_base_rate - $4::numeric) < ($4::numeric * $5::numeric)`,
		code, source, since.UTC(), rate, tolerance,
	).Scan(&count, &latest)
	if err != nil {
		return 0, time.Time{}, apperrors.NewDatabaseError("select similar", historyTable, err)
	}
	if latest == nil {
		return count, time.Time{}, nil
	}
	return count, latest.UTC(), nil
}

// FindLatest returns the latest row for code from the latest_exchange_rates view.
func (r *PgxExchangeRateRepository) FindLatest(ctx context.Context, code string) (*domain.ExchangeRate, error) {
	var m models.ExchangeRateHistory
	err := r.Pool.QueryRow(ctx, `
		SELECT currency_code, currency_name, deal_base_rate, tts, ttb, source, recorded_at, created_at
		FROM latest_exchange_rates
		WHERE currency_code = $1`,
		code,
	).Scan(&m.CurrencyCode, &m.CurrencyName, &m.DealBaseRate, &m.TTS, &m.TTB, &m.Source, &m.RecordedAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewDatabaseError("select latest", "latest_exchange_rates", err)
	}
	rate := mapping.ToDomainExchangeRate(m)
	return &rate, nil
}

// ListCurrencyCodesForDate returns the distinct codes recorded on the UTC date.
func (r *PgxExchangeRateRepository) ListCurrencyCodesForDate(ctx context.Context, date time.Time) ([]string, error) {
	day := domain.TradeDate(date)
	rows, err := r.Pool.Query(ctx, `
		SELECT DISTINCT currency_code
		FROM exchange_rate_history
		WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY currency_code`,
		day, day.AddDate(0, 0, 1),
	)
	if err != nil {
		return nil, apperrors.NewDatabaseError("select codes", historyTable, err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.NewDatabaseError("scan codes", historyTable, err)
	}
	return codes, nil
}

// DeleteOlderThan removes rows recorded strictly before cutoff.
func (r *PgxExchangeRateRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM exchange_rate_history WHERE recorded_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, apperrors.NewDatabaseError("delete", historyTable, err)
	}
	return tag.RowsAffected(), nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// listRatesForDate returns every row of code recorded on the UTC date, oldest first.
func listRatesForDate(ctx context.Context, q querier, code string, date time.Time) ([]domain.ExchangeRate, error) {
	day := domain.TradeDate(date)
	rows, err := q.Query(ctx, `
		SELECT id, currency_code, currency_name, deal_base_rate, tts, ttb, source, recorded_at, created_at
		FROM exchange_rate_history
		WHERE currency_code = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at, id`,
		code, day, day.AddDate(0, 0, 1),
	)
	if err != nil {
		return nil, apperrors.NewDatabaseError("select day", historyTable, err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ExchangeRateHistory])
	if err != nil {
		return nil, apperrors.NewDatabaseError("scan day", historyTable, err)
	}
	out := make([]domain.ExchangeRate, 0, len(ms))
	for _, m := range ms {
		out = append(out, mapping.ToDomainExchangeRate(m))
	}
	return out, nil
}
