package pgsql

import (
	portsrepo "github.com/SscSPs/rate_ingestor/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider builds the PostgreSQL-backed repositories.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ExchangeRateRepo:   NewPgxExchangeRateRepository(dbPool),
		DailyAggregateRepo: NewPgxDailyAggregateRepository(dbPool),
		Close:              dbPool.Close,
	}
}

var (
	_ portsrepo.ExchangeRateRepositoryFacade   = (*PgxExchangeRateRepository)(nil)
	_ portsrepo.DailyAggregateRepositoryFacade = (*PgxDailyAggregateRepository)(nil)
	_ portsrepo.TransactionManager             = (*BaseRepository)(nil)
	_ DB                                       = (*pgxpool.Pool)(nil)
)
