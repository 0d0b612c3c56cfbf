package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// Both storage drivers build one of these.
type RepositoryProvider struct {
	ExchangeRateRepo   ExchangeRateRepositoryFacade
	DailyAggregateRepo DailyAggregateRepositoryFacade
	// Close releases the backing store, may be nil.
	Close func()
}
