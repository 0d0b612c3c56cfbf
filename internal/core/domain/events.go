package domain

import "time"

// EventType names a notification channel. Subscribers attach by name.
type EventType string

const (
	EventNewDataReceived         EventType = "new_data_received"
	EventExchangeRateUpdated     EventType = "exchange_rate_updated"
	EventDataProcessingCompleted EventType = "data_processing_completed"
	EventCacheInvalidation       EventType = "cache_invalidation"
)

// NewDataReceivedEvent is emitted once per processed batch.
type NewDataReceivedEvent struct {
	EventID          string    `json:"event_id"`
	Source           string    `json:"source"`
	DataCount        int       `json:"data_count"`
	CollectionTime   time.Time `json:"collection_time"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CorrelationID    string    `json:"correlation_id"`
}

// ExchangeRateUpdatedEvent is emitted once per accepted record. Consumers should treat
// (currency_code, recorded_at) as the idempotency key.
type ExchangeRateUpdatedEvent struct {
	EventID      string    `json:"event_id"`
	CurrencyCode string    `json:"currency_code"`
	CurrencyName string    `json:"currency_name"`
	DealBaseRate float64   `json:"deal_base_rate"`
	TTS          float64   `json:"tts"`
	TTB          float64   `json:"ttb"`
	Source       string    `json:"source"`
	RecordedAt   time.Time `json:"recorded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DataProcessingCompletedEvent closes a batch with its counts and latency.
type DataProcessingCompletedEvent struct {
	EventID          string    `json:"event_id"`
	Source           string    `json:"source"`
	TotalReceived    int       `json:"total_received"`
	TotalValid       int       `json:"total_valid"`
	TotalProcessed   int       `json:"total_processed"`
	TotalSaved       int       `json:"total_saved"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CompletedAt      time.Time `json:"completed_at"`
	CorrelationID    string    `json:"correlation_id"`
}

// CacheInvalidationEvent lists cache keys touched by a batch.
type CacheInvalidationEvent struct {
	EventID          string    `json:"event_id"`
	CacheKeys        []string  `json:"cache_keys"`
	InvalidationType string    `json:"invalidation_type"`
	InvalidatedAt    time.Time `json:"invalidated_at"`
}
