package domain

import "time"

// CollectionResult is the outcome of one fetch from one source. It is never persisted.
type CollectionResult struct {
	Source           string      `json:"source"`
	Success          bool        `json:"success"`
	RawData          []RawSample `json:"raw_data,omitempty"`
	ErrorMessage     string      `json:"error_message,omitempty"`
	CollectionTime   time.Time   `json:"collection_time"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
}
