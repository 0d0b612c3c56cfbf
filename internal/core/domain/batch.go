package domain

import "time"

// Stage names one step of batch processing.
type Stage string

const (
	StageReceived     Stage = "received"
	StageValidated    Stage = "validated"
	StageDeduplicated Stage = "deduplicated"
	StagePersisted    Stage = "persisted"
	StageCached       Stage = "cached"
	StageNotified     Stage = "notified"
	StageDone         Stage = "done"
)

// StageOutcome records how many items entered and left a stage and the stage error, if any.
type StageOutcome struct {
	Stage Stage  `json:"stage"`
	In    int    `json:"in"`
	Out   int    `json:"out"`
	Err   string `json:"error,omitempty"`
}

// BatchReport is the result of processing one CollectionResult.
type BatchReport struct {
	Source         string         `json:"source"`
	CorrelationID  string         `json:"correlation_id"`
	Received       int            `json:"received"`
	Valid          int            `json:"valid"`
	Unique         int            `json:"unique"`
	ProcessedCount int            `json:"processed_count"`
	Stages         []StageOutcome `json:"stages"`
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
}

// Record appends a stage outcome.
func (b *BatchReport) Record(stage Stage, in, out int, err error) {
	o := StageOutcome{Stage: stage, In: in, Out: out}
	if err != nil {
		o.Err = err.Error()
	}
	b.Stages = append(b.Stages, o)
}

// LastStage returns the final recorded stage, or "" for an empty report.
func (b BatchReport) LastStage() Stage {
	if len(b.Stages) == 0 {
		return ""
	}
	return b.Stages[len(b.Stages)-1].Stage
}
