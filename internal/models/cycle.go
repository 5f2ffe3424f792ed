package models

import "time"

// Trigger says what started a cycle
type Trigger string

const (
	TriggerTimer  Trigger = "timer"
	TriggerManual Trigger = "manual"
)

// Cycle status values stored in the history database
const (
	CycleStatusStarted   = "STARTED"
	CycleStatusCompleted = "COMPLETED"
	CycleStatusFailed    = "FAILED"
)

// EntityResult is the outcome of one entity within a cycle
type EntityResult struct {
	Kind    EntityKind `json:"kind"`
	Key     string     `json:"key"`
	Outcome Outcome    `json:"outcome"`
	Marker  string     `json:"marker,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// CycleSummary aggregates one pass over a monitor group
type CycleSummary struct {
	ID         string         `json:"id"`
	Group      EntityKind     `json:"group"`
	Trigger    Trigger        `json:"trigger"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Status     string         `json:"status"`
	Results    []EntityResult `json:"results,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Count returns how many results ended with outcome
func (c CycleSummary) Count(outcome Outcome) int {
	n := 0
	for _, r := range c.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// Event is pushed to live dashboard subscribers
type Event struct {
	Type    string        `json:"type"`
	Time    time.Time     `json:"time"`
	Cycle   *CycleSummary `json:"cycle,omitempty"`
	Result  *EntityResult `json:"result,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Event types
const (
	EventCycleStarted  = "cycle_started"
	EventCycleFinished = "cycle_finished"
	EventEntityResult  = "entity_result"
)
