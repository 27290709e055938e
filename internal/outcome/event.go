// Package outcome carries validation run outcomes to downstream consumers.
//
// The validation service emits one Event per run through a buffered inbox;
// a background worker drains the inbox into a Sink (Kafka in production, a
// log sink when no brokers are configured). Emission is fire-and-forget:
// a full inbox or a sink failure never fails the validation request.
package outcome

import "time"

// Event summarizes one validation run. Keep it transport-agnostic so sinks
// can fan out.
type Event struct {
	RunID          string    `json:"run_id"`
	FileType       string    `json:"file_type"`
	Valid          bool      `json:"valid"`
	TotalRecords   int       `json:"total_records"`
	InvalidRecords int       `json:"invalid_records"`
	ViolationCount int       `json:"violation_count"`
	ViolatedCodes  []string  `json:"violated_codes,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
