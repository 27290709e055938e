package handler

import (
	"time"

	"valido/internal/validation"
)

// ValidateResponse is the HTTP response for POST /files/validate.
type ValidateResponse struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	DurationMS int64               `json:"duration_ms"`
	Summary    SummaryResponse     `json:"summary"`
	Violations []ViolationResponse `json:"violations"`
}

// SummaryResponse is the per-file roll-up portion of the response.
type SummaryResponse struct {
	FileType       string           `json:"file_type"`
	Valid          bool             `json:"valid"`
	TotalRecords   int              `json:"total_records"`
	ValidRecords   int              `json:"valid_records"`
	InvalidRecords int              `json:"invalid_records"`
	RecordCounts   map[string]int   `json:"record_counts"`
	RuleHits       map[string]int   `json:"rule_hits,omitempty"`
	ViolatedCodes  []string         `json:"violated_codes,omitempty"`
	Aggregates     map[string]int64 `json:"aggregates,omitempty"`
	RuleErrors     []string         `json:"rule_errors,omitempty"`
}

// ViolationResponse is one finding in the response.
type ViolationResponse struct {
	LineNumber int    `json:"line_number"`
	RuleCode   string `json:"rule_code,omitempty"`
	Field      string `json:"field,omitempty"`
	Severity   string `json:"severity"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Observed   string `json:"observed,omitempty"`
	Expected   string `json:"expected,omitempty"`
}

// SchemasResponse is the HTTP response for GET /files/schemas.
type SchemasResponse struct {
	Schemas []validation.SchemaInfo `json:"schemas"`
}

// FromReport converts a domain Report to an HTTP response.
func FromReport(report *validation.Report) *ValidateResponse {
	result := report.Result
	violations := make([]ViolationResponse, 0, len(result.Violations))
	for _, v := range result.Violations {
		violations = append(violations, ViolationResponse{
			LineNumber: v.LineNumber,
			RuleCode:   v.RuleCode,
			Field:      v.Field,
			Severity:   string(v.Severity),
			Kind:       string(v.Kind),
			Message:    v.Message,
			Observed:   v.Observed,
			Expected:   v.Expected,
		})
	}

	return &ValidateResponse{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		DurationMS: report.DurationMS,
		Summary: SummaryResponse{
			FileType:       result.FileType,
			Valid:          result.Valid,
			TotalRecords:   result.TotalRecords,
			ValidRecords:   result.ValidRecords,
			InvalidRecords: result.InvalidRecords,
			RecordCounts:   result.RecordCounts,
			RuleHits:       result.RuleHits,
			ViolatedCodes:  result.ViolatedCodes,
			Aggregates:     result.Aggregates,
			RuleErrors:     result.RuleErrors,
		},
		Violations: violations,
	}
}
