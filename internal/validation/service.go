package validation

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RuleSource,OutcomePublisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"valido/internal/outcome"
	"valido/internal/rules"
	"valido/internal/validation/metrics"
	dErrors "valido/pkg/domain-errors"
	"valido/pkg/requestcontext"
)

// RuleSource supplies the rule set for a file type. Nil means the built-in
// pack; the Postgres store satisfies this when rules are managed externally.
type RuleSource interface {
	ListForFile(ctx context.Context, fileType string) ([]*rules.Rule, error)
}

// OutcomePublisher receives the summary event after each run.
type OutcomePublisher interface {
	Emit(ctx context.Context, event outcome.Event) error
}

// Report wraps a file result with run bookkeeping.
type Report struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMS int64       `json:"duration_ms"`
	Result     *FileResult `json:"result"`
}

// Service orchestrates validation runs: rule loading, engine execution,
// metrics, logging, and outcome emission.
type Service struct {
	engine    *Engine
	ruleSrc   RuleSource
	logger    *slog.Logger
	publisher OutcomePublisher
	metrics   *metrics.Metrics
	workers   int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithRuleSource(src RuleSource) Option {
	return func(s *Service) {
		s.ruleSrc = src
	}
}

func WithOutcomePublisher(publisher OutcomePublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithWorkers enables the parallel path for large files. Values below 2
// keep the sequential path.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

// NewService constructs a Service around an engine.
func NewService(engine *Engine, opts ...Option) *Service {
	s := &Service{engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ValidateFile runs one validation pass over the given lines and returns
// the full report. The run always completes on malformed content; only an
// unknown file type, an unreachable rule source, or cancellation error out.
func (s *Service) ValidateFile(ctx context.Context, fileType string, lines []string) (*Report, error) {
	runID := uuid.NewString()
	startedAt := requestcontext.Now(ctx)

	ruleset, err := s.loadRules(ctx, fileType)
	if err != nil {
		s.metrics.IncrementRun(fileType, "error")
		return nil, err
	}

	in := Input{FileType: fileType, Lines: lines, At: startedAt, Rules: ruleset}

	var result *FileResult
	if s.workers > 1 {
		result, err = s.engine.ValidateParallel(ctx, in, s.workers)
	} else {
		result, err = s.engine.Validate(ctx, in)
	}
	duration := time.Since(startedAt)
	if err != nil {
		s.metrics.IncrementRun(fileType, "error")
		s.logger.ErrorContext(ctx, "validation run failed",
			"run_id", runID,
			"file_type", fileType,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}

	s.observe(fileType, result, lines, duration)
	s.logger.InfoContext(ctx, "validation run completed",
		"run_id", runID,
		"file_type", fileType,
		"request_id", requestcontext.RequestID(ctx),
		"total_records", result.TotalRecords,
		"invalid_records", result.InvalidRecords,
		"violations", len(result.Violations),
		"valid", result.Valid,
		"duration_ms", duration.Milliseconds(),
	)
	s.emitOutcome(ctx, runID, startedAt, result)

	return &Report{
		RunID:      runID,
		StartedAt:  startedAt,
		DurationMS: duration.Milliseconds(),
		Result:     result,
	}, nil
}

func (s *Service) loadRules(ctx context.Context, fileType string) ([]*rules.Rule, error) {
	if s.ruleSrc == nil {
		// Engine falls back to the built-in pack.
		return nil, nil
	}
	ruleset, err := s.ruleSrc.ListForFile(ctx, fileType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rules")
	}
	if ruleset == nil {
		// A configured source with nothing for this file type means zero
		// rules, not a fallback to the built-in pack.
		ruleset = []*rules.Rule{}
	}
	return ruleset, nil
}

func (s *Service) observe(fileType string, result *FileResult, lines []string, d time.Duration) {
	outcomeLabel := "valid"
	if !result.Valid {
		outcomeLabel = "invalid"
	}
	s.metrics.IncrementRun(fileType, outcomeLabel)
	s.metrics.ObserveLines(len(lines))
	s.metrics.ObserveRunLatency(d)

	bySeverity := map[rules.Severity]int{}
	for _, v := range result.Violations {
		bySeverity[v.Severity]++
	}
	for severity, n := range bySeverity {
		s.metrics.AddViolations(fileType, string(severity), n)
	}
}

func (s *Service) emitOutcome(ctx context.Context, runID string, at time.Time, result *FileResult) {
	if s.publisher == nil {
		return
	}
	event := outcome.Event{
		RunID:          runID,
		FileType:       result.FileType,
		Valid:          result.Valid,
		TotalRecords:   result.TotalRecords,
		InvalidRecords: result.InvalidRecords,
		ViolationCount: len(result.Violations),
		ViolatedCodes:  result.ViolatedCodes,
		OccurredAt:     at,
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit outcome event",
			"run_id", runID,
			"error", err,
		)
	}
}

// SchemaInfo describes one supported file layout for the catalog listing.
type SchemaInfo struct {
	FileType    string   `json:"file_type"`
	Description string   `json:"description,omitempty"`
	LineLength  int      `json:"line_length"`
	RecordTypes []string `json:"record_types"`
	Aggregates  []string `json:"aggregates,omitempty"`
}

// Schemas lists the supported file layouts, sorted by file type.
func (s *Service) Schemas() []SchemaInfo {
	return s.engine.Schemas()
}
