package validation

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// parallelThreshold is the line count below which sharding is not worth the
// coordination overhead.
const parallelThreshold = 256

// ValidateParallel shards the streaming pass across workers and merges the
// partial results in shard order, so the outcome is identical to Validate.
// Records carrying aggregate-aware rules are still evaluated once, after
// the merged reduction.
func (e *Engine) ValidateParallel(ctx context.Context, in Input, workers int) (*FileResult, error) {
	if workers <= 1 || len(in.Lines) < parallelThreshold {
		return e.Validate(ctx, in)
	}
	fs, plans, err := e.prepare(in)
	if err != nil {
		return nil, err
	}
	if in.At.IsZero() {
		in.At = time.Now()
	}

	shards := workers
	if shards > len(in.Lines) {
		shards = len(in.Lines)
	}
	chunk := (len(in.Lines) + shards - 1) / shards

	partials := make([]*runState, shards)
	g, gctx := errgroup.WithContext(ctx)
	for s := 0; s < shards; s++ {
		s := s
		start := s * chunk
		end := start + chunk
		if end > len(in.Lines) {
			end = len(in.Lines)
		}
		g.Go(func() error {
			run := newRunState(fs, plans, in)
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				run.processLine(i+1, in.Lines[i])
			}
			partials[s] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := newRunState(fs, plans, in)
	for _, partial := range partials {
		merged.absorb(partial)
	}
	return merged.finish()
}

// absorb folds a shard's partial state in. Shards are absorbed in input
// order, which keeps violations and counters deterministic.
func (r *runState) absorb(partial *runState) {
	r.result.TotalRecords += partial.result.TotalRecords
	r.result.ValidRecords += partial.result.ValidRecords
	r.result.InvalidRecords += partial.result.InvalidRecords
	for recordType, n := range partial.result.RecordCounts {
		r.result.RecordCounts[recordType] += n
	}
	for code, n := range partial.result.RuleHits {
		r.result.RuleHits[code] += n
	}
	r.result.Violations = append(r.result.Violations, partial.result.Violations...)
	for i, agg := range partial.aggregators {
		r.aggregators[i].merge(agg)
	}
	r.deferredRecs = append(r.deferredRecs, partial.deferredRecs...)
	for _, msg := range partial.result.RuleErrors {
		code, _, _ := strings.Cut(msg, ":")
		if r.ruleErrors[code] {
			continue
		}
		r.ruleErrors[code] = true
		r.result.RuleErrors = append(r.result.RuleErrors, msg)
	}
}
