package outcome

import (
	"context"
	"log/slog"
	"time"

	dErrors "valido/pkg/domain-errors"
)

// Sink delivers events to their final destination.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher accepts events into a buffered inbox without blocking callers.
type Publisher struct {
	inbox chan Event
}

// NewPublisher creates a publisher with a bounded inbox. The returned
// channel side is consumed by a Worker.
func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{inbox: make(chan Event, buffer)}
}

// Emit enqueues an event. When the inbox is full the event is dropped and
// an error returned so the caller can log the loss; validation itself must
// never wait on the outcome pipeline.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return dErrors.New(dErrors.CodeUnavailable, "outcome inbox full, event dropped")
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Worker drains an event inbox into a sink.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run consumes events until the context is cancelled. Sink failures are
// logged and the event is dropped; the worker keeps running.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to publish outcome event",
					"run_id", event.RunID,
					"file_type", event.FileType,
					"error", err,
				)
			}
		}
	}
}

// LogSink writes events to the structured log. Used when no brokers are
// configured so local runs still surface outcomes.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "validation outcome",
		"run_id", event.RunID,
		"file_type", event.FileType,
		"valid", event.Valid,
		"total_records", event.TotalRecords,
		"invalid_records", event.InvalidRecords,
		"violation_count", event.ViolationCount,
	)
	return nil
}
