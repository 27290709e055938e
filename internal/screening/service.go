// Package screening validates standalone identifiers outside the context of
// a file run: a CURP, RFC, NSS, or CLABE is screened on its own and the
// verdict cached, since the same identifiers recur across submissions.
package screening

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"valido/internal/screening/metrics"
	dErrors "valido/pkg/domain-errors"
	"valido/pkg/identifier"
	"valido/pkg/requestcontext"
)

// Result is the verdict for one screened identifier.
type Result struct {
	Kind       identifier.Kind `json:"kind"`
	Normalized string          `json:"normalized"`
	Valid      bool            `json:"valid"`
	// Reason classifies the failure; empty when valid.
	Reason     string            `json:"reason,omitempty"`
	Components map[string]string `json:"components,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// Cache stores screening results keyed by kind and raw value. Implementations
// must treat misses and backend failures as distinct: a failure makes the
// service fall through to a fresh check.
type Cache interface {
	Get(ctx context.Context, kind identifier.Kind, value string) (*Result, error)
	Set(ctx context.Context, kind identifier.Kind, value string, result *Result) error
}

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("screening cache miss")

// Service screens identifiers with an optional read-through cache.
type Service struct {
	cache   Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs a Service.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Screen validates one identifier. Cache outages are logged and bypassed;
// the check itself never depends on the cache being up.
func (s *Service) Screen(ctx context.Context, kindRaw, value string) (*Result, error) {
	kind, err := identifier.ParseKind(kindRaw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, err.Error())
	}
	if value == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "value is required")
	}

	if cached := s.fromCache(ctx, kind, value); cached != nil {
		return cached, nil
	}

	at := requestcontext.Now(ctx)
	result := screen(kind, value, at)
	s.metrics.IncrementScreen(string(kind), result.Valid)

	s.toCache(ctx, kind, value, result)
	return result, nil
}

func (s *Service) fromCache(ctx context.Context, kind identifier.Kind, value string) *Result {
	if s.cache == nil {
		return nil
	}
	result, err := s.cache.Get(ctx, kind, value)
	switch {
	case err == nil:
		s.metrics.IncrementCache("hit")
		return result
	case errors.Is(err, ErrCacheMiss):
		s.metrics.IncrementCache("miss")
		return nil
	default:
		// Fail open: a cache outage degrades to fresh checks.
		s.metrics.IncrementCache("error")
		s.logger.WarnContext(ctx, "screening cache read failed, bypassing",
			"kind", kind,
			"error", err,
		)
		return nil
	}
}

func (s *Service) toCache(ctx context.Context, kind identifier.Kind, value string, result *Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, kind, value, result); err != nil {
		s.metrics.IncrementCache("error")
		s.logger.WarnContext(ctx, "screening cache write failed",
			"kind", kind,
			"error", err,
		)
	}
}

func screen(kind identifier.Kind, value string, at time.Time) *Result {
	result := &Result{Kind: kind, CheckedAt: at}

	var parseErr error
	switch kind {
	case identifier.KindCURP:
		curp, err := identifier.ParseCURPAt(value, at)
		if err == nil {
			result.Normalized = curp.String()
			result.Components = map[string]string{
				"birth_date": curp.BirthDate().Format("2006-01-02"),
				"sex":        curp.Sex(),
				"state_code": curp.StateCode(),
			}
		}
		parseErr = err
	case identifier.KindRFC:
		rfc, err := identifier.ParseRFCAt(value, at)
		if err == nil {
			result.Normalized = rfc.String()
			taxpayer := "fisica"
			if rfc.IsPersonaMoral() {
				taxpayer = "moral"
			}
			result.Components = map[string]string{
				"taxpayer_type":   taxpayer,
				"registered_date": rfc.Date().Format("2006-01-02"),
			}
		}
		parseErr = err
	case identifier.KindNSS:
		nss, err := identifier.ParseNSS(value)
		if err == nil {
			result.Normalized = nss.String()
			result.Components = map[string]string{
				"subdelegation":   nss.SubdelegationCode(),
				"enrollment_year": nss.EnrollmentYear(),
				"birth_year":      nss.BirthYear(),
			}
		}
		parseErr = err
	case identifier.KindCLABE:
		clabe, err := identifier.ParseCLABE(value)
		if err == nil {
			result.Normalized = clabe.String()
			result.Components = map[string]string{
				"bank_code":      clabe.BankCode(),
				"branch_code":    clabe.BranchCode(),
				"account_number": clabe.AccountNumber(),
			}
		}
		parseErr = err
	}

	if parseErr != nil {
		var pe *identifier.ParseError
		if errors.As(parseErr, &pe) {
			result.Reason = string(pe.Reason)
		} else {
			result.Reason = parseErr.Error()
		}
		return result
	}

	result.Valid = true
	return result
}
