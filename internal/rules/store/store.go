// Package store persists validation rules. The memory store backs tests and
// single-node deployments; the Postgres store is the durable backend, with
// condition trees and actions held as JSON documents.
package store

import (
	"context"

	"valido/internal/rules"
	"valido/pkg/platform/sentinel"
)

// ErrNotFound is returned when no rule carries the requested code.
var ErrNotFound = sentinel.ErrNotFound

// Store is the persistence port for validation rules.
type Store interface {
	// List returns every stored rule in evaluation order.
	List(ctx context.Context) ([]*rules.Rule, error)
	// ListForFile returns the rules applying to one file type, in
	// evaluation order, disabled rules excluded.
	ListForFile(ctx context.Context, fileType string) ([]*rules.Rule, error)
	// Get returns the rule with the given code.
	Get(ctx context.Context, code string) (*rules.Rule, error)
	// Put inserts or replaces a rule. The rule must validate.
	Put(ctx context.Context, rule *rules.Rule) error
	// Delete removes a rule by code.
	Delete(ctx context.Context, code string) error
}
