package handler

import (
	"strings"

	dErrors "valido/pkg/domain-errors"
)

// ScreenRequest is the HTTP request body for POST /screening/identifiers.
type ScreenRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ScreenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Kind = strings.TrimSpace(r.Kind)
	if r.Kind == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "kind is required")
	}

	r.Value = strings.TrimSpace(r.Value)
	if r.Value == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "value is required")
	}
	if len(r.Value) > 64 {
		return dErrors.New(dErrors.CodeInvalidInput, "value must be at most 64 characters")
	}
	return nil
}
