package handler

import (
	"strings"

	dErrors "valido/pkg/domain-errors"
)

// maxLines bounds one validation request. Regulatory files run to tens of
// thousands of records; anything past this is almost certainly a misuse.
const maxLines = 500000

// ValidateRequest is the HTTP request body for POST /files/validate.
// Callers send either the pre-split lines or the raw file content.
type ValidateRequest struct {
	FileType string   `json:"file_type"`
	Lines    []string `json:"lines,omitempty"`
	Content  string   `json:"content,omitempty"`

	// Parsed values (populated by Validate)
	parsedLines []string
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ValidateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.FileType = strings.TrimSpace(strings.ToLower(r.FileType))
	if r.FileType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "file_type is required")
	}

	switch {
	case len(r.Lines) > 0 && r.Content != "":
		return dErrors.New(dErrors.CodeInvalidInput, "provide either lines or content, not both")
	case len(r.Lines) > 0:
		r.parsedLines = r.Lines
	case r.Content != "":
		r.parsedLines = splitContent(r.Content)
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "lines or content is required")
	}

	if len(r.parsedLines) > maxLines {
		return dErrors.Newf(dErrors.CodeInvalidInput, "file exceeds %d lines", maxLines)
	}
	return nil
}

// ParsedLines returns the normalized line slice.
func (r *ValidateRequest) ParsedLines() []string {
	return r.parsedLines
}

// splitContent splits raw file content into lines. Windows line endings
// are common in these files; a trailing final newline does not produce an
// empty last record.
func splitContent(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
