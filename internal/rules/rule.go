// Package rules holds the data-driven validation rule model: a rule names
// the file and record types it applies to, a condition tree over the
// record's fields, and the action taken when the condition holds. Rules are
// pure data; evaluation is side-effect free.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ActionKind is what a triggered rule does to the file's outcome.
type ActionKind string

const (
	// ActionReject marks the record and file invalid.
	ActionReject ActionKind = "reject"
	// ActionWarn reports the finding without failing the file.
	ActionWarn ActionKind = "warn"
	// ActionLog records the finding for audit only.
	ActionLog ActionKind = "log"
)

// Severity is the reported weight of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Severity maps the action to its reported finding severity.
func (k ActionKind) Severity() Severity {
	switch k {
	case ActionReject:
		return SeverityError
	case ActionWarn:
		return SeverityWarning
	}
	return SeverityInfo
}

// Action describes what happens when a rule's condition holds.
type Action struct {
	Kind ActionKind `json:"kind" yaml:"kind"`
	// Code is the violation code reported to the submitter. Defaults to the
	// rule's own code when empty.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`
	// Message may reference record fields as {field_name}; synthetic
	// aggregate fields as {@name}.
	Message  string            `json:"message" yaml:"message"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Rule is one validation rule.
type Rule struct {
	Code        string   `json:"code" yaml:"code"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	FileTypes   []string `json:"file_types" yaml:"file_types"`
	// RecordTypes are the discriminator values this rule evaluates against;
	// empty means every record type.
	RecordTypes []string `json:"record_types,omitempty" yaml:"record_types,omitempty"`
	// Order sequences evaluation within a record; ties break on Code.
	Order    int        `json:"order,omitempty" yaml:"order,omitempty"`
	Disabled bool       `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	When     *Condition `json:"when" yaml:"when"`
	Action   Action     `json:"action" yaml:"action"`
}

var ruleCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*(-[A-Z0-9]+)*$`)

// Validate checks the rule is well formed and compiles its condition tree.
func (r *Rule) Validate() error {
	if r.Code == "" {
		return fmt.Errorf("rule needs a code")
	}
	if !ruleCodePattern.MatchString(r.Code) {
		return fmt.Errorf("rule code %q must be upper-case segments joined by hyphens", r.Code)
	}
	if len(r.FileTypes) == 0 {
		return fmt.Errorf("rule %s: needs at least one file type", r.Code)
	}
	switch r.Action.Kind {
	case ActionReject, ActionWarn, ActionLog:
	default:
		return fmt.Errorf("rule %s: unknown action kind %q", r.Code, r.Action.Kind)
	}
	if r.When == nil {
		return fmt.Errorf("rule %s: needs a condition", r.Code)
	}
	if err := r.When.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.Code, err)
	}
	return nil
}

// AppliesTo reports whether the rule evaluates against records of the given
// file and record type.
func (r *Rule) AppliesTo(fileType, recordType string) bool {
	if r.Disabled {
		return false
	}
	if !containsString(r.FileTypes, fileType) {
		return false
	}
	return len(r.RecordTypes) == 0 || containsString(r.RecordTypes, recordType)
}

// ViolationCode is the code reported when the rule triggers.
func (r *Rule) ViolationCode() string {
	if r.Action.Code != "" {
		return r.Action.Code
	}
	return r.Code
}

var messagePlaceholder = regexp.MustCompile(`\{(@?[a-z][a-z0-9_]*)\}`)

// RenderMessage expands {field_name} placeholders in the action message with
// the record's field text. Unknown fields expand to an empty string.
func (r *Rule) RenderMessage(rec Fields) string {
	if !strings.Contains(r.Action.Message, "{") {
		return r.Action.Message
	}
	return messagePlaceholder.ReplaceAllStringFunc(r.Action.Message, func(match string) string {
		name := match[1 : len(match)-1]
		return rec.Field(name).Text
	})
}

// Sort orders rules for evaluation: ascending Order, then Code.
func Sort(list []*Rule) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].Code < list[j].Code
	})
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
