package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"valido/internal/parser"
	"valido/internal/schema"
	"valido/pkg/identifier"
	"valido/pkg/money"
)

// Operator names a leaf comparison.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNe          Operator = "ne"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpMatches     Operator = "matches"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpEmpty       Operator = "empty"
	OpNotEmpty    Operator = "not_empty"
	OpBetween     Operator = "between"

	// Checksum operators verify the verification digit of identifier-typed
	// fields (CURP, RFC, NSS, CLABE). Both report false on empty fields:
	// absence is expressed with empty/not_empty, not as a checksum failure.
	OpChecksumValid   Operator = "checksum_valid"
	OpChecksumInvalid Operator = "checksum_invalid"
)

// Fields is the evaluation view of one record: field lookup by name.
// Synthetic aggregate fields (names starting with "@") resolve through the
// same lookup.
type Fields interface {
	Field(name string) parser.FieldValue
}

// Condition is one node of a rule's condition tree. Exactly one of the
// leaf form (Operator set), All, Any, or Not may be populated; Validate
// enforces the shape. The zero-children groups follow boolean identities:
// an empty All is true, an empty Any is false.
type Condition struct {
	Field    string   `json:"field,omitempty" yaml:"field,omitempty"`
	Operator Operator `json:"op,omitempty" yaml:"op,omitempty"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
	// Other names a second field to compare against instead of Value.
	Other string `json:"other,omitempty" yaml:"other,omitempty"`

	All []*Condition `json:"all,omitempty" yaml:"all,omitempty"`
	Any []*Condition `json:"any,omitempty" yaml:"any,omitempty"`
	Not *Condition   `json:"not,omitempty" yaml:"not,omitempty"`

	compiled *regexp.Regexp
}

// conditionWire is the JSON shape of a Condition. Pointers to the group
// slices keep an authored `all: []` distinguishable from an absent group,
// so an empty AND survives storage instead of collapsing into an invalid
// empty object.
type conditionWire struct {
	Field    string        `json:"field,omitempty"`
	Operator Operator      `json:"op,omitempty"`
	Value    any           `json:"value,omitempty"`
	Other    string        `json:"other,omitempty"`
	All      *[]*Condition `json:"all,omitempty"`
	Any      *[]*Condition `json:"any,omitempty"`
	Not      *Condition    `json:"not,omitempty"`
}

func (c Condition) MarshalJSON() ([]byte, error) {
	w := conditionWire{
		Field:    c.Field,
		Operator: c.Operator,
		Value:    c.Value,
		Other:    c.Other,
		Not:      c.Not,
	}
	if c.All != nil {
		w.All = &c.All
	}
	if c.Any != nil {
		w.Any = &c.Any
	}
	return json.Marshal(w)
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var w conditionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.Field = w.Field
	c.Operator = w.Operator
	c.Value = w.Value
	c.Other = w.Other
	c.Not = w.Not
	c.All = nil
	c.Any = nil
	if w.All != nil {
		c.All = *w.All
	}
	if w.Any != nil {
		c.Any = *w.Any
	}
	return nil
}

var knownOperators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpContains: true, OpNotContains: true, OpStartsWith: true, OpEndsWith: true,
	OpMatches: true, OpIn: true, OpNotIn: true, OpEmpty: true, OpNotEmpty: true,
	OpBetween: true, OpChecksumValid: true, OpChecksumInvalid: true,
}

var comparisonOperators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
}

// Validate checks the tree's shape and compiles regexp operands. It must be
// called once after loading and before Evaluate.
func (c *Condition) Validate() error {
	if c == nil {
		return fmt.Errorf("condition is nil")
	}
	forms := 0
	if c.Operator != "" {
		forms++
	}
	if c.All != nil {
		forms++
	}
	if c.Any != nil {
		forms++
	}
	if c.Not != nil {
		forms++
	}
	if forms != 1 {
		return fmt.Errorf("condition must be exactly one of a leaf, all, any, or not")
	}

	switch {
	case c.Not != nil:
		return c.Not.Validate()
	case c.All != nil:
		for i, child := range c.All {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("all[%d]: %w", i, err)
			}
		}
		return nil
	case c.Any != nil:
		for i, child := range c.Any {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("any[%d]: %w", i, err)
			}
		}
		return nil
	}
	return c.validateLeaf()
}

func (c *Condition) validateLeaf() error {
	if c.Field == "" {
		return fmt.Errorf("leaf condition needs a field")
	}
	if !knownOperators[c.Operator] {
		return fmt.Errorf("unknown operator %q", c.Operator)
	}

	switch c.Operator {
	case OpEmpty, OpNotEmpty, OpChecksumValid, OpChecksumInvalid:
		if c.Value != nil || c.Other != "" {
			return fmt.Errorf("operator %q takes no operand", c.Operator)
		}
	case OpBetween:
		bounds, ok := asList(c.Value)
		if !ok || len(bounds) != 2 {
			return fmt.Errorf("operator between needs a two-element list")
		}
	case OpIn, OpNotIn:
		entries, ok := asList(c.Value)
		if !ok || len(entries) == 0 {
			return fmt.Errorf("operator %q needs a non-empty list", c.Operator)
		}
	case OpMatches:
		pattern, ok := c.Value.(string)
		if !ok || pattern == "" {
			return fmt.Errorf("operator matches needs a pattern string")
		}
		compiled, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return fmt.Errorf("operator matches: %w", err)
		}
		c.compiled = compiled
	default:
		if c.Other != "" {
			if !comparisonOperators[c.Operator] {
				return fmt.Errorf("operator %q cannot compare two fields", c.Operator)
			}
			if c.Value != nil {
				return fmt.Errorf("condition cannot set both value and other")
			}
		} else if c.Value == nil {
			return fmt.Errorf("operator %q needs an operand", c.Operator)
		}
	}
	return nil
}

// UsesSyntheticFields reports whether any leaf reads an aggregate ("@")
// field. Rules that do can only run after the file's reduction pass.
func (c *Condition) UsesSyntheticFields() bool {
	switch {
	case c.Not != nil:
		return c.Not.UsesSyntheticFields()
	case c.All != nil:
		for _, child := range c.All {
			if child.UsesSyntheticFields() {
				return true
			}
		}
		return false
	case c.Any != nil:
		for _, child := range c.Any {
			if child.UsesSyntheticFields() {
				return true
			}
		}
		return false
	}
	return strings.HasPrefix(c.Field, "@") || strings.HasPrefix(c.Other, "@")
}

// Evaluate walks the tree against one record. It is pure: same record, same
// result. Group evaluation short-circuits. Malformed operands that Validate
// could not catch statically (a non-numeric operand against a numeric field)
// surface as errors, never as a silent false.
func (c *Condition) Evaluate(rec Fields, at time.Time) (bool, error) {
	switch {
	case c.Not != nil:
		ok, err := c.Not.Evaluate(rec, at)
		return !ok, err
	case c.All != nil:
		for _, child := range c.All {
			ok, err := child.Evaluate(rec, at)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case c.Any != nil:
		for _, child := range c.Any {
			ok, err := child.Evaluate(rec, at)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return c.evaluateLeaf(rec, at)
}

func (c *Condition) evaluateLeaf(rec Fields, at time.Time) (bool, error) {
	fv := rec.Field(c.Field)

	switch c.Operator {
	case OpEmpty:
		return fv.State == parser.StateEmpty, nil
	case OpNotEmpty:
		return fv.State != parser.StateEmpty, nil
	case OpChecksumValid, OpChecksumInvalid:
		return c.evaluateChecksum(fv, at)
	}

	// Every remaining operator inspects the field's value. A field that is
	// absent or unreadable has no value to compare, so the leaf is false;
	// rule authors pair these operators with not_empty when absence matters.
	if fv.State != parser.StateOK {
		return false, nil
	}

	if c.Other != "" {
		return c.evaluateFieldPair(fv, rec.Field(c.Other))
	}

	switch c.Operator {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
		cmp, err := compareToOperand(fv, c.Value)
		if err != nil {
			return false, fmt.Errorf("field %q: %w", c.Field, err)
		}
		return applyComparison(c.Operator, cmp), nil
	case OpBetween:
		bounds, _ := asList(c.Value)
		low, err := compareToOperand(fv, bounds[0])
		if err != nil {
			return false, fmt.Errorf("field %q: %w", c.Field, err)
		}
		high, err := compareToOperand(fv, bounds[1])
		if err != nil {
			return false, fmt.Errorf("field %q: %w", c.Field, err)
		}
		return low >= 0 && high <= 0, nil
	case OpContains:
		return strings.Contains(fv.Text, asString(c.Value)), nil
	case OpNotContains:
		return !strings.Contains(fv.Text, asString(c.Value)), nil
	case OpStartsWith:
		return strings.HasPrefix(fv.Text, asString(c.Value)), nil
	case OpEndsWith:
		return strings.HasSuffix(fv.Text, asString(c.Value)), nil
	case OpMatches:
		return c.compiled.MatchString(fv.Text), nil
	case OpIn, OpNotIn:
		entries, _ := asList(c.Value)
		found := false
		for _, entry := range entries {
			if fv.Text == asString(entry) {
				found = true
				break
			}
		}
		if c.Operator == OpIn {
			return found, nil
		}
		return !found, nil
	}
	return false, fmt.Errorf("unknown operator %q", c.Operator)
}

func (c *Condition) evaluateChecksum(fv parser.FieldValue, at time.Time) (bool, error) {
	if fv.State == parser.StateEmpty {
		return false, nil
	}
	kind, err := checksumKind(fv.Type)
	if err != nil {
		return false, fmt.Errorf("field %q: %w", c.Field, err)
	}
	valid := identifier.IsValidKind(kind, fv.Text, at)
	if c.Operator == OpChecksumValid {
		return valid, nil
	}
	return !valid, nil
}

func checksumKind(t schema.FieldType) (identifier.Kind, error) {
	switch t {
	case schema.TypeCURP:
		return identifier.KindCURP, nil
	case schema.TypeRFC:
		return identifier.KindRFC, nil
	case schema.TypeNSS:
		return identifier.KindNSS, nil
	case schema.TypeCLABE:
		return identifier.KindCLABE, nil
	}
	return "", fmt.Errorf("type %q has no checksum", t)
}

// evaluateFieldPair compares two field values with typed semantics: currency
// and integer compare numerically (an integer widens to centavos against a
// currency), dates compare chronologically, everything else textually. A
// pair where either side lacks a value is false.
func (c *Condition) evaluateFieldPair(fv, ov parser.FieldValue) (bool, error) {
	if fv.State != parser.StateOK || ov.State != parser.StateOK {
		return false, nil
	}
	cmp, err := compareFields(fv, ov)
	if err != nil {
		return false, fmt.Errorf("fields %q and %q: %w", c.Field, c.Other, err)
	}
	return applyComparison(c.Operator, cmp), nil
}

func compareFields(fv, ov parser.FieldValue) (int, error) {
	switch {
	case fv.Type == schema.TypeCurrency && ov.Type == schema.TypeCurrency:
		return compareInt64(fv.Cents, ov.Cents), nil
	case fv.Type == schema.TypeCurrency && ov.Type == schema.TypeInteger:
		return compareInt64(fv.Cents, ov.Int*100), nil
	case fv.Type == schema.TypeInteger && ov.Type == schema.TypeCurrency:
		return compareInt64(fv.Int*100, ov.Cents), nil
	case fv.Type == schema.TypeInteger && ov.Type == schema.TypeInteger:
		return compareInt64(fv.Int, ov.Int), nil
	case fv.Type == schema.TypeDate && ov.Type == schema.TypeDate:
		switch {
		case fv.Date.Before(ov.Date):
			return -1, nil
		case fv.Date.After(ov.Date):
			return 1, nil
		}
		return 0, nil
	case fv.Type == schema.TypeDate || ov.Type == schema.TypeDate:
		return 0, fmt.Errorf("cannot compare a date with type %q", ov.Type)
	}
	return strings.Compare(fv.Text, ov.Text), nil
}

// compareToOperand compares a field value against a literal rule operand,
// coercing the operand to the field's type: centavos for currency, int64
// for integers, YYYYMMDD for dates, text otherwise.
func compareToOperand(fv parser.FieldValue, operand any) (int, error) {
	switch fv.Type {
	case schema.TypeCurrency:
		cents, err := operandCents(operand)
		if err != nil {
			return 0, err
		}
		return compareInt64(fv.Cents, cents), nil
	case schema.TypeInteger:
		n, err := operandInt(operand)
		if err != nil {
			return 0, err
		}
		return compareInt64(fv.Int, n), nil
	case schema.TypeDate:
		when, err := operandDate(operand)
		if err != nil {
			return 0, err
		}
		switch {
		case fv.Date.Before(when):
			return -1, nil
		case fv.Date.After(when):
			return 1, nil
		}
		return 0, nil
	}
	return strings.Compare(fv.Text, asString(operand)), nil
}

func applyComparison(op Operator, cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// operandCents parses a rule operand as a monetary amount in centavos,
// rounding half to even like every other amount in the system.
func operandCents(operand any) (int64, error) {
	amount, err := money.Parse(asString(operand), money.MXN)
	if err != nil {
		return 0, fmt.Errorf("operand %v is not a monetary amount", operand)
	}
	return amount.Cents(), nil
}

func operandInt(operand any) (int64, error) {
	switch v := operand.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float64:
		n := int64(v)
		if float64(n) != v {
			return 0, fmt.Errorf("operand %v is not an integer", operand)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("operand %q is not an integer", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("operand %v is not an integer", operand)
}

func operandDate(operand any) (time.Time, error) {
	s := asString(operand)
	when, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("operand %q is not a YYYYMMDD date", s)
	}
	return when, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// asList accepts the slice shapes the YAML and JSON decoders produce.
func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
