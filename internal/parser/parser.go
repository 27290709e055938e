// Package parser extracts typed field maps from raw fixed-width lines.
//
// Parsing is a pure function of line + schema + evaluation instant: no I/O,
// no clock reads, no shared state. Malformed input never fails the call;
// it is recorded on the returned record as structural or field violations.
// Checksum identifier fields are extracted as plain text here; their
// verification-digit validation belongs to the rule layer so failures
// surface under the owning rule's code.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"valido/internal/schema"
)

// ViolationKind separates line-shape failures from field-content failures.
type ViolationKind string

const (
	KindStructural ViolationKind = "structural"
	KindField      ViolationKind = "field"
)

// Violation is a parse-time finding on one record.
type Violation struct {
	Kind     ViolationKind
	Field    string // empty for structural violations
	Message  string
	Observed string
	Expected string
}

// ValueState distinguishes an absent value from one that was present but
// could not be read as its declared type. Rules must be able to tell
// "unparseable" apart from "valid zero".
type ValueState string

const (
	StateOK       ValueState = "ok"
	StateEmpty    ValueState = "empty"
	StateUnparsed ValueState = "unparsed"
)

// FieldValue is one extracted field. Raw preserves the pre-trim slice for
// diagnostics; the typed members are set only when State is StateOK.
type FieldValue struct {
	Type  schema.FieldType
	State ValueState
	Raw   string
	Text  string
	Int   int64
	Cents int64 // currency fields, minor units
	Date  time.Time
	Bool  bool
}

// Empty reports whether the value is absent.
func (v FieldValue) Empty() bool { return v.State == StateEmpty }

// ParsedRecord is the typed view of one physical line.
type ParsedRecord struct {
	LineNumber int // 1-indexed
	RecordType string
	Fields     map[string]FieldValue
	Raw        string // original line, kept when requested
	Valid      bool
	Violations []Violation
}

// Field returns the named field value; absent names read as an empty value
// so condition evaluation never distinguishes "missing" from "blank".
func (r *ParsedRecord) Field(name string) FieldValue {
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return FieldValue{State: StateEmpty}
}

func (r *ParsedRecord) addViolation(v Violation) {
	r.Violations = append(r.Violations, v)
	r.Valid = false
}

// Options tune parsing behavior per call site.
type Options struct {
	// KeepRaw retains the original line on the record for diagnostics.
	KeepRaw bool
	// At is the evaluation instant for date checks; zero means time.Now().
	At time.Time
}

func (o Options) at() time.Time {
	if o.At.IsZero() {
		return time.Now()
	}
	return o.At
}

// Parse applies a file schema to one raw line.
func Parse(fs *schema.FileSchema, lineNumber int, line string, opts Options) ParsedRecord {
	record := ParsedRecord{
		LineNumber: lineNumber,
		Fields:     map[string]FieldValue{},
		Valid:      true,
	}
	if opts.KeepRaw {
		record.Raw = line
	}

	disc, ok := fs.Discriminator(line)
	if !ok {
		record.addViolation(Violation{
			Kind:     KindStructural,
			Message:  "line too short to carry a record type",
			Observed: line,
		})
		return record
	}
	record.RecordType = disc

	rs, ok := fs.Record(disc)
	if !ok {
		record.addViolation(Violation{
			Kind:     KindStructural,
			Message:  "unknown record type",
			Observed: disc,
		})
		return record
	}

	checkLineLength(fs, rs, line, &record)

	at := opts.at()
	for _, field := range rs.Fields {
		record.Fields[field.Name] = extractField(field, line, at, &record)
	}
	return record
}

// checkLineLength flags short lines and, subject to the schema's
// trailing-filler tolerance, overlong lines. Field extraction proceeds
// either way; shape problems are reported, not fatal.
func checkLineLength(fs *schema.FileSchema, rs *schema.RecordSchema, line string, record *ParsedRecord) {
	switch {
	case len(line) < rs.LineLength:
		record.addViolation(Violation{
			Kind:     KindStructural,
			Message:  "line shorter than declared record length",
			Observed: strconv.Itoa(len(line)),
			Expected: strconv.Itoa(rs.LineLength),
		})
	case len(line) > rs.LineLength:
		excess := line[rs.LineLength:]
		if fs.TrailingFiller && strings.TrimRight(excess, " ") == "" {
			return
		}
		record.addViolation(Violation{
			Kind:     KindStructural,
			Message:  "line longer than declared record length",
			Observed: strconv.Itoa(len(line)),
			Expected: strconv.Itoa(rs.LineLength),
		})
	}
}

// slice takes the 1-indexed inclusive [start,end] range, best effort for
// short lines: a line ending inside the range yields its available prefix,
// a line ending before it yields "".
func slice(line string, start, end int) string {
	if len(line) < start {
		return ""
	}
	if len(line) < end {
		return line[start-1:]
	}
	return line[start-1 : end]
}

func extractField(field *schema.FieldDefinition, line string, at time.Time, record *ParsedRecord) FieldValue {
	raw := slice(line, field.Start, field.End)
	value := FieldValue{Type: field.Type, Raw: raw}

	text := raw
	if field.Trim {
		text = strings.TrimSpace(strings.Trim(raw, string(field.Pad())))
	}
	value.Text = text

	if isBlank(raw, field) {
		value.State = StateEmpty
		value.Text = ""
		if field.Required {
			record.addViolation(Violation{
				Kind:     KindField,
				Field:    field.Name,
				Message:  field.Label + " is required",
				Expected: "non-empty value",
			})
		}
		return value
	}

	if field.Pattern != "" && !field.MatchesPattern(strings.TrimSpace(raw)) {
		record.addViolation(Violation{
			Kind:     KindField,
			Field:    field.Name,
			Message:  field.Label + " does not match required pattern",
			Observed: strings.TrimSpace(raw),
			Expected: field.Pattern,
		})
	}
	if !field.InEnum(text) {
		record.addViolation(Violation{
			Kind:     KindField,
			Field:    field.Name,
			Message:  field.Label + " is not an allowed value",
			Observed: text,
			Expected: strings.Join(field.Enum, "|"),
		})
	}

	switch field.Type {
	case schema.TypeInteger:
		parseInteger(field, text, &value, record)
	case schema.TypeCurrency:
		parseCurrency(field, raw, &value, record)
	case schema.TypeDate:
		parseDate(field, text, at, &value, record)
	case schema.TypeBoolean:
		parseBool(field, text, &value, record)
	default:
		// Text and identifier types stay textual; identifier checksum
		// validation runs in the rule layer.
		value.State = StateOK
	}
	return value
}

// isBlank reports whether the extracted slice carries no value. Dates treat
// all-zeros as absent; numeric fields do not, since "000000" is the value 0.
func isBlank(raw string, field *schema.FieldDefinition) bool {
	if field.Type == schema.TypeDate {
		return strings.Trim(raw, "0 ") == ""
	}
	if field.Type.Numeric() {
		return strings.TrimSpace(raw) == ""
	}
	return strings.TrimSpace(strings.Trim(raw, string(field.Pad()))) == ""
}

func parseInteger(field *schema.FieldDefinition, text string, value *FieldValue, record *ParsedRecord) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		trimmed = strings.TrimSpace(value.Raw)
	}
	if !allDigits(trimmed) {
		markUnparsed(field, trimmed, "zero-padded digits", value, record)
		return
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		markUnparsed(field, trimmed, "zero-padded digits", value, record)
		return
	}
	value.Int = n
	value.Text = strconv.FormatInt(n, 10)
	value.State = StateOK
}

func parseCurrency(field *schema.FieldDefinition, raw string, value *FieldValue, record *ParsedRecord) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) != len(raw) || !allDigits(trimmed) {
		markUnparsed(field, trimmed, "fixed-width integer centavos", value, record)
		return
	}
	cents, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		markUnparsed(field, trimmed, "fixed-width integer centavos", value, record)
		return
	}
	value.Cents = cents
	value.Text = currencyText(cents)
	value.State = StateOK
}

// currencyText renders minor units as a plain decimal string so textual
// operators see "1234.50", not the zero-padded wire form.
func currencyText(cents int64) string {
	whole := cents / 100
	frac := cents % 100
	return fmt.Sprintf("%d.%02d", whole, frac)
}

func parseDate(field *schema.FieldDefinition, text string, at time.Time, value *FieldValue, record *ParsedRecord) {
	if len(text) != 8 || !allDigits(text) {
		markUnparsed(field, text, "YYYYMMDD", value, record)
		return
	}
	year, _ := strconv.Atoi(text[0:4])
	month, _ := strconv.Atoi(text[4:6])
	day, _ := strconv.Atoi(text[6:8])
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > daysInMonth(year, month) {
		markUnparsed(field, text, "valid calendar date", value, record)
		return
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if field.NoFuture && date.After(at) {
		record.addViolation(Violation{
			Kind:     KindField,
			Field:    field.Name,
			Message:  field.Label + " must not be in the future",
			Observed: text,
			Expected: "date on or before " + at.Format("20060102"),
		})
		// The date itself parsed; keep the typed value for rules.
	}
	value.Date = date
	value.State = StateOK
}

func parseBool(field *schema.FieldDefinition, text string, value *FieldValue, record *ParsedRecord) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "S", "1":
		value.Bool = true
		value.State = StateOK
	case "N", "0":
		value.Bool = false
		value.State = StateOK
	default:
		markUnparsed(field, text, "S/N or 1/0", value, record)
	}
}

func markUnparsed(field *schema.FieldDefinition, observed, expected string, value *FieldValue, record *ParsedRecord) {
	value.State = StateUnparsed
	record.addViolation(Violation{
		Kind:     KindField,
		Field:    field.Name,
		Message:  field.Label + " could not be read as " + string(field.Type),
		Observed: observed,
		Expected: expected,
	})
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	}
	return 0
}
