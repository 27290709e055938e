// Package schema describes the positional layout of regulatory fixed-width
// files: typed byte ranges per field, record types keyed by discriminator,
// and per-file aggregate specs consumed by footer cross-check rules.
//
// Schemas are built once at startup from the declarative tables in
// schema/catalog, validated, and shared read-only across all parsing
// operations. An invariant violation here is a deployment configuration
// bug, never a property of input data.
package schema

import (
	"fmt"
	"regexp"
)

// FieldType is the semantic type a field is extracted as.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeInteger  FieldType = "integer"
	TypeDate     FieldType = "date"
	TypeCurrency FieldType = "currency"
	TypeBoolean  FieldType = "boolean"

	// Checksum identifier types; values validate through pkg/identifier.
	TypeCURP  FieldType = "curp"
	TypeRFC   FieldType = "rfc"
	TypeNSS   FieldType = "nss"
	TypeCLABE FieldType = "clabe"
)

// Numeric reports whether values of this type compare numerically.
func (t FieldType) Numeric() bool {
	return t == TypeInteger || t == TypeCurrency
}

// Identifier reports whether this is a checksum identifier type.
func (t FieldType) Identifier() bool {
	switch t {
	case TypeCURP, TypeRFC, TypeNSS, TypeCLABE:
		return true
	}
	return false
}

// FieldDefinition declares one field's byte range, type, and constraints.
// Start and End are 1-indexed inclusive offsets into the raw line.
type FieldDefinition struct {
	Name     string
	Label    string
	Start    int
	End      int
	Type     FieldType
	Required bool
	Trim     bool
	PadChar  byte   // defaults to space when zero
	Pattern  string // optional anchored regexp constraint
	Enum     []string
	NoFuture bool // date fields: reject dates after evaluation time

	compiled *regexp.Regexp
}

// Length returns the field's width in bytes.
func (f *FieldDefinition) Length() int { return f.End - f.Start + 1 }

// Pad returns the effective pad character.
func (f *FieldDefinition) Pad() byte {
	if f.PadChar == 0 {
		return ' '
	}
	return f.PadChar
}

// MatchesPattern reports whether value satisfies the compiled pattern
// constraint; fields without a pattern always match.
func (f *FieldDefinition) MatchesPattern(value string) bool {
	if f.compiled == nil {
		return true
	}
	return f.compiled.MatchString(value)
}

// InEnum reports whether value is among the allowed enumerated values;
// fields without an enum always match.
func (f *FieldDefinition) InEnum(value string) bool {
	if len(f.Enum) == 0 {
		return true
	}
	for _, allowed := range f.Enum {
		if value == allowed {
			return true
		}
	}
	return false
}

// RecordSchema is the ordered field list for one record type of a file.
type RecordSchema struct {
	Type       string // discriminator value, e.g. "01"
	Name       string // human name: header, detail, footer
	LineLength int
	Fields     []*FieldDefinition

	byName map[string]*FieldDefinition
}

// Field looks up a field definition by name.
func (r *RecordSchema) Field(name string) (*FieldDefinition, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// AggregateKind selects how a file-level aggregate accumulates.
type AggregateKind string

const (
	AggregateCount AggregateKind = "count"
	AggregateSum   AggregateKind = "sum"
)

// AggregateSpec declares a running aggregate over one record type's field,
// exposed to footer-scoped rules as the synthetic field "@Name".
type AggregateSpec struct {
	Name       string
	Kind       AggregateKind
	RecordType string
	Field      string // empty for count
}

// SyntheticField is the field name rules use to reference this aggregate.
func (a AggregateSpec) SyntheticField() string { return "@" + a.Name }

// FileSchema bundles the record schemas and aggregate specs for one
// regulated file type.
type FileSchema struct {
	Type     string // file type code, e.g. "sua"
	Name     string
	Currency string

	// Discriminator byte range, identical across all record types.
	DiscriminatorStart int
	DiscriminatorEnd   int

	Records    []*RecordSchema
	Aggregates []AggregateSpec

	// TrailingFiller tolerates lines longer than the declared length when
	// the excess is entirely pad characters. Source systems routinely emit
	// such lines; set false to flag them as structural violations.
	TrailingFiller bool

	byType map[string]*RecordSchema
}

// Record routes a discriminator value to its record schema.
func (s *FileSchema) Record(recordType string) (*RecordSchema, bool) {
	r, ok := s.byType[recordType]
	return r, ok
}

// Discriminator extracts the record-type value from a raw line, reading
// only the fixed discriminator range.
func (s *FileSchema) Discriminator(line string) (string, bool) {
	if len(line) < s.DiscriminatorEnd {
		return "", false
	}
	return line[s.DiscriminatorStart-1 : s.DiscriminatorEnd], true
}

// Aggregate looks up an aggregate spec by its synthetic field name.
func (s *FileSchema) Aggregate(syntheticField string) (AggregateSpec, bool) {
	for _, a := range s.Aggregates {
		if a.SyntheticField() == syntheticField {
			return a, true
		}
	}
	return AggregateSpec{}, false
}

// Validate checks every schema invariant and prepares internal indexes.
// It must be called (and succeed) before the schema is used; failures are
// configuration bugs and should abort startup.
func (s *FileSchema) Validate() error {
	if s.Type == "" {
		return fmt.Errorf("file schema: missing type code")
	}
	if len(s.Records) == 0 {
		return fmt.Errorf("file schema %s: no record schemas", s.Type)
	}
	if s.DiscriminatorStart < 1 || s.DiscriminatorEnd < s.DiscriminatorStart {
		return fmt.Errorf("file schema %s: invalid discriminator range [%d,%d]", s.Type, s.DiscriminatorStart, s.DiscriminatorEnd)
	}

	s.byType = make(map[string]*RecordSchema, len(s.Records))
	for _, record := range s.Records {
		if err := s.validateRecord(record); err != nil {
			return err
		}
		if _, dup := s.byType[record.Type]; dup {
			return fmt.Errorf("file schema %s: duplicate record type %s", s.Type, record.Type)
		}
		s.byType[record.Type] = record
	}

	for _, agg := range s.Aggregates {
		if err := s.validateAggregate(agg); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileSchema) validateRecord(record *RecordSchema) error {
	where := fmt.Sprintf("file schema %s record %s", s.Type, record.Type)
	if len(record.Fields) == 0 {
		return fmt.Errorf("%s: no fields", where)
	}

	// The discriminator's own field leads every record type at the shared
	// fixed offset, so routing can happen before any other field is read.
	first := record.Fields[0]
	if first.Start != s.DiscriminatorStart || first.End != s.DiscriminatorEnd {
		return fmt.Errorf("%s: first field %s must span the discriminator range [%d,%d]",
			where, first.Name, s.DiscriminatorStart, s.DiscriminatorEnd)
	}

	record.byName = make(map[string]*FieldDefinition, len(record.Fields))
	prevEnd := 0
	total := 0
	for _, field := range record.Fields {
		if field.Name == "" {
			return fmt.Errorf("%s: field with empty name", where)
		}
		if _, dup := record.byName[field.Name]; dup {
			return fmt.Errorf("%s: duplicate field %s", where, field.Name)
		}
		if field.Start < 1 || field.End < field.Start {
			return fmt.Errorf("%s: field %s has invalid range [%d,%d]", where, field.Name, field.Start, field.End)
		}
		// Offsets must be contiguous: monotone, non-overlapping, gapless.
		if field.Start != prevEnd+1 {
			return fmt.Errorf("%s: field %s starts at %d, expected %d", where, field.Name, field.Start, prevEnd+1)
		}
		if field.Pattern != "" {
			compiled, err := regexp.Compile("^(?:" + field.Pattern + ")$")
			if err != nil {
				return fmt.Errorf("%s: field %s pattern: %w", where, field.Name, err)
			}
			field.compiled = compiled
		}
		record.byName[field.Name] = field
		prevEnd = field.End
		total += field.Length()
	}
	if total != record.LineLength {
		return fmt.Errorf("%s: field lengths sum to %d, declared line length is %d", where, total, record.LineLength)
	}
	return nil
}

func (s *FileSchema) validateAggregate(agg AggregateSpec) error {
	where := fmt.Sprintf("file schema %s aggregate %s", s.Type, agg.Name)
	if agg.Name == "" {
		return fmt.Errorf("file schema %s: aggregate with empty name", s.Type)
	}
	record, ok := s.byType[agg.RecordType]
	if !ok {
		return fmt.Errorf("%s: unknown record type %s", where, agg.RecordType)
	}
	switch agg.Kind {
	case AggregateCount:
		if agg.Field != "" {
			return fmt.Errorf("%s: count aggregates take no field", where)
		}
	case AggregateSum:
		field, ok := record.Field(agg.Field)
		if !ok {
			return fmt.Errorf("%s: unknown field %s", where, agg.Field)
		}
		if !field.Type.Numeric() {
			return fmt.Errorf("%s: sum over non-numeric field %s", where, agg.Field)
		}
	default:
		return fmt.Errorf("%s: unknown aggregate kind %s", where, agg.Kind)
	}
	return nil
}
