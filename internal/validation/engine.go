// Package validation orchestrates a file run: parse every line against the
// file's schema, evaluate the applicable rules per record, reduce the
// file-level aggregates, and evaluate footer-scoped rules against them.
//
// The engine is pure: no I/O, no clock reads beyond the supplied evaluation
// instant, and it never aborts on malformed input. Every problem it finds
// is a Violation on the returned FileResult.
package validation

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"valido/internal/parser"
	"valido/internal/rules"
	"valido/internal/schema"
	"valido/internal/schema/catalog"
	dErrors "valido/pkg/domain-errors"
)

// ViolationKind separates line-shape, field-content, and rule findings.
type ViolationKind string

const (
	KindStructural ViolationKind = "structural"
	KindField      ViolationKind = "field"
	KindRule       ViolationKind = "rule"
)

// Violation is one finding against one line of the file.
type Violation struct {
	LineNumber int            `json:"line_number"`
	RuleCode   string         `json:"rule_code,omitempty"`
	Field      string         `json:"field,omitempty"`
	Severity   rules.Severity `json:"severity"`
	Kind       ViolationKind  `json:"kind"`
	Message    string         `json:"message"`
	Observed   string         `json:"observed,omitempty"`
	Expected   string         `json:"expected,omitempty"`
}

// FileResult is the full outcome of validating one file.
type FileResult struct {
	FileType       string         `json:"file_type"`
	TotalRecords   int            `json:"total_records"`
	RecordCounts   map[string]int `json:"record_counts"`
	ValidRecords   int            `json:"valid_records"`
	InvalidRecords int            `json:"invalid_records"`
	Valid          bool           `json:"valid"`
	Violations     []Violation    `json:"violations"`
	// RuleHits counts how often each rule triggered, keyed by rule code.
	RuleHits map[string]int `json:"rule_hits,omitempty"`
	// ViolatedCodes are the distinct reported violation codes, sorted.
	ViolatedCodes []string `json:"violated_codes,omitempty"`
	// Aggregates carries the reduced file totals keyed by synthetic field
	// name; currency sums are in centavos.
	Aggregates map[string]int64 `json:"aggregates,omitempty"`
	// RuleErrors lists rules that could not be evaluated (malformed
	// operands against this schema). The rules are skipped, not fatal.
	RuleErrors []string `json:"rule_errors,omitempty"`
}

// Input is one validation run.
type Input struct {
	FileType string
	Lines    []string
	// At is the evaluation instant for date and identifier checks; zero
	// means time.Now().
	At time.Time
	// Rules is the full rule set; the engine filters per file and record
	// type. Nil means the built-in pack.
	Rules []*rules.Rule
	// KeepRaw retains original lines on violations' context (diagnostics).
	KeepRaw bool
}

// Engine validates files against the schema catalog.
type Engine struct {
	catalog *catalog.Catalog
}

// NewEngine builds an engine over a validated schema catalog.
func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{catalog: cat}
}

// Schemas describes every file layout the engine can validate, sorted by
// file type.
func (e *Engine) Schemas() []SchemaInfo {
	types := e.catalog.Types()
	infos := make([]SchemaInfo, 0, len(types))
	for _, t := range types {
		fs, ok := e.catalog.File(t)
		if !ok {
			continue
		}
		info := SchemaInfo{FileType: fs.Type, Description: fs.Name}
		for _, rec := range fs.Records {
			info.RecordTypes = append(info.RecordTypes, rec.Type)
			if rec.LineLength > info.LineLength {
				info.LineLength = rec.LineLength
			}
		}
		for _, agg := range fs.Aggregates {
			info.Aggregates = append(info.Aggregates, agg.SyntheticField())
		}
		infos = append(infos, info)
	}
	return infos
}

// recordPlan is the per-record-type evaluation plan: which rules run during
// the streaming pass and which wait for the file reduction.
type recordPlan struct {
	immediate []*rules.Rule
	deferred  []*rules.Rule
}

// Validate runs the sequential path.
func (e *Engine) Validate(ctx context.Context, in Input) (*FileResult, error) {
	fs, plans, err := e.prepare(in)
	if err != nil {
		return nil, err
	}

	if in.At.IsZero() {
		in.At = time.Now()
	}
	run := newRunState(fs, plans, in)
	for i, line := range in.Lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		run.processLine(i+1, line)
	}
	return run.finish()
}

// prepare resolves the schema and pre-filters the rule set into per-record
// evaluation plans.
func (e *Engine) prepare(in Input) (*schema.FileSchema, map[string]recordPlan, error) {
	fs, ok := e.catalog.File(in.FileType)
	if !ok {
		return nil, nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown file type %q", in.FileType)
	}

	ruleSet := in.Rules
	if ruleSet == nil {
		defaults, err := rules.Defaults()
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "load built-in rules")
		}
		ruleSet = defaults
	}

	plans := make(map[string]recordPlan, len(fs.Records))
	for _, rs := range fs.Records {
		var plan recordPlan
		for _, rule := range ruleSet {
			if !rule.AppliesTo(in.FileType, rs.Type) {
				continue
			}
			if rule.When.UsesSyntheticFields() {
				plan.deferred = append(plan.deferred, rule)
			} else {
				plan.immediate = append(plan.immediate, rule)
			}
		}
		rules.Sort(plan.immediate)
		rules.Sort(plan.deferred)
		plans[rs.Type] = plan
	}
	return fs, plans, nil
}

// runState accumulates one validation pass.
type runState struct {
	fs    *schema.FileSchema
	plans map[string]recordPlan
	at    time.Time
	keep  bool

	result      *FileResult
	aggregators []*aggregator
	// deferredRecs are parsed records whose plan includes aggregate-aware
	// rules, held until the reduction is complete.
	deferredRecs []deferredRecord
	ruleErrors   map[string]bool
}

type deferredRecord struct {
	rec   parser.ParsedRecord
	plan  recordPlan
	valid bool
}

func newRunState(fs *schema.FileSchema, plans map[string]recordPlan, in Input) *runState {
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	return &runState{
		fs:    fs,
		plans: plans,
		at:    at,
		keep:  in.KeepRaw,
		result: &FileResult{
			FileType:     in.FileType,
			RecordCounts: map[string]int{},
			RuleHits:     map[string]int{},
			Violations:   []Violation{},
		},
		aggregators: newAggregators(fs),
		ruleErrors:  map[string]bool{},
	}
}

func (r *runState) processLine(lineNumber int, line string) {
	rec := parser.Parse(r.fs, lineNumber, line, parser.Options{At: r.at, KeepRaw: r.keep})

	r.result.TotalRecords++
	if rec.RecordType != "" {
		r.result.RecordCounts[rec.RecordType]++
	}
	for _, agg := range r.aggregators {
		agg.observe(&rec)
	}
	r.appendParserViolations(&rec)

	plan := r.plans[rec.RecordType]
	valid := rec.Valid
	if len(plan.deferred) > 0 {
		r.deferredRecs = append(r.deferredRecs, deferredRecord{rec: rec, plan: plan, valid: valid})
		// Immediate rules for deferred records also wait, so one record's
		// findings stay contiguous.
		return
	}

	valid = r.evaluateRules(plan.immediate, &rec, recordView{rec: &rec}) && valid
	r.countRecord(valid)
}

// appendParserViolations converts parse-time findings; they always precede
// the record's rule findings and are always error severity.
func (r *runState) appendParserViolations(rec *parser.ParsedRecord) {
	for _, pv := range rec.Violations {
		kind := KindField
		if pv.Kind == parser.KindStructural {
			kind = KindStructural
		}
		r.result.Violations = append(r.result.Violations, Violation{
			LineNumber: rec.LineNumber,
			Field:      pv.Field,
			Severity:   rules.SeverityError,
			Kind:       kind,
			Message:    pv.Message,
			Observed:   pv.Observed,
			Expected:   pv.Expected,
		})
	}
}

// evaluateRules runs the given rules in order and reports whether the record
// stays valid.
func (r *runState) evaluateRules(list []*rules.Rule, rec *parser.ParsedRecord, view rules.Fields) bool {
	valid := true
	for _, rule := range list {
		hit, err := rule.When.Evaluate(view, r.at)
		if err != nil {
			if !r.ruleErrors[rule.Code] {
				r.ruleErrors[rule.Code] = true
				r.result.RuleErrors = append(r.result.RuleErrors, rule.Code+": "+err.Error())
			}
			continue
		}
		if !hit {
			continue
		}
		r.result.RuleHits[rule.Code]++
		r.result.Violations = append(r.result.Violations, Violation{
			LineNumber: rec.LineNumber,
			RuleCode:   rule.ViolationCode(),
			Field:      leafField(rule.When),
			Severity:   rule.Action.Kind.Severity(),
			Kind:       KindRule,
			Message:    rule.RenderMessage(view),
		})
		if rule.Action.Kind == rules.ActionReject {
			valid = false
		}
	}
	return valid
}

func (r *runState) countRecord(valid bool) {
	if valid {
		r.result.ValidRecords++
	} else {
		r.result.InvalidRecords++
	}
}

// finish runs the reduction-dependent phase: deferred records see the
// aggregate totals as synthetic fields.
func (r *runState) finish() (*FileResult, error) {
	synthetic := make(map[string]parser.FieldValue, len(r.aggregators))
	r.result.Aggregates = make(map[string]int64, len(r.aggregators))
	for _, agg := range r.aggregators {
		name := agg.spec.SyntheticField()
		synthetic[name] = agg.value()
		r.result.Aggregates[name] = agg.total
	}

	for i := range r.deferredRecs {
		d := &r.deferredRecs[i]
		view := recordView{rec: &d.rec, synthetic: synthetic}
		valid := d.valid
		valid = r.evaluateRules(d.plan.immediate, &d.rec, view) && valid
		valid = r.evaluateRules(d.plan.deferred, &d.rec, view) && valid
		r.countRecord(valid)
	}

	r.result.Valid = r.result.InvalidRecords == 0
	r.result.ViolatedCodes = distinctCodes(r.result.Violations)
	sort.Strings(r.result.RuleErrors)
	return r.result, nil
}

// leafField names the condition's subject field when the tree has a single
// obvious one; groups report the first leaf's field.
func leafField(c *rules.Condition) string {
	switch {
	case c.Not != nil:
		return leafField(c.Not)
	case len(c.All) > 0:
		return leafField(c.All[0])
	case len(c.Any) > 0:
		return leafField(c.Any[0])
	}
	return c.Field
}

func distinctCodes(violations []Violation) []string {
	seen := map[string]bool{}
	var codes []string
	for _, v := range violations {
		if v.RuleCode == "" || seen[v.RuleCode] {
			continue
		}
		seen[v.RuleCode] = true
		codes = append(codes, v.RuleCode)
	}
	sort.Strings(codes)
	return codes
}

// recordView resolves synthetic "@" fields from the reduction and everything
// else from the record.
type recordView struct {
	rec       *parser.ParsedRecord
	synthetic map[string]parser.FieldValue
}

func (v recordView) Field(name string) parser.FieldValue {
	if strings.HasPrefix(name, "@") {
		if fv, ok := v.synthetic[name]; ok {
			return fv
		}
		return parser.FieldValue{State: parser.StateEmpty}
	}
	return v.rec.Field(name)
}

// aggregator accumulates one running file total.
type aggregator struct {
	spec      schema.AggregateSpec
	fieldType schema.FieldType
	total     int64
}

func newAggregators(fs *schema.FileSchema) []*aggregator {
	out := make([]*aggregator, 0, len(fs.Aggregates))
	for _, spec := range fs.Aggregates {
		fieldType := schema.TypeInteger
		if spec.Kind == schema.AggregateSum {
			if rs, ok := fs.Record(spec.RecordType); ok {
				if field, ok := rs.Field(spec.Field); ok {
					fieldType = field.Type
				}
			}
		}
		out = append(out, &aggregator{spec: spec, fieldType: fieldType})
	}
	return out
}

func (a *aggregator) observe(rec *parser.ParsedRecord) {
	if rec.RecordType != a.spec.RecordType {
		return
	}
	switch a.spec.Kind {
	case schema.AggregateCount:
		a.total++
	case schema.AggregateSum:
		fv := rec.Field(a.spec.Field)
		if fv.State != parser.StateOK {
			return
		}
		if a.fieldType == schema.TypeCurrency {
			a.total += fv.Cents
		} else {
			a.total += fv.Int
		}
	}
}

// merge folds another aggregator's partial total into this one.
func (a *aggregator) merge(other *aggregator) {
	a.total += other.total
}

func (a *aggregator) value() parser.FieldValue {
	fv := parser.FieldValue{Type: a.fieldType, State: parser.StateOK}
	if a.fieldType == schema.TypeCurrency {
		fv.Cents = a.total
		fv.Text = centsText(a.total)
	} else {
		fv.Type = schema.TypeInteger
		fv.Int = a.total
		fv.Text = strconv.FormatInt(a.total, 10)
	}
	return fv
}

func centsText(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
