package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"valido/internal/rules"
)

// Postgres persists rules in PostgreSQL. Condition trees and actions are
// stored as jsonb so rule shape changes do not need schema migrations.
type Postgres struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresOption configures a Postgres store.
type PostgresOption func(*Postgres)

// WithClock sets the timestamp source for testability.
func WithClock(clock func() time.Time) PostgresOption {
	return func(p *Postgres) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// NewPostgres builds a PostgreSQL-backed rule store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *Postgres {
	p := &Postgres{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// EnsureSchema creates the backing table when it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS validation_rules (
			code         text PRIMARY KEY,
			name         text NOT NULL,
			description  text NOT NULL DEFAULT '',
			file_types   jsonb NOT NULL,
			record_types jsonb NOT NULL DEFAULT '[]',
			eval_order   integer NOT NULL DEFAULT 0,
			disabled     boolean NOT NULL DEFAULT false,
			condition    jsonb NOT NULL,
			action       jsonb NOT NULL,
			updated_at   timestamptz NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure rules schema: %w", err)
	}
	return nil
}

// Seed inserts the given rules, skipping codes that already exist. It is
// used to load the built-in pack on first boot without clobbering edits.
func (p *Postgres) Seed(ctx context.Context, list []*rules.Rule) error {
	for _, rule := range list {
		row, err := encodeRule(rule)
		if err != nil {
			return err
		}
		_, err = p.db.ExecContext(ctx, `
			INSERT INTO validation_rules
				(code, name, description, file_types, record_types, eval_order, disabled, condition, action, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (code) DO NOTHING
		`, rule.Code, rule.Name, rule.Description, row.fileTypes, row.recordTypes,
			rule.Order, rule.Disabled, row.condition, row.action, p.clock().UTC())
		if err != nil {
			return fmt.Errorf("seed rule %s: %w", rule.Code, err)
		}
	}
	return nil
}

const selectColumns = `code, name, description, file_types, record_types, eval_order, disabled, condition, action`

func (p *Postgres) List(ctx context.Context) ([]*rules.Rule, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM validation_rules
		ORDER BY eval_order, code
	`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (p *Postgres) ListForFile(ctx context.Context, fileType string) ([]*rules.Rule, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM validation_rules
		WHERE NOT disabled AND file_types @> to_jsonb($1::text)
		ORDER BY eval_order, code
	`, fileType)
	if err != nil {
		return nil, fmt.Errorf("list rules for %s: %w", fileType, err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (p *Postgres) Get(ctx context.Context, code string) (*rules.Rule, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM validation_rules
		WHERE code = $1
	`, code)
	rule, err := scanRule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rule %s: %w", code, err)
	}
	return rule, nil
}

func (p *Postgres) Put(ctx context.Context, rule *rules.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	row, err := encodeRule(rule)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO validation_rules
			(code, name, description, file_types, record_types, eval_order, disabled, condition, action, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			file_types = EXCLUDED.file_types,
			record_types = EXCLUDED.record_types,
			eval_order = EXCLUDED.eval_order,
			disabled = EXCLUDED.disabled,
			condition = EXCLUDED.condition,
			action = EXCLUDED.action,
			updated_at = EXCLUDED.updated_at
	`, rule.Code, rule.Name, rule.Description, row.fileTypes, row.recordTypes,
		rule.Order, rule.Disabled, row.condition, row.action, p.clock().UTC())
	if err != nil {
		return fmt.Errorf("put rule %s: %w", rule.Code, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, code string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM validation_rules WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete rule %s: %w", code, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rule %s: %w", code, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type encodedRule struct {
	fileTypes   []byte
	recordTypes []byte
	condition   []byte
	action      []byte
}

func encodeRule(rule *rules.Rule) (encodedRule, error) {
	var enc encodedRule
	var err error
	if enc.fileTypes, err = json.Marshal(rule.FileTypes); err != nil {
		return enc, fmt.Errorf("encode rule %s: %w", rule.Code, err)
	}
	recordTypes := rule.RecordTypes
	if recordTypes == nil {
		recordTypes = []string{}
	}
	if enc.recordTypes, err = json.Marshal(recordTypes); err != nil {
		return enc, fmt.Errorf("encode rule %s: %w", rule.Code, err)
	}
	if enc.condition, err = json.Marshal(rule.When); err != nil {
		return enc, fmt.Errorf("encode rule %s: %w", rule.Code, err)
	}
	if enc.action, err = json.Marshal(rule.Action); err != nil {
		return enc, fmt.Errorf("encode rule %s: %w", rule.Code, err)
	}
	return enc, nil
}

func scanRule(scan func(dest ...any) error) (*rules.Rule, error) {
	var (
		rule        rules.Rule
		fileTypes   []byte
		recordTypes []byte
		condition   []byte
		action      []byte
	)
	err := scan(&rule.Code, &rule.Name, &rule.Description, &fileTypes, &recordTypes,
		&rule.Order, &rule.Disabled, &condition, &action)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fileTypes, &rule.FileTypes); err != nil {
		return nil, fmt.Errorf("decode rule %s file types: %w", rule.Code, err)
	}
	if err := json.Unmarshal(recordTypes, &rule.RecordTypes); err != nil {
		return nil, fmt.Errorf("decode rule %s record types: %w", rule.Code, err)
	}
	if err := json.Unmarshal(condition, &rule.When); err != nil {
		return nil, fmt.Errorf("decode rule %s condition: %w", rule.Code, err)
	}
	if err := json.Unmarshal(action, &rule.Action); err != nil {
		return nil, fmt.Errorf("decode rule %s action: %w", rule.Code, err)
	}
	// Stored rules were validated on write; validating again recompiles
	// regexp operands dropped by the JSON round trip.
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("stored rule %s no longer validates: %w", rule.Code, err)
	}
	return &rule, nil
}

func scanRules(rows *sql.Rows) ([]*rules.Rule, error) {
	var out []*rules.Rule
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan rules: %w", err)
	}
	return out, nil
}
