package rules

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a rule pack.
type document struct {
	Version int     `yaml:"version"`
	Rules   []*Rule `yaml:"rules"`
}

// documentVersion is the only rule pack layout this build reads.
const documentVersion = 1

// LoadYAML reads a rule pack. Every rule is validated, condition trees are
// compiled, and duplicate codes are rejected, so a successful load returns
// rules Evaluate can run as-is.
func LoadYAML(r io.Reader) ([]*Rule, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rule pack: %w", err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes and validates a rule pack held in memory.
func ParseYAML(raw []byte) ([]*Rule, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode rule pack: %w", err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("unsupported rule pack version %d", doc.Version)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rule pack declares no rules")
	}

	seen := make(map[string]bool, len(doc.Rules))
	for _, rule := range doc.Rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		if seen[rule.Code] {
			return nil, fmt.Errorf("duplicate rule code %s", rule.Code)
		}
		seen[rule.Code] = true
	}
	Sort(doc.Rules)
	return doc.Rules, nil
}
