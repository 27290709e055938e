package store

import (
	"context"
	"sync"

	"valido/internal/rules"
)

// Memory is an in-memory rule store. It favors clarity over performance and
// is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	rules map[string]*rules.Rule
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rules: make(map[string]*rules.Rule)}
}

// NewMemoryWithDefaults builds an in-memory store seeded with the built-in
// rule pack.
func NewMemoryWithDefaults() (*Memory, error) {
	defaults, err := rules.Defaults()
	if err != nil {
		return nil, err
	}
	m := NewMemory()
	for _, rule := range defaults {
		m.rules[rule.Code] = rule
	}
	return m, nil
}

func (m *Memory) List(_ context.Context) ([]*rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*rules.Rule, 0, len(m.rules))
	for _, rule := range m.rules {
		out = append(out, rule)
	}
	rules.Sort(out)
	return out, nil
}

func (m *Memory) ListForFile(_ context.Context, fileType string) ([]*rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*rules.Rule
	for _, rule := range m.rules {
		if rule.Disabled {
			continue
		}
		for _, ft := range rule.FileTypes {
			if ft == fileType {
				out = append(out, rule)
				break
			}
		}
	}
	rules.Sort(out)
	return out, nil
}

func (m *Memory) Get(_ context.Context, code string) (*rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rule, ok := m.rules[code]; ok {
		return rule, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) Put(_ context.Context, rule *rules.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.Code] = rule
	return nil
}

func (m *Memory) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[code]; !ok {
		return ErrNotFound
	}
	delete(m.rules, code)
	return nil
}
