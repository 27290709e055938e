package rules

import (
	_ "embed"
	"fmt"
	"sync"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	defaultsOnce sync.Once
	defaultRules []*Rule
	defaultsErr  error
)

// Defaults returns the built-in rule pack shipped with the binary. The
// returned slice and its rules are shared; callers must treat them as
// read-only.
func Defaults() ([]*Rule, error) {
	defaultsOnce.Do(func() {
		defaultRules, defaultsErr = ParseYAML(defaultsYAML)
		if defaultsErr != nil {
			defaultsErr = fmt.Errorf("built-in rule pack: %w", defaultsErr)
		}
	})
	return defaultRules, defaultsErr
}
