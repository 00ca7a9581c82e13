package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/semmatch/semmatch"
)

// ValidatorConfig describes a check run against the findings of one rule.
// Expr is a CEL expression over the finding; when it holds, the finding is
// confirmed and Severity/Metadata are applied as overrides. When no
// validator of a rule holds, its findings are marked invalid.
type ValidatorConfig struct {
	Rule     string         `koanf:"rule"`
	Expr     string         `koanf:"expr"`
	Severity string         `koanf:"severity"`
	Metadata map[string]any `koanf:"metadata"`
}

var validSeverities = map[semmatch.Severity]struct{}{
	semmatch.SeverityInfo:     {},
	semmatch.SeverityWarning:  {},
	semmatch.SeverityError:    {},
	semmatch.SeverityLow:      {},
	semmatch.SeverityMedium:   {},
	semmatch.SeverityHigh:     {},
	semmatch.SeverityCritical: {},
}

// Check verifies that the validator has all required fields.
func (v *ValidatorConfig) Check() error {
	if strings.TrimSpace(v.Rule) == "" {
		return errors.New("rule is required")
	}
	if strings.TrimSpace(v.Expr) == "" {
		return errors.New("expr is required")
	}
	if v.Severity != "" {
		if _, ok := validSeverities[semmatch.ParseSeverity(v.Severity)]; !ok {
			return fmt.Errorf("unknown severity %q", v.Severity)
		}
	}
	return nil
}

// SeverityOverride returns the configured override, nil if none.
func (v *ValidatorConfig) SeverityOverride() *semmatch.Severity {
	if v.Severity == "" {
		return nil
	}
	s := semmatch.ParseSeverity(v.Severity)
	return &s
}
