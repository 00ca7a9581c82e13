package semmatch

import "strings"

// Severity levels understood by the reporters.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity normalizes s to a known severity. Unknown values are kept
// upper-cased so they still round-trip through reports.
func ParseSeverity(s string) Severity {
	return Severity(strings.ToUpper(strings.TrimSpace(s)))
}

// FixRegexp is a regexp-based autofix: replace up to Count matches of Regexp
// in the matched text with Replacement. Count 0 means all.
type FixRegexp struct {
	Regexp      string `json:"regex"`
	Replacement string `json:"replacement"`
	Count       int    `json:"count,omitempty"`
}

// RuleRef is the identity and descriptive payload of the rule that produced
// a finding. A RuleRef is shared between all findings of a rule and must not
// be mutated after the matching engine creates it. Only ID takes part in
// finding equality.
type RuleRef struct {
	ID        string
	Message   string
	Severity  Severity
	Metadata  map[string]any
	Fix       *string
	FixRegexp *FixRegexp
	Languages []string
	// Pattern is the rule's pattern rendered for debugging.
	Pattern string
	// Rendered is set when Message already has its metavariables
	// substituted, as for rules rebuilt from a report.
	Rendered bool
}
