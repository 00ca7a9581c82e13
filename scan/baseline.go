package scan

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-version"

	"github.com/semmatch/semmatch"
	"github.com/semmatch/semmatch/logging"
	"github.com/semmatch/semmatch/report"
)

// MinBaselineVersion is the oldest report version whose fingerprints match
// the current format.
const MinBaselineVersion = "0.1.0"

// Baseline is a previous report; findings it already holds are not new.
type Baseline struct {
	Version      string
	fingerprints map[string]struct{}
}

// NewBaseline indexes findings by fingerprint.
func NewBaseline(findings []semmatch.Finding) *Baseline {
	b := &Baseline{fingerprints: make(map[string]struct{}, len(findings))}
	for _, f := range findings {
		b.fingerprints[f.Fingerprint()] = struct{}{}
	}
	return b
}

// Len returns the number of distinct findings in the baseline.
func (b *Baseline) Len() int {
	if b == nil {
		return 0
	}
	return len(b.fingerprints)
}

// IsNew reports whether f is absent from the baseline. Every finding is new
// against a nil baseline.
func (b *Baseline) IsNew(f semmatch.Finding) bool {
	if b == nil {
		return true
	}
	_, ok := b.fingerprints[f.Fingerprint()]
	return !ok
}

// Filter returns the findings of fs that are new.
func (b *Baseline) Filter(fs []semmatch.Finding) []semmatch.Finding {
	if b.Len() == 0 {
		return fs
	}
	out := make([]semmatch.Finding, 0, len(fs))
	for _, f := range fs {
		if b.IsNew(f) {
			out = append(out, f)
		}
	}
	logging.Debug().
		Int("baseline", b.Len()).
		Int("dropped", len(fs)-len(out)).
		Msg("baseline applied")
	return out
}

// LoadBaseline reads a JSON report written by a previous run. Reports older
// than MinBaselineVersion are rejected since their fingerprints are not
// comparable.
func LoadBaseline(baselinePath string) (*Baseline, error) {
	file, err := os.Open(baselinePath)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", baselinePath, err)
	}
	defer file.Close()

	previous, err := report.ReadJSON(file)
	if err != nil {
		return nil, fmt.Errorf("the format of the file %s is not supported: %w", baselinePath, err)
	}

	if err := checkBaselineVersion(previous.Version); err != nil {
		return nil, fmt.Errorf("baseline %s: %w", baselinePath, err)
	}

	b := NewBaseline(previous.Findings)
	b.Version = previous.Version
	return b, nil
}

func checkBaselineVersion(v string) error {
	if v == "" {
		return fmt.Errorf("report has no version")
	}
	got, err := version.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid report version %q: %w", v, err)
	}
	if got.LessThan(version.Must(version.NewVersion(MinBaselineVersion))) {
		return fmt.Errorf("report version %s is older than %s", got, MinBaselineVersion)
	}
	return nil
}
