package semmatch_test

import (
	"regexp"
	"testing"

	"github.com/semmatch/semmatch"
	"github.com/stretchr/testify/assert"
)

var fingerprintFormat = regexp.MustCompile(`^[^!]+![^!]+![0-9a-f]{8}#L\d+-\d+#C\d+-\d+$`)

func TestFingerprint_Format(t *testing.T) {
	f := newFinding("R1", "src/app.py", rng(10, 5, 12, 40))
	f.Bindings = bind("$X", "foo", rng(10, 5, 10, 8))

	fp := f.Fingerprint()

	assert.Regexp(t, fingerprintFormat, fp)
	assert.Contains(t, fp, "src/app.py!R1!")
	assert.Contains(t, fp, "#L10-12#C5-40")
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := newFinding("R1", "a.py", rng(1, 1, 1, 10))
	a.Bindings = semmatch.Bindings{
		"$A": {Content: "x"},
		"$B": {Content: "y"},
	}
	b := a
	b.Bindings = semmatch.Bindings{
		"$B": {Content: "y"},
		"$A": {Content: "x"},
	}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Fingerprint(), semmatch.MarkExtended(a).Fingerprint())
}

func TestFingerprint_Distinguishes(t *testing.T) {
	base := newFinding("R1", "a.py", rng(1, 1, 1, 10))
	base.Bindings = bind("$X", "foo", rng(1, 1, 1, 4))

	otherContent := base
	otherContent.Bindings = bind("$X", "bar", rng(1, 1, 1, 4))
	otherRule := base
	otherRule.Rule = rules["R2"]
	otherLine := base
	otherLine.Range = rng(2, 1, 2, 10)

	for name, f := range map[string]semmatch.Finding{
		"content": otherContent,
		"rule":    otherRule,
		"line":    otherLine,
	} {
		assert.NotEqual(t, base.Fingerprint(), f.Fingerprint(), name)
	}
}

func TestFingerprint_UsesDisplayPath(t *testing.T) {
	f := newFinding("R1", "/abs/real/app.py", rng(1, 1, 1, 10))
	f.Path.Origin = "link/app.py"

	assert.Contains(t, f.Fingerprint(), "link/app.py!R1!")
	assert.Regexp(t, `^[0-9a-f]{8}$`, f.BindingsHash())
}
