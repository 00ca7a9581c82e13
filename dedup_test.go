package semmatch_test

import (
	"fmt"
	"testing"

	"github.com/semmatch/semmatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sameSet reports whether every finding of a has an Equal finding in b and
// the other way around.
func sameSet(a, b []semmatch.Finding) bool {
	contains := func(fs []semmatch.Finding, f semmatch.Finding) bool {
		for _, g := range fs {
			if semmatch.Equal(f, g) {
				return true
			}
		}
		return false
	}
	for _, f := range a {
		if !contains(b, f) {
			return false
		}
	}
	for _, f := range b {
		if !contains(a, f) {
			return false
		}
	}
	return true
}

func TestUniq(t *testing.T) {
	loc := rng(1, 1, 1, 10)
	withBinding := func(content string, at semmatch.Range) semmatch.Finding {
		f := newFinding("R1", "a.py", loc)
		f.Bindings = bind("$X", content, at)
		return f
	}

	tests := map[string]struct {
		findings []semmatch.Finding
		expected int
	}{
		"empty": {
			findings: nil,
			expected: 0,
		},
		"identical bindings collapse": {
			findings: []semmatch.Finding{
				withBinding("foo", rng(1, 1, 1, 4)),
				withBinding("foo", rng(1, 1, 1, 4)),
			},
			expected: 1,
		},
		"same content from different places survives": {
			findings: []semmatch.Finding{
				withBinding("foo", rng(1, 1, 1, 4)),
				withBinding("foo", rng(1, 6, 1, 9)),
			},
			expected: 2,
		},
		"engine tier does not block merging": {
			findings: []semmatch.Finding{
				withBinding("foo", rng(1, 1, 1, 4)),
				semmatch.MarkExtended(withBinding("foo", rng(1, 1, 1, 4))),
			},
			expected: 1,
		},
		"different locations are kept": {
			findings: []semmatch.Finding{
				newFinding("R1", "a.py", rng(1, 1, 1, 10)),
				newFinding("R1", "a.py", rng(2, 1, 2, 10)),
				newFinding("R1", "b.py", rng(1, 1, 1, 10)),
			},
			expected: 3,
		},
		"duplicates interleaved with other locations": {
			findings: []semmatch.Finding{
				newFinding("R1", "a.py", rng(1, 1, 1, 10)),
				newFinding("R1", "a.py", rng(2, 1, 2, 10)),
				newFinding("R1", "a.py", rng(1, 1, 1, 10)),
				newFinding("R2", "a.py", rng(1, 1, 1, 10)),
				newFinding("R1", "a.py", rng(2, 1, 2, 10)),
			},
			expected: 3,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := semmatch.Uniq(test.findings)
			assert.Len(t, got, test.expected)
			assert.True(t, sameSet(got, test.findings))
		})
	}
}

func TestUniq_TaintTracesSurvive(t *testing.T) {
	sink := rng(10, 1, 10, 5)
	fromA := newFinding("R2", "app.py", sink)
	fromA.Taint = taintFrom(rng(2, 1, 2, 8), sink)
	fromB := newFinding("R2", "app.py", sink)
	fromB.Taint = taintFrom(rng(6, 1, 6, 8), sink)
	againA := newFinding("R2", "app.py", sink)
	againA.Taint = taintFrom(rng(2, 1, 2, 8), sink)

	got := semmatch.Uniq([]semmatch.Finding{fromA, fromB, againA})

	require.Len(t, got, 2)
	assert.True(t, semmatch.Equal(got[0], fromA))
	assert.True(t, semmatch.Equal(got[1], fromB))
}

func TestUniq_Idempotent(t *testing.T) {
	var fs []semmatch.Finding
	for i := 0; i < 300; i++ {
		f := newFinding("R1", fmt.Sprintf("f%d.py", i%7), rng(i%11+1, 1, i%11+1, 10))
		f.Bindings = bind("$X", fmt.Sprintf("v%d", i%3), rng(i%11+1, 1, i%11+1, 3))
		fs = append(fs, f)
	}

	once := semmatch.Uniq(fs)
	twice := semmatch.Uniq(once)

	assert.True(t, sameSet(fs, once))
	assert.Len(t, twice, len(once))
	assert.True(t, sameSet(once, twice))
	for i := range once {
		for j := i + 1; j < len(once); j++ {
			assert.False(t, semmatch.Equal(once[i], once[j]), "duplicate left at %d and %d", i, j)
		}
	}
}

func TestUniq_GroupsByFirstAppearance(t *testing.T) {
	a := newFinding("R1", "a.py", rng(3, 1, 3, 10))
	b := newFinding("R1", "a.py", rng(1, 1, 1, 10))
	c := newFinding("R2", "a.py", rng(3, 1, 3, 10))

	got := semmatch.Uniq([]semmatch.Finding{a, b, c})

	require.Len(t, got, 3)
	assert.Equal(t, a.Range, got[0].Range)
	assert.Equal(t, c.Range, got[1].Range)
	assert.Equal(t, b.Range, got[2].Range)
}
