package semmatch

// IsSubmatch reports whether a is nested inside b: both come from the same
// rule in the same file, and a's range lies strictly within b's.
//
// Bindings are not compared. An outer match supersedes an inner match of the
// same rule even when they bound different values.
func IsSubmatch(a, b Finding) bool {
	return a.RuleID() == b.RuleID() &&
		a.Path.Internal == b.Path.Internal &&
		b.Range.StrictlyContains(a.Range)
}

type groupKey struct {
	rule string
	path string
}

// NoSubmatches drops every finding nested inside another finding of the same
// rule and file, keeping the outermost matches. Groups are emitted in the
// order their first finding appeared.
func NoSubmatches(findings []Finding) []Finding {
	if len(findings) < 2 {
		return findings
	}

	groups := make(map[groupKey][]Finding)
	var order []groupKey

Findings:
	for _, f := range findings {
		key := groupKey{rule: f.RuleID(), path: f.Path.Internal}
		kept, seen := groups[key]
		if !seen {
			order = append(order, key)
		}

		for _, g := range kept {
			if IsSubmatch(f, g) {
				continue Findings
			}
		}

		// f is maximal so far; evict whatever it covers
		n := 0
		for _, g := range kept {
			if !IsSubmatch(g, f) {
				kept[n] = g
				n++
			}
		}
		groups[key] = append(kept[:n], f)
	}

	out := make([]Finding, 0, len(findings))
	for _, key := range order {
		out = append(out, groups[key]...)
	}
	return out
}
