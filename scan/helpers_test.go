package scan

import (
	"github.com/semmatch/semmatch"
)

var (
	redirectRule = &semmatch.RuleRef{
		ID:       "python.flask.open-redirect",
		Message:  "Redirect using user input $URL",
		Severity: semmatch.SeverityWarning,
	}
	sqliRule = &semmatch.RuleRef{
		ID:       "python.lang.sqli",
		Message:  "SQL built from $Q",
		Severity: semmatch.SeverityError,
	}
)

func rng(l1, c1, l2, c2 int) semmatch.Range {
	return semmatch.Range{
		Start: semmatch.Position{Line: l1, Col: c1, Offset: (l1-1)*100 + c1 - 1},
		End:   semmatch.Position{Line: l2, Col: c2, Offset: (l2-1)*100 + c2 - 1},
	}
}

// createTestFinding returns a finding of rule in path binding $URL to url.
func createTestFinding(rule *semmatch.RuleRef, path string, r semmatch.Range, url string) semmatch.Finding {
	return semmatch.Finding{
		Rule:   rule,
		Engine: semmatch.EngineOSS,
		Path:   semmatch.SourcePath{Internal: path},
		Range:  r,
		Bindings: semmatch.Bindings{
			"$URL": {Content: url, Range: semmatch.Range{Start: r.Start, End: r.Start}},
		},
	}
}
