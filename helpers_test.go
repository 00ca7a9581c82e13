package semmatch_test

import (
	"github.com/semmatch/semmatch"
)

var rules = map[string]*semmatch.RuleRef{
	"R1": {ID: "R1", Message: "found $X", Severity: semmatch.SeverityWarning},
	"R2": {ID: "R2", Message: "tainted data reaches sink", Severity: semmatch.SeverityError},
}

// pos builds a position on a file whose lines are 100 bytes wide, so
// offsets order the same way as line/column pairs.
func pos(line, col int) semmatch.Position {
	return semmatch.Position{Line: line, Col: col, Offset: (line-1)*100 + col - 1}
}

func rng(l1, c1, l2, c2 int) semmatch.Range {
	return semmatch.Range{Start: pos(l1, c1), End: pos(l2, c2)}
}

func newFinding(rule, path string, r semmatch.Range) semmatch.Finding {
	return semmatch.Finding{
		Rule:   rules[rule],
		Engine: semmatch.EngineOSS,
		Path:   semmatch.SourcePath{Internal: path},
		Range:  r,
	}
}

func bind(name, content string, r semmatch.Range) semmatch.Bindings {
	return semmatch.Bindings{name: {Content: content, Range: r}}
}

func taintFrom(source semmatch.Range, sink semmatch.Range) *semmatch.Lazy[*semmatch.TaintTrace] {
	return semmatch.NewLazy(func() *semmatch.TaintTrace {
		return &semmatch.TaintTrace{
			Source: semmatch.CallTrace{Content: "request.args", Range: source},
			Sink:   semmatch.CallTrace{Content: "os.system(cmd)", Range: sink},
		}
	})
}
