package semmatch

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var structural = []cmp.Option{cmpopts.EquateEmpty()}

// Equal reports whether a and b are the same finding. It is coarser than
// structural equality:
//
//   - the rule is compared by ID only;
//   - the engine tier, tokens and AST node are ignored;
//   - bindings must capture equal content from the same locations;
//   - taint traces are forced and compared structurally.
//
// Every Finding field is listed here; a new field must be added with its
// comparison rule.
func Equal(a, b Finding) bool {
	return a.RuleID() == b.RuleID() &&
		// Engine: ignored
		a.Path.Internal == b.Path.Internal &&
		a.Range == b.Range &&
		// ASTNode: ignored
		// Tokens: ignored
		a.Bindings.Equal(b.Bindings) &&
		a.ValidationState == b.ValidationState &&
		equalSeverity(a.SeverityOverride, b.SeverityOverride) &&
		cmp.Equal(a.MetadataOverride, b.MetadataOverride, structural...) &&
		cmp.Equal(a.Dependency, b.Dependency) &&
		equalString(a.FixText, b.FixText) &&
		cmp.Equal(a.Facts, b.Facts, structural...) &&
		// forced last, it is the most expensive check
		cmp.Equal(a.TaintTrace(), b.TaintTrace(), structural...)
}

func equalSeverity(a, b *Severity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
