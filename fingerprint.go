package semmatch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns a deterministic identifier for a finding. It encodes
// the file as shown to users, the rule, a hash of the bound metavariables and
// the location, so two runs over the same content yield the same fingerprint
// and a finding read back from a JSON report keeps it. Fingerprints key the
// ignore file, the baseline comparison and the validation cache.
//
// # Format
//
// "!" separates identity segments and "#" anchors the location:
//
//	{path}!{rule_id}!{bindings_hash}#L{startLine}-{endLine}#C{startCol}-{endCol}
//
// bindings_hash is the first 8 hex chars of the XXH3 hash of the sorted
// name=content pairs. Binding locations are left out so the hash survives
// unrelated edits elsewhere in the file; the #L/#C anchor carries location.
//
// # Example
//
//	src/app.py!python.flask.open-redirect!1f2e3d4c#L10-12#C5-40
func (f Finding) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s!%s!%s#L%d-%d#C%d-%d",
		filepath.ToSlash(f.Path.Display()),
		f.RuleID(),
		f.BindingsHash(),
		f.Range.Start.Line, f.Range.End.Line,
		f.Range.Start.Col, f.Range.End.Col,
	)
	return b.String()
}

// BindingsHash returns the bindings segment of the fingerprint.
func (f Finding) BindingsHash() string {
	return bindingsHash(f.Bindings)
}

// bindingsHash returns the first 8 hex characters of the XXH3-64 hash of the
// bindings. XXH3 is not a security hash; it only needs to separate findings
// of one rule at one location.
func bindingsHash(b Bindings) string {
	var s strings.Builder
	for _, name := range b.Names() {
		s.WriteString(name)
		s.WriteByte('=')
		s.WriteString(b[name].Content)
		s.WriteByte(0)
	}
	return fmt.Sprintf("%016x", xxh3.HashString(s.String()))[:8]
}
