package semmatch

import (
	"sort"
)

// MetavarValue is the code fragment a metavariable was bound to, together
// with the place it was captured from.
type MetavarValue struct {
	// Content is the source text of the captured fragment.
	Content string
	Range   Range
	// Propagated is the constant value the engine resolved for the fragment,
	// if any.
	Propagated *string
}

// Equal reports whether v and o captured the same content from the same
// place. Equal literals captured at different locations are different
// bindings.
func (v MetavarValue) Equal(o MetavarValue) bool {
	if v.Content != o.Content || v.Range != o.Range {
		return false
	}
	if (v.Propagated == nil) != (o.Propagated == nil) {
		return false
	}
	return v.Propagated == nil || *v.Propagated == *o.Propagated
}

// Bindings maps metavariable names (e.g. "$X") to their captured values.
type Bindings map[string]MetavarValue

// Equal reports whether b and o bind the same names to equal values.
func (b Bindings) Equal(o Bindings) bool {
	if len(b) != len(o) {
		return false
	}
	for name, v := range b {
		ov, ok := o[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Names returns the bound metavariable names in sorted order.
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contents returns a name to content map, used by validators and message
// interpolation.
func (b Bindings) Contents() map[string]string {
	m := make(map[string]string, len(b))
	for name, v := range b {
		m[name] = v.Content
	}
	return m
}
