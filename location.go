package semmatch

import "fmt"

// Position is a point in a source file. Line and Col are 1-based, Offset is
// the 0-based byte offset from the start of the file.
type Position struct {
	Line   int `json:"line"`
	Col    int `json:"col"`
	Offset int `json:"offset"`
}

// Before reports whether p comes strictly before o in document order.
func (p Position) Before(o Position) bool {
	return p.Offset < o.Offset
}

func (p Position) String() string {
	return fmt.Sprintf("L%dC%d", p.Line, p.Col)
}

// Range is the span of source text a finding covers. Range is comparable and
// is used directly as a map key when grouping findings by location.
type Range struct {
	Start Position
	End   Position
}

// Valid reports whether the range starts at or before its end. Zero-width
// ranges are valid.
func (r Range) Valid() bool {
	return !r.End.Before(r.Start)
}

// Contains reports whether o lies inside r, endpoints included.
func (r Range) Contains(o Range) bool {
	return r.Start.Offset <= o.Start.Offset && o.End.Offset <= r.End.Offset
}

// StrictlyContains reports whether o lies inside r and does not span the
// same bytes.
func (r Range) StrictlyContains(o Range) bool {
	return (r.Start.Offset != o.Start.Offset || r.End.Offset != o.End.Offset) && r.Contains(o)
}

// Lines reports whether the line span of r intersects [start, end].
func (r Range) Lines(start, end int) bool {
	return r.Start.Line <= end && start <= r.End.Line
}

func (r Range) String() string {
	return fmt.Sprintf("[%s,%s]", r.Start, r.End)
}
