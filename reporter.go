package semmatch

import "io"

// Skipped is a target left out of the scan, with a machine readable reason.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report is everything a reporter writes: surviving findings plus the paths
// that were scanned or skipped. Errors holds non-fatal problems met while
// producing the findings, such as a target the engine failed on.
type Report struct {
	Version  string
	Findings []Finding
	Errors   []error
	Scanned  []string
	Skipped  []Skipped
}

// Reporter writes a report in one output format.
type Reporter interface {
	Write(w io.WriteCloser, report Report) error
}
