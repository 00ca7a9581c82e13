package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/semmatch/semmatch"
)

type JsonReporter struct {
}

var _ semmatch.Reporter = (*JsonReporter)(nil)

type jsonReport struct {
	Version string             `json:"version"`
	Results []semmatch.Finding `json:"results"`
	Errors  []jsonError        `json:"errors"`
	Paths   jsonPaths          `json:"paths"`
}

type jsonError struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type jsonPaths struct {
	Scanned []string           `json:"scanned"`
	Skipped []semmatch.Skipped `json:"skipped,omitempty"`
}

func (t *JsonReporter) Write(w io.WriteCloser, report semmatch.Report) error {
	out := jsonReport{
		Version: report.Version,
		Results: report.Findings,
		Errors:  make([]jsonError, 0, len(report.Errors)),
		Paths: jsonPaths{
			Scanned: report.Scanned,
			Skipped: report.Skipped,
		},
	}
	if out.Results == nil {
		out.Results = []semmatch.Finding{}
	}
	if out.Paths.Scanned == nil {
		out.Paths.Scanned = []string{}
	}
	for _, err := range report.Errors {
		out.Errors = append(out.Errors, jsonError{Level: "error", Message: err.Error()})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", " ")
	return encoder.Encode(out)
}

// ReadJSON reads a findings report in the shape JsonReporter writes. Engine
// output uses the same shape, so this is also how raw findings enter the
// pipeline. Findings read back carry no AST reference and their lazy fields
// are already computed.
func ReadJSON(r io.Reader) (semmatch.Report, error) {
	var in jsonReport
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return semmatch.Report{}, fmt.Errorf("could not decode findings report: %w", err)
	}
	report := semmatch.Report{
		Version:  in.Version,
		Findings: in.Results,
		Scanned:  in.Paths.Scanned,
		Skipped:  in.Paths.Skipped,
	}
	for _, e := range in.Errors {
		report.Errors = append(report.Errors, errors.New(e.Message))
	}
	return report, nil
}
