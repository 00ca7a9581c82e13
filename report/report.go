package report

import (
	"fmt"
	"strings"

	"github.com/semmatch/semmatch"
)

// Formats lists the accepted values of New's format argument.
var Formats = []string{"json", "sarif", "csv", "text"}

// New returns the reporter for format.
func New(format string, noColor bool) (semmatch.Reporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return &JsonReporter{}, nil
	case "sarif":
		return &SarifReporter{}, nil
	case "csv":
		return &CsvReporter{}, nil
	case "text":
		return &TextReporter{NoColor: noColor}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q, expected one of %s", format, strings.Join(Formats, ", "))
	}
}
