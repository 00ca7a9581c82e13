package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/semmatch/semmatch"
)

type CsvReporter struct {
}

var _ semmatch.Reporter = (*CsvReporter)(nil)

func (r *CsvReporter) Write(w io.WriteCloser, report semmatch.Report) error {
	if len(report.Findings) == 0 {
		return nil
	}

	var (
		cw  = csv.NewWriter(w)
		err error
	)
	columns := []string{"RuleID",
		"File",
		"StartLine",
		"EndLine",
		"StartColumn",
		"EndColumn",
		"Severity",
		"Message",
		"Engine",
		"Validation",
		"Fingerprint",
		"Lines",
	}

	if err = cw.Write(columns); err != nil {
		return err
	}
	for _, f := range report.Findings {
		row := []string{f.RuleID(),
			f.Path.Display(),
			strconv.Itoa(f.Range.Start.Line),
			strconv.Itoa(f.Range.End.Line),
			strconv.Itoa(f.Range.Start.Col),
			strconv.Itoa(f.Range.End.Col),
			string(f.Severity()),
			f.Message(),
			string(f.Engine),
			string(f.ValidationState),
			f.Fingerprint(),
			f.Lines(),
		}

		if err = cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
