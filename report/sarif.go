package report

import (
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/semmatch/semmatch"
)

const (
	driverName     = "semmatch"
	driverInfoURI  = "https://github.com/semmatch/semmatch"
	fingerprintKey = "matchBasedId/v1"
)

// SarifReporter writes SARIF 2.1.0 with one run. Rules are collected from the
// findings in the order they first appear.
type SarifReporter struct {
}

var _ semmatch.Reporter = (*SarifReporter)(nil)

func (r *SarifReporter) Write(w io.WriteCloser, report semmatch.Report) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI(driverName, driverInfoURI)
	if report.Version != "" {
		version := report.Version
		run.Tool.Driver.Version = &version
	}

	for _, f := range report.Findings {
		rule := run.AddRule(f.RuleID())
		if rule.DefaultConfiguration == nil && f.Rule != nil {
			rule.WithDescription(f.Rule.Message).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: sarifLevel(f.Rule.Severity),
				})
		}

		path := f.Path.Display()
		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(f.Message())).
			WithLevel(sarifLevel(f.Severity())).
			WithLocations([]*sarif.Location{sarifLocation(path, f.Range, "")}).
			WithPartialFingerPrints(map[string]interface{}{fingerprintKey: f.Fingerprint()})

		if t := f.TaintTrace(); t != nil {
			result.WithCodeFlows([]*sarif.CodeFlow{sarifCodeFlow(path, t)})
		}
		if f.ValidationState != semmatch.NotValidated {
			result.Properties = sarif.Properties{"validation_state": string(f.ValidationState)}
		}
		run.AddResult(result)
	}
	doc.AddRun(run)

	return doc.PrettyWrite(w)
}

func sarifLocation(path string, r semmatch.Range, message string) *sarif.Location {
	loc := sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(path)).
			WithRegion(sarif.NewRegion().
				WithStartLine(r.Start.Line).
				WithStartColumn(r.Start.Col).
				WithEndLine(r.End.Line).
				WithEndColumn(r.End.Col)),
	)
	if message != "" {
		loc.WithMessage(sarif.NewTextMessage(message))
	}
	return loc
}

// sarifCodeFlow renders a taint trace as a single thread flow: the innermost
// source, the intermediate tokens, then the sink.
func sarifCodeFlow(path string, t *semmatch.TaintTrace) *sarif.CodeFlow {
	source := t.Source.Innermost()
	steps := []*sarif.ThreadFlowLocation{
		{Location: sarifLocation(path, source.Range, "Source: "+source.Content)},
	}
	for _, tok := range t.Intermediate {
		steps = append(steps, &sarif.ThreadFlowLocation{
			Location: sarifLocation(path, tok.Range, "Propagator: "+tok.Content),
		})
	}
	steps = append(steps, &sarif.ThreadFlowLocation{
		Location: sarifLocation(path, t.Sink.Range, "Sink: "+t.Sink.Content),
	})

	return sarif.NewCodeFlow().
		WithMessage(sarif.NewTextMessage("Untrusted dataflow from " + source.Content + " to " + t.Sink.Content)).
		WithThreadFlows([]*sarif.ThreadFlow{sarif.NewThreadFlow().WithLocations(steps)})
}

func sarifLevel(s semmatch.Severity) string {
	switch semmatch.Severity(strings.ToUpper(string(s))) {
	case semmatch.SeverityError, semmatch.SeverityHigh, semmatch.SeverityCritical:
		return "error"
	case semmatch.SeverityWarning, semmatch.SeverityMedium:
		return "warning"
	case semmatch.SeverityInfo, semmatch.SeverityLow:
		return "note"
	default:
		return "none"
	}
}
