package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/semmatch/semmatch"
)

var (
	linesStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5d445"))
	severeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f05c07"))
	ruleStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle = lipgloss.NewStyle().Italic(true)
)

const maxLinesWidth = 120

// TextReporter writes findings for a human reader, one block per finding.
type TextReporter struct {
	NoColor bool
}

var _ semmatch.Reporter = (*TextReporter)(nil)

func (r *TextReporter) Write(w io.WriteCloser, report semmatch.Report) error {
	for _, f := range report.Findings {
		if err := r.writeFinding(w, f); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%d findings, %d files scanned, %d skipped",
		len(report.Findings), len(report.Scanned), len(report.Skipped))
	if len(report.Errors) > 0 {
		summary += fmt.Sprintf(", %d errors", len(report.Errors))
	}
	_, err := fmt.Fprintln(w, r.render(summaryStyle, summary))
	return err
}

func (r *TextReporter) writeFinding(w io.Writer, f semmatch.Finding) error {
	var b strings.Builder

	severity := string(f.Severity())
	switch f.Severity() {
	case semmatch.SeverityError, semmatch.SeverityHigh, semmatch.SeverityCritical:
		severity = r.render(severeStyle, severity)
	}

	fmt.Fprintf(&b, "%-12s %s\n", "Finding:", f.Message())
	fmt.Fprintf(&b, "%-12s %s\n", "RuleID:", r.render(ruleStyle, f.RuleID()))
	fmt.Fprintf(&b, "%-12s %s\n", "Severity:", severity)
	fmt.Fprintf(&b, "%-12s %s\n", "File:", f.Path.Display())
	fmt.Fprintf(&b, "%-12s %d\n", "Line:", f.Range.Start.Line)
	if lines := strings.TrimSpace(f.Lines()); lines != "" {
		lines = truncate(lines, maxLinesWidth)
		fmt.Fprintf(&b, "%-12s %s\n", "Lines:", r.render(linesStyle, lines))
	}
	if f.Engine == semmatch.EnginePro {
		fmt.Fprintf(&b, "%-12s %s\n", "Engine:", f.Engine)
	}
	if f.ValidationState != semmatch.NotValidated {
		fmt.Fprintf(&b, "%-12s %s\n", "Validation:", f.ValidationState)
	}
	if t := f.TaintTrace(); t != nil {
		fmt.Fprintf(&b, "%-12s %s -> %s\n", "Taint:", t.Source.Innermost().Content, t.Sink.Content)
	}
	fmt.Fprintf(&b, "%-12s %s\n", "Fingerprint:", f.Fingerprint())
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// truncate cuts s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func (r *TextReporter) render(s lipgloss.Style, text string) string {
	if r.NoColor {
		return text
	}
	return s.Render(text)
}
