package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/semmatch/semmatch"
	"github.com/semmatch/semmatch/logging"
	"github.com/semmatch/semmatch/report"
	"github.com/semmatch/semmatch/scan"
	"github.com/semmatch/semmatch/validate"
	"github.com/semmatch/semmatch/version"
)

func init() {
	rootCmd.AddCommand(postprocessCmd)
	postprocessCmd.Flags().StringP("input", "i", "", "JSON findings written by the matching engine (use \"-\" for stdin)")
	postprocessCmd.Flags().String("pro-input", "", "JSON findings written by the extended engine")
	postprocessCmd.Flags().StringP("format", "f", "json", "output format (json, sarif, csv, text)")
	postprocessCmd.Flags().StringP("report-path", "r", "-", "report file (use \"-\" for stdout)")
	postprocessCmd.Flags().String("ignore-path", ".", "path to "+scan.IgnoreFileName+" file or folder containing one")
	postprocessCmd.Flags().StringP("baseline-path", "b", "", "path to a previous JSON report; findings it holds are dropped")
	_ = postprocessCmd.MarkFlagRequired("input")
}

var postprocessCmd = &cobra.Command{
	Use:   "postprocess",
	Short: "deduplicate, filter, validate and report engine findings",
	Run:   runPostprocess,
}

func runPostprocess(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := loadConfig(cmd)

	raw, err := readReport(mustGetStringFlag(cmd, "input"))
	if err != nil {
		logging.Fatal().Err(err).Msg("could not read engine findings")
	}
	findings := raw.Findings

	if proPath := mustGetStringFlag(cmd, "pro-input"); proPath != "" {
		pro, err := readReport(proPath)
		if err != nil {
			logging.Fatal().Err(err).Msg("could not read extended engine findings")
		}
		for _, f := range pro.Findings {
			findings = append(findings, semmatch.MarkExtended(f))
		}
		raw.Errors = append(raw.Errors, pro.Errors...)
	}

	p := &scan.Pipeline{
		Ignore: scan.LoadIgnoreFiles(mustGetStringFlag(cmd, "ignore-path"), cfg.Targets.ProjectRoot),
	}
	if len(cfg.Validators) > 0 {
		p.Validator, err = validate.New(cfg.Validators)
		if err != nil {
			logging.Fatal().Err(err).Msg("could not compile validators")
		}
		logging.Debug().Int("rules", p.Validator.Rules()).Msg("validators loaded")
	}
	if baselinePath := mustGetStringFlag(cmd, "baseline-path"); baselinePath != "" {
		p.Baseline, err = scan.LoadBaseline(baselinePath)
		if err != nil {
			logging.Fatal().Err(err).Msg("Could not load baseline")
		}
	}

	out, err := p.Postprocess(cmd.Context(), findings)
	if err != nil {
		logPartialErrors(err)
		raw.Errors = append(raw.Errors, err)
	}

	logging.Info().
		Int("in", len(findings)).
		Int("out", len(out)).
		Msgf("post-processing done in %s", FormatDuration(time.Since(start)))

	if err := writeReport(cmd, semmatch.Report{
		Version:  version.Version,
		Findings: out,
		Errors:   raw.Errors,
		Scanned:  raw.Scanned,
		Skipped:  raw.Skipped,
	}); err != nil {
		logging.Fatal().Err(err).Msg("could not write report")
	}
}

func readReport(path string) (semmatch.Report, error) {
	if path == "-" {
		return report.ReadJSON(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return semmatch.Report{}, err
	}
	defer f.Close()
	r, err := report.ReadJSON(f)
	if err != nil {
		return semmatch.Report{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func writeReport(cmd *cobra.Command, r semmatch.Report) error {
	w, err := openOutput(mustGetStringFlag(cmd, "report-path"))
	if err != nil {
		return err
	}
	reporter, err := report.New(mustGetStringFlag(cmd, "format"), noColor(cmd, w))
	if err != nil {
		w.Close()
		return err
	}
	if err := reporter.Write(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// FormatDuration rounds d to a readable precision.
func FormatDuration(d time.Duration) string {
	scale := 100 * time.Second
	// look for the max scale that is smaller than d
	for scale > d {
		scale = scale / 10
	}
	return d.Round(scale / 100).String()
}
