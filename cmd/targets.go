package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/semmatch/semmatch"
	"github.com/semmatch/semmatch/logging"
	"github.com/semmatch/semmatch/targets"
)

func init() {
	rootCmd.AddCommand(targetsCmd)
	targetsCmd.Flags().StringSlice("lang", []string{}, "only keep files of these languages (repeatable)")
	targetsCmd.Flags().Bool("by-size", false, "list the largest targets first")
	targetsCmd.Flags().StringP("report-path", "r", "-", "output file (use \"-\" for stdout)")
}

var targetsCmd = &cobra.Command{
	Use:   "targets [flags] [path...]",
	Short: "list the files a scan would cover and why others are skipped",
	Run:   runTargets,
}

type targetJSON struct {
	Path     string `json:"path"`
	Origin   string `json:"origin,omitempty"`
	Size     int64  `json:"size"`
	Language string `json:"language,omitempty"`
}

type targetsJSON struct {
	Targets []targetJSON       `json:"targets"`
	Skipped []semmatch.Skipped `json:"skipped"`
	Errors  []string           `json:"errors,omitempty"`
}

func runTargets(cmd *cobra.Command, args []string) {
	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}
	cfg := loadConfig(cmd)
	langs := targets.NewLanguages(mustGetStringSliceFlag(cmd, "lang")...)

	result, err := targets.Discover(cmd.Context(), cfg.Targets, roots, langs)
	out := targetsJSON{
		Targets: make([]targetJSON, 0, len(result.Targets)),
		Skipped: result.SkippedReport(),
	}
	if err != nil {
		logPartialErrors(err)
		out.Errors = append(out.Errors, err.Error())
	}

	if mustGetBoolFlag(cmd, "by-size") {
		targets.SortBySize(result.Targets)
	}
	for _, t := range result.Targets {
		tj := targetJSON{Path: t.Path, Size: t.Size, Language: t.Language}
		if t.Origin != t.Path {
			tj.Origin = t.Origin
		}
		out.Targets = append(out.Targets, tj)
	}

	logging.Debug().
		Int("targets", len(result.Targets)).
		Int("skipped", len(result.Skipped)).
		Msg("discovery done")

	w, err := openOutput(mustGetStringFlag(cmd, "report-path"))
	if err != nil {
		logging.Fatal().Err(err).Msg("could not open output")
	}
	defer w.Close()

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", " ")
	if err := encoder.Encode(out); err != nil {
		logging.Fatal().Err(err).Msg("could not write targets")
	}
}
