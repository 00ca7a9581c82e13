package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/semmatch/semmatch/config"
	"github.com/semmatch/semmatch/logging"
	"github.com/semmatch/semmatch/version"
)

const configDescription = `config file path
order of precedence:
1. --config/-c
2. env var SEMMATCH_CONFIG
3. env var SEMMATCH_CONFIG_TOML with the file content
If none of the three options are used, then semmatch will use the default config`

var rootCmd = &cobra.Command{
	Use:     "semmatch",
	Short:   "semmatch post-processes and reports semantic code-search findings",
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set the timeout for all the commands
		if timeout, err := cmd.Flags().GetInt("timeout"); err != nil {
			return err
		} else if timeout > 0 {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			cmd.SetContext(ctx)
			cobra.OnFinalize(cancel)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initLog)
	rootCmd.PersistentFlags().StringP("config", "c", "", configDescription)
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().BoolP("no-color", "", false, "turn off color for text output")
	rootCmd.PersistentFlags().Int("timeout", 0, "set a timeout for semmatch commands in seconds (default \"0\", no timeout is set)")
}

func initLog() {
	ll, err := rootCmd.Flags().GetString("log-level")
	if err != nil {
		logging.Fatal().Msg(err.Error())
	}

	level, err := logging.ParseLevel(strings.ToLower(ll))
	if err != nil {
		logging.Warn().Msgf("unknown log level: %s", ll)
		return
	}
	logging.Logger = logging.Logger.Level(level)
}

// loadConfig resolves the configuration from --config or the environment,
// falling back to the defaults.
func loadConfig(cmd *cobra.Command) config.Config {
	cfgPath := mustGetStringFlag(cmd, "config")
	switch {
	case cfgPath != "":
		logging.Debug().Msgf("using semmatch config %s from `--config`", cfgPath)
	case os.Getenv("SEMMATCH_CONFIG") != "":
		cfgPath = os.Getenv("SEMMATCH_CONFIG")
		logging.Debug().Msgf("using semmatch config from SEMMATCH_CONFIG env var: %s", cfgPath)
	case os.Getenv("SEMMATCH_CONFIG_TOML") != "":
		cfg, err := config.Parse([]byte(os.Getenv("SEMMATCH_CONFIG_TOML")))
		if err != nil {
			logging.Fatal().Err(err).Msg("unable to load semmatch config from SEMMATCH_CONFIG_TOML env var")
		}
		logging.Debug().Msg("using semmatch config from SEMMATCH_CONFIG_TOML env var content")
		return cfg
	default:
		logging.Debug().Msg("no semmatch config given, using default config")
		return config.Default()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load config")
	}
	return cfg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if strings.Contains(err.Error(), "unknown flag") {
			// exit code 126: Command invoked cannot execute
			os.Exit(126)
		}
		logging.Fatal().Msg(err.Error())
	}
}

// noColor reports whether text output should be plain: --no-color was given
// or the output is not a terminal.
func noColor(cmd *cobra.Command, w io.Writer) bool {
	if mustGetBoolFlag(cmd, "no-color") {
		return true
	}
	if nc, ok := w.(nopCloser); ok {
		w = nc.Writer
	}
	f, ok := w.(*os.File)
	return !ok || (!isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()))
}

// openOutput returns stdout for "" and "-", and a created file otherwise.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create report %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// logPartialErrors logs every error joined into err.
func logPartialErrors(err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			logging.Error().Err(e).Msg("partial failure")
		}
		return
	}
	logging.Error().Err(err).Msg("partial failure")
}

func mustGetBoolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		logging.Fatal().Err(err).Msgf("could not get flag: %s", name)
	}
	return value
}

func mustGetStringFlag(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		logging.Fatal().Err(err).Msgf("could not get flag: %s", name)
	}
	return value
}

func mustGetStringSliceFlag(cmd *cobra.Command, name string) []string {
	value, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		logging.Fatal().Err(err).Msgf("could not get flag: %s", name)
	}
	return value
}
