package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. Commands adjust its level; library code
// logs through the helpers below.
var Logger zerolog.Logger

func init() {
	Logger = New(os.Stderr, zerolog.InfoLevel)
}

// New returns a console logger writing to w. Colour is used only when w is a
// terminal.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: noColor}).
		Level(level).
		With().Timestamp().Logger()
}

// ParseLevel maps a --log-level value to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "err" {
		s = "error"
	}
	return zerolog.ParseLevel(s)
}

func With() zerolog.Context {
	return Logger.With()
}

func Trace() *zerolog.Event {
	return Logger.Trace()
}

func Debug() *zerolog.Event {
	return Logger.Debug()
}

func Info() *zerolog.Event {
	return Logger.Info()
}

func Warn() *zerolog.Event {
	return Logger.Warn()
}

func Error() *zerolog.Event {
	return Logger.Error()
}

func Fatal() *zerolog.Event {
	return Logger.Fatal()
}
