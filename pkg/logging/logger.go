// Package logging provides structured logging for uppbod using zerolog.
//
// Every sync run attaches its run ID and run timestamp to a context-carried
// logger, so per-record diagnostics can be traced back to the run that
// produced them:
//
//	ctx = logging.WithRun(ctx, runID, fetchedAt)
//	logging.FromContext(ctx).Warn().Str("identity", id).Msg("malformed date")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger zerolog.Logger

// Nop discards everything.
var Nop = zerolog.Nop()

func init() {
	defaultLogger = createDefaultLogger()
}

func createDefaultLogger() zerolog.Logger {
	var writer io.Writer = os.Stderr
	if isTerminal(os.Stderr) && os.Getenv("LOG_FORMAT") != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	if os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a logger writing JSON to w at the global level.
func New(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

// Debug starts a new debug level log event.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info starts a new info level log event.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn starts a new warning level log event.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error starts a new error level log event.
func Error() *zerolog.Event {
	return defaultLogger.Error()
}
