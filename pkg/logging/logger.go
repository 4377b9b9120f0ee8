// Package logging provides structured logging for homewire using zerolog.
// Console output is used when stderr is a terminal, JSON otherwise.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("kind", "FLAT").Msg("Subscribed")
//
//	ctx := logging.WithEntityKind(context.Background(), "HOUSE")
//	logging.FromContext(ctx).Warn().Str("reason", "unknown action").Msg("Frame dropped")
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// defaultLogger is used by every component that is not given one.
	defaultLogger zerolog.Logger

	// Nop logger for discarding output.
	Nop = zerolog.Nop()
)

func init() {
	defaultLogger = defaultFromEnv()
}

// defaultFromEnv builds the process-wide logger from the LOG_* variables.
// HOMEWIRE_DEBUG lowers the level to debug when LOG_LEVEL is unset.
func defaultFromEnv() zerolog.Logger {
	cfg := ConfigFromEnv()
	if os.Getenv("LOG_LEVEL") == "" && os.Getenv("HOMEWIRE_DEBUG") != "" {
		cfg.Level = "debug"
	}
	return NewLoggerFromConfig(cfg)
}

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the default logger and zerolog's global one.
// Components keep the pointer from Default, so they see the change.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a JSON logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
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

// Err creates a new error log event with the given error.
func Err(err error) *zerolog.Event {
	return defaultLogger.Err(err)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
