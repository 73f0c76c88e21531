// Package logging configures the process-wide structured logger.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog's global level and output and returns the
// root logger. Pretty enables human-readable console output for local
// runs; the default is JSON lines.
func Setup(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	logger := log.Logger
	if pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.With().Timestamp().Logger()
}
