// Package logging builds the zerolog loggers used across the module.
package logging

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a timestamped logger writing to w at the given level.
// Unknown levels fall back to info. With pretty, output is human readable.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel converts a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// RedirectStdLog sends output of the standard library logger, which some
// dependencies write to, through logger at the given level. The returned
// function restores the previous output and flags.
func RedirectStdLog(logger zerolog.Logger, level zerolog.Level) func() {
	prevOut, prevFlags := log.Writer(), log.Flags()

	log.SetFlags(0)
	log.SetOutput(stdLogWriter{logger: logger, level: level})

	return func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	}
}

type stdLogWriter struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func (w stdLogWriter) Write(p []byte) (int, error) {
	w.logger.WithLevel(w.level).Str("source", "stdlog").Msg(strings.TrimSpace(string(p)))
	return len(p), nil
}
