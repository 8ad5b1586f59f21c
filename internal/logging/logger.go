// Package logging builds the zerolog logger shared by the server and services.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/config"
)

// New returns a logger writing to stdout. Development and test get a
// console writer; every other environment logs JSON.
func New(env config.Environment, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env.UsesConsoleLogs() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	return NewWithWriter(out, level).With().Str("env", string(env)).Logger()
}

// NewWithWriter returns a timestamped logger at the given level writing to w.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
