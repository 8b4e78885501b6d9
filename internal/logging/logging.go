// Package logging configures the process logger.
package logging

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "FRAMELINK_LOG_LEVEL"
	EnvLogNoColor = "FRAMELINK_LOG_NOCOLOR"
)

// New returns the runtime logger for app, honoring env overrides.
func New(app string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	if noColor, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		output.NoColor = noColor
	}
	logger := zerolog.New(output).Level(levelFromEnv()).With().Timestamp().Str("app", app).Logger()
	return logger
}

func levelFromEnv() zerolog.Level {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		return lvl
	}
	return zerolog.InfoLevel
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	default:
		return zerolog.NoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
