// Package testlog routes component logs through the test runner.
package testlog

import (
	"testing"

	"github.com/rs/zerolog"
)

// Logger returns a debug-level logger writing through t.Log.
func Logger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
