package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/peergap/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func newBuffered(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithWriter(&config.Config{Env: "development", LogLevel: level}, &buf), &buf
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" DEBUG ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_LevelIsPerLogger(t *testing.T) {
	before := zerolog.GlobalLevel()

	quiet, quietBuf := newBuffered("warn")
	loud, loudBuf := newBuffered("debug")

	assert.Equal(t, zerolog.WarnLevel, quiet.Level())
	assert.Equal(t, zerolog.DebugLevel, loud.Level())
	assert.Equal(t, before, zerolog.GlobalLevel())

	quiet.Info("candidate screen cached")
	loud.Debug("scoring candidates")

	assert.Empty(t, quietBuf.String())
	assert.Equal(t, "scoring candidates", decodeLine(t, loudBuf)["message"])
}

func TestLoggerLevels(t *testing.T) {
	log, buf := newBuffered("debug")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { log.Debug("scoring candidates") }, "scoring candidates", "debug"},
		{"info", func() { log.Info("peer discovery completed") }, "peer discovery completed", "info"},
		{"warn", func() { log.Warn("peer collection failed") }, "peer collection failed", "warn"},
		{"error", func() { log.Error("target collection failed") }, "target collection failed", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decodeLine(t, buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
			assert.Equal(t, "peergap", entry["service"])
			assert.Equal(t, "development", entry["env"])
		})
	}
}

func TestWithRunAndModule(t *testing.T) {
	log, buf := newBuffered("info")

	log.WithModule("comparative").
		WithRun("run-1", "WRB").
		WithError(errors.New("provider timeout")).
		Error("collection failed")

	entry := decodeLine(t, buf)
	assert.Equal(t, "comparative", entry["module"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "WRB", entry["symbol"])
	assert.Equal(t, "provider timeout", entry["error"])
}

func TestWithFields(t *testing.T) {
	log, buf := newBuffered("info")

	log.WithFields(map[string]interface{}{
		"symbol":    "WRB",
		"peers":     4,
		"min_score": 0.6,
	}).Info("analysis started")

	entry := decodeLine(t, buf)
	assert.Equal(t, "WRB", entry["symbol"])
	assert.Equal(t, float64(4), entry["peers"])
	assert.Equal(t, 0.6, entry["min_score"])
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	require.NotNil(t, log)

	// Must not panic or write anywhere
	log.WithModule("peers").WithRun("run-1", "WRB").Error("discarded")
}
