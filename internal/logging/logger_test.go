package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{in: "trace", want: zerolog.TraceLevel},
		{in: "debug", want: zerolog.DebugLevel},
		{in: "info", want: zerolog.InfoLevel},
		{in: "warn", want: zerolog.WarnLevel},
		{in: "warning", want: zerolog.WarnLevel},
		{in: "error", want: zerolog.ErrorLevel},
		{in: "fatal", want: zerolog.FatalLevel},
		{in: "bogus", want: zerolog.InfoLevel},
		{in: "", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	log := NewLogger(Config{Level: "warn", NoColor: true})
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestNewLoggerQuietRaisesLevel(t *testing.T) {
	t.Parallel()

	log := NewLogger(Config{Level: "debug", Quiet: true, NoColor: true})
	assert.Equal(t, zerolog.ErrorLevel, log.GetLevel())
}

func TestNewLoggerCreatesFileDirectory(t *testing.T) {
	t.Parallel()

	logFile := filepath.Join(t.TempDir(), "nested", "binstall.log")
	log := NewLogger(Config{Level: "info", LogFile: logFile, NoColor: true})
	require.NotNil(t, log)

	_, err := os.Stat(filepath.Dir(logFile))
	assert.NoError(t, err)
}

func TestTestLoggerWritesJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewTestLogger(&buf)
	log.Info().Str("tool", "just").Msg("resolved artifact")

	out := buf.String()
	assert.Contains(t, out, `"tool":"just"`)
	assert.Contains(t, out, "resolved artifact")
}
