package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "mdlfm.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale line\n"), 0o644))

	log, err := New(Config{Output: "stderr", Level: "info", File: path})
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Warn().Msg("Reconnected to MPD")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.NotContains(t, content, "stale line")
	assert.NotContains(t, content, "hidden")
	assert.Contains(t, content, `"level":"warn"`)
	assert.Contains(t, content, "Reconnected to MPD")
}

func TestNew_CreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "mdlfm.log")

	_, err := New(Config{Output: "stderr", Level: "debug", File: path})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNew_UnwritableFile(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be opened as the log file
	_, err := New(Config{Output: "stderr", File: dir})
	assert.Error(t, err)
}
