package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		verbose   bool
		format    Format
		wantDebug bool
	}{
		{"quiet console", false, FormatConsole, false},
		{"verbose console", true, FormatConsole, true},
		{"quiet json", false, FormatJSON, false},
		{"verbose json", true, FormatJSON, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger, err := New(tc.verbose, tc.format)
			require.NoError(t, err)
			require.NotNil(t, logger)
			defer logger.Sync() //nolint:errcheck // best-effort flush

			assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
			assert.Equal(t, tc.wantDebug, logger.Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestConfigEncoding(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "console", Config(false, FormatConsole).Encoding)
	assert.Equal(t, "json", Config(false, FormatJSON).Encoding)
	assert.Equal(t, []string{"stderr"}, Config(true, FormatJSON).OutputPaths)
}

func TestJSONOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sitefix.log")
	cfg := Config(false, FormatJSON)
	cfg.OutputPaths = []string{path}
	logger, err := cfg.Build()
	require.NoError(t, err)

	logger.Info("Checked 2 files", zap.String("run_id", "abc"))
	logger.Debug("dropped")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Checked 2 files", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Contains(t, entry, "ts")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": FormatConsole, "console": FormatConsole, " JSON ": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.ErrorContains(t, err, "unknown log format")
}

func TestNewNop(t *testing.T) {
	t.Parallel()

	logger := NewNop()
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
	logger.Info("discarded")
}
