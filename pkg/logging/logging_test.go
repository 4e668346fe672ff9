package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/sysmonitor/pkg/config"
)

func TestBuildWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sysmonitor.log")
	cfg := config.Default().Log
	cfg.Format = FormatJSON
	cfg.File = path

	logger, closer, err := NewBuilder(cfg).WithConsole(nil).WithRunID("run-1").Build()
	require.NoError(t, err)
	logger.Info().Int("pid", 42).Msg("Optimized process")
	logger.Debug().Msg("dropped below level")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, float64(42), entry["pid"])
	assert.Equal(t, "Optimized process", entry["message"])
}

func TestBuildConsoleFormats(t *testing.T) {
	for _, format := range []string{FormatConsole, FormatText} {
		var buf bytes.Buffer
		cfg := config.Default().Log
		cfg.Format = format

		logger, _, err := NewBuilder(cfg).WithConsole(&buf).Build()
		require.NoError(t, err, format)
		logger.Warn().Str("path", "/etc/x").Msg("Ignoring config reload")

		out := buf.String()
		assert.Contains(t, out, "Ignoring config reload", format)
		assert.Contains(t, out, "path=", format)
		assert.NotContains(t, out, "{", format)
	}
}

func TestBuildWithoutWriters(t *testing.T) {
	logger, closer, err := NewBuilder(config.Default().Log).WithConsole(nil).Build()
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
	assert.NoError(t, closer.Close())
}

func TestBuildRejectsBadLevel(t *testing.T) {
	cfg := config.Default().Log
	cfg.Level = "chatty"
	_, _, err := NewBuilder(cfg).Build()
	assert.ErrorContains(t, err, "invalid log level")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"DEBUG": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
