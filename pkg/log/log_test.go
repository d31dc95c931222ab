package log

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	opts := NewOptions()
	opts.Format = "json"
	opts.Level = "info"
	opts.OutputPaths = []string{path}

	l := NewLogger(opts)
	l.Debug("hidden")
	l.WithName("registry").Info("Hydrated vehicle registry", "selected", 1)
	l.WithValues("device", "d1").Error(errors.New("boom"), "Failed")
	require.NoError(t, l.(*zapLogger).core.Sync())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "Hydrated vehicle registry", lines[0]["message"])
	assert.Equal(t, "registry", lines[0]["logger"])
	assert.EqualValues(t, 1, lines[0]["selected"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "d1", lines[1]["device"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}

	l := NewLogger(&Options{Level: "error", Format: "console", OutputPaths: []string{filepath.Join(t.TempDir(), "x.log")}}).(*zapLogger)
	assert.False(t, l.core.Core().Enabled(zapcore.InfoLevel))
	l.level.SetLevel(parseLevel("debug"))
	assert.True(t, l.core.Core().Enabled(zapcore.DebugLevel))
}

func TestOptions_Validate(t *testing.T) {
	assert.Empty(t, NewOptions().Validate())

	o := NewOptions()
	o.Format = "xml"
	assert.NotEmpty(t, o.Validate())
}
