package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level))
		})
	}
}

func TestNew_TeesExtraCore(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	l := New(Config{Level: "error", Format: "json", Output: "stderr"},
		WithCore(core),
		WithFields(zap.String("service", "shop")),
	)
	l.Info("hello")

	entries := recorded.FilterMessage("hello").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "shop", entries[0].ContextMap()["service"])
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l := New(Config{Level: "info", Format: "json", Output: path})
	l.Info("written")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written"`)
}
