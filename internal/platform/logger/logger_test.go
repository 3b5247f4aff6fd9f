package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DualOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bizflow.log")
	var console bytes.Buffer

	l := New(Options{
		Env:          "prod",
		ConsoleLevel: "warn",
		FileLevel:    "debug",
		File:         logFile,
		App:          "bizflow-test",
		Console:      &console,
	})

	l.Debug("debug message")
	l.Warn("warn message")
	require.NoError(t, Close(l))

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "debug message")
	assert.Contains(t, string(content), `"app":"bizflow-test"`)

	assert.NotContains(t, console.String(), "debug message")
	assert.Contains(t, console.String(), "warn message")
}

func TestClose_WithoutFile(t *testing.T) {
	l := New(Options{Console: &bytes.Buffer{}})
	assert.NoError(t, Close(l))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in, slog.LevelWarn))
		})
	}
}

func jsonRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestRedactingHandler(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil), DefaultRedactKeys))

	l.Info("connect",
		slog.String("Password", "hunter2"),
		slog.String("target", "postgres://app:s3cret@db:5432/bizflow"),
		slog.Group("auth", slog.String("token", "abc")),
		slog.Int("attempt", 2),
	)

	rec := jsonRecord(t, &buf)
	assert.Equal(t, "[REDACTED]", rec["Password"])
	assert.Equal(t, "postgres://[REDACTED]@db:5432/bizflow", rec["target"])
	assert.Equal(t, map[string]any{"token": "[REDACTED]"}, rec["auth"])
	assert.Equal(t, float64(2), rec["attempt"])
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil), []string{"dsn"})).
		With(slog.String("dsn", "file:data.db"))
	l.Info("open")

	assert.Equal(t, "[REDACTED]", jsonRecord(t, &buf)["dsn"])
}

type status struct{}

func (status) Code() int       { return 40401 }
func (status) Message() string { return "item 7 not found" }

func TestResultAttrs(t *testing.T) {
	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("step", ResultAttrs(status{}))

	rec := jsonRecord(t, &buf)
	assert.Equal(t, map[string]any{"code": float64(40401), "message": "item 7 not found"}, rec["result"])
}

func TestMultiHandler_Levels(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	l := slog.New(h).With("k", "v")
	l.Info("hello")

	assert.True(t, strings.Contains(a.String(), "hello"))
	assert.Empty(t, b.String())
}
