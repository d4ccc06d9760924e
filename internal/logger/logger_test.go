package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONIncludesAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.With("run", "abc").Info("epoch done", "loss", 0.25)

	out := buf.String()
	assert.Contains(t, out, `"msg":"epoch done"`)
	assert.Contains(t, out, `"run":"abc"`)
	assert.Contains(t, out, `"loss":0.25`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelWarn)
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestForFormat(t *testing.T) {
	var buf bytes.Buffer
	ForFormat("JSON", &buf, slog.LevelInfo).Info("x")
	assert.Contains(t, buf.String(), `"msg":"x"`)

	buf.Reset()
	ForFormat("text", &buf, slog.LevelInfo).Info("x")
	assert.Contains(t, buf.String(), "msg=x")
}

func TestContextRoundTrip(t *testing.T) {
	log := Discard()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
