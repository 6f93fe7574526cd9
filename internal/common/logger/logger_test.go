package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestZapAdapter_WithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	child := log.With(map[string]interface{}{"component": "pipeline"})
	child.Info("turn processed", map[string]interface{}{"sessionId": "s-1"})

	entries := logs.All()
	assert.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "pipeline", ctx["component"])
	assert.Equal(t, "s-1", ctx["sessionId"])
}

func TestZapAdapter_ErrorFieldsAreNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.Error("store failed", map[string]interface{}{"cause": errors.New("connection refused")})
	log.WithError(errors.New("boom")).Warn("degraded", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "connection refused", entries[0].ContextMap()["cause"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNewWithOptions_Formats(t *testing.T) {
	assert.NotNil(t, NewWithOptions(Options{Level: "debug", Format: "json", Output: "stderr"}))
	assert.NotNil(t, New("info", "console"))
	assert.NotNil(t, NewNoOpLogger())
	assert.NotNil(t, NewTestLogger(t))
}
