package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "dealer", Value: "d-0042"}, String("dealer", "d-0042"))
	assert.Equal(t, Field{Key: "count", Value: 3}, Int("count", 3))
	assert.Equal(t, Field{Key: "score", Value: 87.5}, Float64("score", 87.5))
	assert.Equal(t, Field{Key: "cached", Value: true}, Bool("cached", true))
	assert.Equal(t, Field{Key: "elapsed", Value: 2 * time.Second}, Duration("elapsed", 2*time.Second))
}

func TestErrField(t *testing.T) {
	f := Err(errors.New("provider unavailable"))
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "provider unavailable", f.Value)

	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestZapLoggerEmitsFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core)

	log.Info("score computed",
		String("dealer_id", "d-0042"),
		Float64("aiv", 72.4),
		Int("queries", 8),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "score computed", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "d-0042", fields["dealer_id"])
	assert.Equal(t, 72.4, fields["aiv"])
	assert.Equal(t, int64(8), fields["queries"])
}

func TestWithAttachesFieldsToChildOnly(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core)

	child := log.With(String("component", "batch"))
	child.Info("started")
	log.Info("parent entry")

	entries := observed.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "batch", entries[0].ContextMap()["component"])
	assert.NotContains(t, entries[1].ContextMap(), "component")
}

func TestNamed(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core).Named("worker").Named("batch")

	log.Info("tick")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "worker.batch", entries[0].LoggerName)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewLoggerDefaults(t *testing.T) {
	log, err := NewLogger(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
	log.Info("default config smoke test")
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Info("discarded", String("k", "v"))
	assert.Equal(t, log, log.With(String("k", "v")))
	assert.Equal(t, log, log.Named("sub"))
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	core, observed := observer.New(zapcore.DebugLevel)
	SetDefault(NewLoggerFromCore(core))
	Default().Info("via default")

	require.Len(t, observed.All(), 1)

	// nil must be ignored, not installed.
	SetDefault(nil)
	assert.NotNil(t, Default())
}
