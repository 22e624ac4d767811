package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	require.NoError(t, Init("debug", "console"))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("warn", ""))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
}

func TestInit_Invalid(t *testing.T) {
	assert.Error(t, Init("loud", "json"))
	assert.Error(t, Init("info", "xml"))
}

func TestForRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ForRun("run-1", "1.21.4").Info("artifact written")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "1.21.4", fields["version"])
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	With(zap.String("version_dir", "1.21")).Warn("schema drift")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "1.21", logs.All()[0].ContextMap()["version_dir"])
}
