package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// swapLogger installs l as the global logger and restores a nop logger when
// the test finishes.
func swapLogger(t *testing.T, l *zap.Logger) {
	t.Helper()
	active.Store(l)
	t.Cleanup(func() { active.Store(zap.NewNop()) })
}

func TestInitHonoursLevel(t *testing.T) {
	t.Cleanup(func() { active.Store(zap.NewNop()) })

	require.NoError(t, Init("debug"))
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("warn"))
	require.False(t, Logger().Core().Enabled(zap.InfoLevel))
	require.True(t, Logger().Core().Enabled(zap.WarnLevel))
}

func TestInitFallsBackToInfoOnUnknownLevel(t *testing.T) {
	t.Cleanup(func() { active.Store(zap.NewNop()) })

	require.NoError(t, Init("chatty"))
	require.True(t, Logger().Core().Enabled(zap.InfoLevel))
	require.False(t, Logger().Core().Enabled(zap.DebugLevel))
}

func TestPackageHelpersUseGlobalLogger(t *testing.T) {
	core, recorded := observer.New(zap.DebugLevel)
	swapLogger(t, zap.New(core))

	Info("created", zap.String("project", "apollo"))
	Warn("slow query")
	Error("send failed")
	Debug("cache miss")

	entries := recorded.All()
	require.Len(t, entries, 4)
	require.Equal(t, "created", entries[0].Message)
	require.Equal(t, "apollo", entries[0].ContextMap()["project"])
	require.Equal(t, zap.WarnLevel, entries[1].Level)
	require.Equal(t, zap.ErrorLevel, entries[2].Level)
	require.Equal(t, zap.DebugLevel, entries[3].Level)
}

func TestWithModuleTagsEntries(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	swapLogger(t, zap.New(core))

	WithModule("reminders").Info("tick")

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "reminders", entries[0].ContextMap()["module"])
}
