// Package logger holds the process-wide zap logger. Handlers and services
// pick up a named child through WithModule instead of threading a logger
// through every constructor.
package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var active atomic.Pointer[zap.Logger]

func init() {
	// A nop logger keeps code that runs before Init (config loading, tests)
	// from dereferencing nil.
	active.Store(zap.NewNop())
}

// Init replaces the global logger with a production JSON logger at the given
// level. Unknown level strings fall back to info rather than failing startup.
func Init(level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	active.Store(built)
	return nil
}

// Logger returns the current global logger.
func Logger() *zap.Logger { return active.Load() }

// Sync flushes buffered entries. Called once during shutdown.
func Sync() error { return Logger().Sync() }

// WithModule returns a child logger tagged with the owning module's name.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

func Info(msg string, fields ...zap.Field)  { Logger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Logger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Logger().Error(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { Logger().Debug(msg, fields...) }
