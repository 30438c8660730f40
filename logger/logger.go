package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// log is the global zap logger instance
var log *zap.Logger

// Initialize builds the global logger. Debug switches to the
// development config with debug-level output.
func Initialize(debug bool) error {
	var zapConfig zap.Config
	if debug {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	built, err := zapConfig.Build()
	if err != nil {
		return err
	}

	log = built
	return nil
}

// Get returns the global logger, falling back to a no-op logger when
// Initialize has not been called (tests, tooling).
func Get() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
