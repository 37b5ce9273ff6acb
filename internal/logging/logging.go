// Package logging holds the process-wide zap logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the shared logger. It is a no-op until Init is called, which
// keeps packages usable from tests without any setup.
var Logger = zap.NewNop()

// Init builds the shared logger. format is "json" (production encoder) or
// "console" (development encoder); level is any zap level name.
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(format) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	Logger = l
	zap.ReplaceGlobals(l)
	return nil
}

// Named returns a child logger tagged with the component name.
func Named(component string) *zap.Logger {
	return Logger.With(zap.String("component", component))
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}
