package log

import (
	"os"
	"sync/atomic"
)

var defaultLogger atomic.Value // Logger

func init() {
	defaultLogger.Store(NewLogger(NewTerminalHandler(os.Stderr, false)))
}

// Root returns the default Logger used by the package-level Trace/Debug/...
// helpers.
func Root() Logger {
	return defaultLogger.Load().(Logger)
}

// SetDefault replaces the default Logger.
func SetDefault(l Logger) {
	defaultLogger.Store(l)
}

func Trace(msg string, ctx ...any) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { Root().Crit(msg, ctx...) }
