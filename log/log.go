// Package log wraps log/slog with the level vocabulary and handler set
// ward's core packages use for structured, leveled logging: ban logs ban and
// unban transitions, token logs verify failures and ancient-epoch fallback,
// dhttoken logs secret rotation, aging logs GC sweeps. Every package logs
// through a Logger obtained from log.New or the package-level Root(),
// exactly like the teacher's own log package wraps slog.
package log

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Level mirrors slog.Level with the teacher's five-plus-one vocabulary:
// ward adds Trace below Debug and Crit above Error.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4)
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
	LevelCrit  Level = Level(slog.LevelError + 4)
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCrit:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

// Logger is the interface every ward component logs through.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	Handler() slog.Handler
}

type logger struct {
	h slog.Handler
}

// NewLogger wraps an slog.Handler in ward's leveled Logger interface. Log
// calls build the slog.Record by hand (rather than going through
// *slog.Logger) so the record's PC points at the caller of Trace/Debug/...
// instead of at this package — GlogHandler's Vmodule matching depends on
// that PC naming the right source file.
func NewLogger(h slog.Handler) Logger {
	return &logger{h: h}
}

// New creates a Logger using the default terminal handler, with the given
// key/value context attached to every record, mirroring the teacher's
// log.New(ctx...).
func New(ctx ...any) Logger {
	return Root().With(ctx...)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{h: l.h.WithAttrs(argsToAttrs(ctx))}
}

func (l *logger) Handler() slog.Handler { return l.h }

func (l *logger) write(level Level, msg string, ctx []any) {
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip Callers, write, Trace/Debug/...
	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pcs[0])
	r.Add(ctx...)
	_ = l.h.Handle(context.Background(), r)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...any)  { l.write(LevelCrit, msg, ctx) }

func argsToAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			attrs = append(attrs, slog.Any(fmtKey(args[i]), "MISSING"))
			break
		}
		attrs = append(attrs, slog.Any(fmtKey(args[i]), args[i+1]))
	}
	return attrs
}

func fmtKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return "!BADKEY"
}
