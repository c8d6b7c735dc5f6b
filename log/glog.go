package log

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// GlogHandler wraps another slog.Handler with glog-style dynamic verbosity:
// a global floor set with Verbosity, and per-source-file overrides set with
// Vmodule — so a node running in production can crank tracing on for just
// the file under investigation (e.g. "ban.go=5") without drowning in noise
// from everything else.
type GlogHandler struct {
	inner slog.Handler
	level atomic.Int32

	mu       sync.RWMutex
	patterns []vmodulePattern
}

type vmodulePattern struct {
	glob  string
	level Level
}

// NewGlogHandler wraps h with verbosity and vmodule filtering. The default
// floor is LevelInfo, matching the teacher's CLI default.
func NewGlogHandler(h slog.Handler) *GlogHandler {
	g := &GlogHandler{inner: h}
	g.level.Store(int32(LevelInfo))
	return g
}

// Verbosity sets the global minimum level; records below it are dropped
// unless a Vmodule pattern says otherwise.
func (g *GlogHandler) Verbosity(lvl Level) {
	g.level.Store(int32(lvl))
}

// Vmodule parses a comma-separated list of file=verbosity pairs, e.g.
// "ban.go=5,token_verify.go=3". file may contain '*' globs. verbosity is
// glog's legacy 0-9 scale, not a Level: 5 and up is maximally verbose
// (Trace), 0 keeps the file silent outside Crit.
func (g *GlogHandler) Vmodule(spec string) error {
	var patterns []vmodulePattern
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("log: invalid vmodule pattern %q", part)
		}
		n, err := strconv.Atoi(kv[1])
		if err != nil {
			return fmt.Errorf("log: invalid vmodule level in %q: %w", part, err)
		}
		patterns = append(patterns, vmodulePattern{glob: kv[0], level: vmoduleLevel(n)})
	}
	g.mu.Lock()
	g.patterns = patterns
	g.mu.Unlock()
	return nil
}

func vmoduleLevel(n int) Level {
	switch {
	case n >= 5:
		return LevelTrace
	case n == 4:
		return LevelDebug
	case n == 3:
		return LevelInfo
	case n == 2:
		return LevelWarn
	case n == 1:
		return LevelError
	default:
		return LevelCrit
	}
}

// Enabled always returns true; the verbosity/vmodule decision is made in
// Handle, where the caller's file is available for pattern matching.
func (g *GlogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (g *GlogHandler) Handle(ctx context.Context, r slog.Record) error {
	level := Level(r.Level)
	if level >= Level(g.level.Load()) {
		return g.inner.Handle(ctx, r)
	}

	g.mu.RLock()
	patterns := g.patterns
	g.mu.RUnlock()
	if len(patterns) == 0 {
		return nil
	}
	file := callerFile(r.PC)
	if file == "" {
		return nil
	}
	for _, p := range patterns {
		if ok, _ := filepath.Match(p.glob, file); ok && level >= p.level {
			return g.inner.Handle(ctx, r)
		}
	}
	return nil
}

func (g *GlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	ng := &GlogHandler{inner: g.inner.WithAttrs(attrs)}
	ng.level.Store(g.level.Load())
	g.mu.RLock()
	ng.patterns = append([]vmodulePattern(nil), g.patterns...)
	g.mu.RUnlock()
	return ng
}

func (g *GlogHandler) WithGroup(name string) slog.Handler {
	ng := &GlogHandler{inner: g.inner.WithGroup(name)}
	ng.level.Store(g.level.Load())
	g.mu.RLock()
	ng.patterns = append([]vmodulePattern(nil), g.patterns...)
	g.mu.RUnlock()
	return ng
}

func callerFile(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.File == "" {
		return ""
	}
	return filepath.Base(frame.File)
}
