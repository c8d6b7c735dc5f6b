package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO ",
	LevelWarn:  "WARN ",
	LevelError: "ERROR",
	LevelCrit:  "CRIT ",
}

var levelColors = map[Level]int{
	LevelTrace: 90, // bright black
	LevelDebug: 36, // cyan
	LevelInfo:  32, // green
	LevelWarn:  33, // yellow
	LevelError: 31, // red
	LevelCrit:  35, // magenta
}

const termMsgJust = 40

// terminalHandler is ward's slog.Handler for interactive terminals: a
// fixed-width level tag, a compact timestamp, the message, then
// logfmt-style key=value pairs, each padded so eyes can scan down the
// message column.
type terminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	level    Level
	useColor bool
	attrs    []slog.Attr
}

// NewTerminalHandler creates a slog.Handler that writes human-readable
// lines to wr, optionally colorized, at the default LevelTrace threshold
// (filtering is expected to happen in a wrapping GlogHandler).
func NewTerminalHandler(wr io.Writer, useColor bool) slog.Handler {
	return NewTerminalHandlerWithLevel(wr, LevelTrace, useColor)
}

// NewTerminalHandlerWithLevel is NewTerminalHandler with an explicit
// minimum level.
func NewTerminalHandlerWithLevel(wr io.Writer, level Level, useColor bool) slog.Handler {
	return &terminalHandler{wr: wr, level: level, useColor: useColor}
}

// DetectTerminalColor reports whether f is a color-capable terminal and
// returns a writer that renders ANSI escapes correctly on it, wrapping
// Windows console handles in mattn/go-colorable as needed.
func DetectTerminalColor(f *os.File) (io.Writer, bool) {
	if isatty.IsTerminal(f.Fd()) {
		return colorable.NewColorable(f), true
	}
	return f, false
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return Level(level) >= h.level
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	if Level(r.Level) < h.level {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	buf := new(bytes.Buffer)
	lvl := Level(r.Level)
	name := levelNames[lvl]
	if name == "" {
		name = lvl.String()
	}
	if h.useColor {
		buf.WriteString(colorWrap(levelColors[lvl], name))
	} else {
		buf.WriteString(name)
	}
	buf.WriteString(" [")
	writeTimeTermFormat(buf, r.Time)
	buf.WriteString("] ")
	buf.WriteString(r.Message)

	pad := termMsgJust - len(r.Message)
	if pad < 1 {
		pad = 1
	}
	buf.WriteString(strings.Repeat(" ", pad))

	first := true
	write := func(key string, val any) {
		if !first {
			buf.WriteByte(' ')
		}
		first = false
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(formatLogfmtValue(val))
	}
	for _, a := range h.attrs {
		write(a.Key, a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a.Key, a.Value.Any())
		return true
	})
	buf.WriteByte('\n')

	_, err := h.wr.Write(buf.Bytes())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &terminalHandler{wr: h.wr, level: h.level, useColor: h.useColor, attrs: merged}
}

func (h *terminalHandler) WithGroup(name string) slog.Handler {
	return h
}

func colorWrap(color int, s string) string {
	return "\x1b[" + strconv.Itoa(color) + "m" + s + "\x1b[0m"
}

// JSONHandler returns a slog.Handler writing newline-delimited JSON at the
// most permissive level, the way components wanting machine-parseable logs
// with every detail (e.g. supervised deployments capturing Debug traces for
// post-mortems) use it.
func JSONHandler(wr io.Writer) slog.Handler {
	return JSONHandlerWithLevel(wr, slog.Level(LevelTrace))
}

// JSONHandlerWithLevel is JSONHandler with an explicit minimum level.
func JSONHandlerWithLevel(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{Level: level})
}

// LogfmtHandler returns a slog.Handler writing key=value lines, the
// line-oriented format log aggregators (and ops greping raw files) parse
// most easily.
func LogfmtHandler(wr io.Writer) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{Level: slog.Level(LevelTrace)})
}
