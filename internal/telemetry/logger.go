package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var logger *slog.Logger

// Init logs to stdout only.
func Init(level slog.Level) {
	logger = slog.New(newPrettyHandler(sink{w: os.Stdout, level: level}))
	slog.SetDefault(logger)
}

// InitWithFile logs to stdout at consoleLevel and appends every record
// (debug and up) to logs/<prefix>_<unix>.log under dir. The returned
// closer flushes and closes the log file.
func InitWithFile(consoleLevel slog.Level, dir, prefix string) (io.Closer, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%d.log", prefix, time.Now().Unix()))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open log file: %w", err)
	}

	logger = slog.New(newPrettyHandler(
		sink{w: os.Stdout, level: consoleLevel},
		sink{w: f, level: slog.LevelDebug},
	))
	slog.SetDefault(logger)
	return f, path, nil
}

// SetOutput replaces all sinks with w. Tests use it to capture log lines.
func SetOutput(w io.Writer, level slog.Level) {
	logger = slog.New(newPrettyHandler(sink{w: w, level: level}))
}

func L() *slog.Logger {
	if logger == nil {
		Init(slog.LevelInfo)
	}
	return logger
}

func Infof(format string, args ...any)  { L().Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { L().Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { L().Error(fmt.Sprintf(format, args...)) }
func Debugf(format string, args ...any) { L().Debug(fmt.Sprintf(format, args...)) }

// ParseLogLevel converts a level name (any case) to slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type sink struct {
	w     io.Writer
	level slog.Level
}

// prettyHandler outputs: [2026-02-21 5:10:39 PM PST] INFO    | message
type prettyHandler struct {
	sinks []sink
	mu    sync.Mutex
}

func newPrettyHandler(sinks ...sink) *prettyHandler {
	return &prettyHandler{sinks: sinks}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if level >= s.level {
			return true
		}
	}
	return false
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	line := fmt.Sprintf("[%s] %-7s | %s\n", r.Time.Format("2006-01-02 3:04:05 PM MST"), levelName(r.Level), r.Message)

	h.mu.Lock()
	defer h.mu.Unlock()
	var firstErr error
	for _, s := range h.sinks {
		if r.Level < s.level {
			continue
		}
		if _, err := io.WriteString(s.w, line); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func (h *prettyHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *prettyHandler) WithGroup(_ string) slog.Handler       { return h }
