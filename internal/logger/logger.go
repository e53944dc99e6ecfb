// Package logger provides the process-wide levelled logger.
//
// The API is printf style (logger.Info("listening on %s", addr)); records are
// emitted through a log/slog handler so the output can be switched between
// human-readable text and JSON without touching call sites.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Output formats accepted by SetFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	mu           sync.RWMutex
	currentLevel = LevelInfo
	outputFormat = FormatText
	out          io.Writer = os.Stdout
	handler      slog.Handler
)

func init() {
	rebuild()
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel sets the minimum level. Unknown names are ignored.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	default:
		return
	}
	rebuildLocked()
}

// SetFormat selects "text" or "json" output.
func SetFormat(f string) error {
	f = strings.ToLower(f)
	if f != FormatText && f != FormatJSON {
		return fmt.Errorf("unknown log format %q", f)
	}

	mu.Lock()
	defer mu.Unlock()
	outputFormat = f
	rebuildLocked()
	return nil
}

// SetOutput redirects log output to w. A nil writer restores stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}

	mu.Lock()
	defer mu.Unlock()
	out = w
	rebuildLocked()
}

// OpenOutput resolves an output name from configuration: "stdout", "stderr"
// or a file path opened in append mode. The returned closer is a no-op for
// the standard streams.
func OpenOutput(name string) (io.Writer, func() error, error) {
	switch strings.ToLower(name) {
	case "", "stdout":
		return os.Stdout, func() error { return nil }, nil
	case "stderr":
		return os.Stderr, func() error { return nil }, nil
	}

	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	return f, f.Close, nil
}

func rebuild() {
	mu.Lock()
	defer mu.Unlock()
	rebuildLocked()
}

func rebuildLocked() {
	opts := &slog.HandlerOptions{Level: currentLevel.slogLevel()}
	if outputFormat == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
}

func log(level Level, format string, v ...any) {
	mu.RLock()
	h := handler
	threshold := currentLevel
	mu.RUnlock()

	if level < threshold {
		return
	}

	ctx := context.Background()
	if !h.Enabled(ctx, level.slogLevel()) {
		return
	}
	slog.New(h).Log(ctx, level.slogLevel(), fmt.Sprintf(format, v...))
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}
