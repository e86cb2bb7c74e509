package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives the primary stream; nil means stderr.
	Writer io.Writer
	// FilePath, when set, receives a JSON copy of every record regardless of Format.
	FilePath string
}

// New constructs a slog logger using the provided options. Debug level adds
// source locations to both streams.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	addSource := level.Level() <= slog.LevelDebug

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		handler = newConsoleHandler(w, level, addSource)
	case "json":
		handler = newJSONHandler(w, level, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	if path := strings.TrimSpace(opts.FilePath); path != "" {
		file, err := openLogFile(path)
		if err != nil {
			return nil, err
		}
		handler = teeHandler{primary: handler, file: newJSONHandler(file, level, addSource)}
	}
	return slog.New(handler), nil
}

func parseLevel(level string) slog.Level {
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

// openLogFile appends to path, creating its parent directory.
func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
