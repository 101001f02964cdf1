package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wesline/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string // console (default) or json
	// OutputPaths lists "stdout", "stderr", or file paths for the primary
	// handler. Empty means stdout.
	OutputPaths []string
	// FilePath receives a JSON copy of every record regardless of Format.
	FilePath string
	// Development adds source locations at every level.
	Development bool
	// Stream, when set, receives every record for the /logs endpoint.
	Stream *StreamHub
}

type handlerFactory func(w io.Writer, level slog.Leveler, withSource bool) slog.Handler

var formats = map[string]handlerFactory{
	"console": newConsoleHandler,
	"json":    newJSONHandler,
}

// New builds the process logger: the primary handler for Format, an
// optional JSON file copy, and an optional stream tap.
func New(opts Options) (*slog.Logger, error) {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	factory, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	level := new(slog.LevelVar)
	level.Set(ParseLevel(opts.Level))
	// Debug output is for development, so it always carries source locations.
	withSource := opts.Development || level.Level() <= slog.LevelDebug

	out, err := openOutputs(opts.OutputPaths)
	if err != nil {
		return nil, err
	}
	handlers := []slog.Handler{factory(out, level, withSource)}

	if path := strings.TrimSpace(opts.FilePath); path != "" {
		file, err := openAppend(path)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, newJSONHandler(file, level, withSource))
	}
	return slog.New(newStreamHandler(combine(handlers...), opts.Stream)), nil
}

// NewFromConfig builds a logger from [logging] and writes the JSON copy to
// <log_dir>/wesline.log.
func NewFromConfig(cfg *config.Config, hub *StreamHub) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Stream: hub})
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Stream: hub}
	if cfg.Paths.LogDir != "" {
		opts.FilePath = cfg.LogPath()
	}
	return New(opts)
}

// ParseLevel accepts slog level names in any case, plus "warning".
// Unknown values mean info.
func ParseLevel(value string) slog.Level {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func openOutputs(paths []string) (io.Writer, error) {
	var writers []io.Writer
	seen := make(map[string]bool)
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		switch path {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			file, err := openAppend(path)
			if err != nil {
				return nil, err
			}
			writers = append(writers, file)
		}
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory for %s: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
