package slogutil

import (
	"io"
	"log/slog"

	"ntdiff/internal/config"
)

// Logger bundles a configured logger with the file it may hold open.
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// FromConfig builds the CLI logger. Records at or above consoleLevel go to
// console (usually stderr); when cfg.File is set, records at or above the
// configured level also go to a rotated file. The file level is independent
// of -v/--quiet so that a quiet run still leaves a log behind.
func FromConfig(cfg config.LoggingConfig, console io.Writer, consoleLevel slog.Level) *Logger {
	newHandler := func(w io.Writer, level slog.Level) slog.Handler {
		opts := &slog.HandlerOptions{Level: level}
		if cfg.Format == "json" {
			return slog.NewJSONHandler(w, opts)
		}
		return NewHandler(w, opts)
	}

	if cfg.File == "" {
		if cfg.Format == "json" {
			return &Logger{Logger: slog.New(newHandler(console, consoleLevel))}
		}
		return &Logger{Logger: NewLogger(console, consoleLevel)}
	}
	consoleHandler := newHandler(console, consoleLevel)

	file := NewRotatingWriter(cfg.File, RotationConfig{
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
	fileHandler := newHandler(file, LevelFromString(cfg.Level))
	return &Logger{
		Logger: slog.New(NewTeeHandler(consoleHandler, fileHandler)),
		closer: file,
	}
}
