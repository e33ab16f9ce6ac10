package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dtindex/internal/config"
)

// sink owns the process-wide logger and the log file behind it
var sink struct {
	once   sync.Once
	mu     sync.Mutex
	logger *slog.Logger
	err    error
	file   *os.File
}

// InitializeLogger builds the process-wide JSON logger from cfg and makes it
// the slog default. Only the first call does any work; later calls return
// the same logger and error.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	sink.once.Do(func() {
		out, err := logOutput(cfg)
		if err != nil {
			sink.err = err
			return
		}
		sink.logger = newJSONLogger(out, &slog.HandlerOptions{
			AddSource: cfg.Development,
			Level:     parseLogLevel(cfg.Level),
		})
		slog.SetDefault(sink.logger)
	})
	return sink.logger, sink.err
}

// GetLogger returns the process-wide logger, or slog.Default before
// InitializeLogger succeeded
func GetLogger() *slog.Logger {
	if sink.logger == nil {
		return slog.Default()
	}
	return sink.logger
}

// NewLogger returns a standalone JSON logger on w. The CLI uses it so that
// logs go to stderr and never mix with command output.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return newJSONLogger(w, &slog.HandlerOptions{Level: parseLogLevel(level)})
}

func newJSONLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return slog.New(traceIDHandler{slog.NewJSONHandler(w, opts)})
}

// logOutput opens the configured destination: console, file or both
func logOutput(cfg config.LoggingConfig) (io.Writer, error) {
	output := strings.ToLower(cfg.Output)
	if output != "file" && output != "both" {
		return os.Stdout, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}

	sink.mu.Lock()
	sink.file = file
	sink.mu.Unlock()

	if output == "both" {
		return io.MultiWriter(os.Stdout, file), nil
	}
	return file, nil
}

// traceIDHandler adds the context's trace id to every record
type traceIDHandler struct {
	slog.Handler
}

func (h traceIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceIDHandler) WithGroup(name string) slog.Handler {
	return traceIDHandler{h.Handler.WithGroup(name)}
}

// parseLogLevel maps a config level name to slog; unknown names mean info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if sink.file == nil {
		return nil
	}
	err := sink.file.Close()
	sink.file = nil
	return err
}

// ResetLoggerForTesting forgets the process-wide logger so a test can
// initialize another one
func ResetLoggerForTesting() {
	CloseLogFile()
	sink.logger = nil
	sink.err = nil
	sink.once = sync.Once{}
}
