package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/sqlite-integrated/internal/infrastructure/config"
)

// Logger is the sqlitei process logger. Every record carries the service
// name and build version.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New builds the process logger from the logging section of the config.
// Records go to stderr unless cfg.Output is "stdout", since stdout carries
// printed tables and query rows.
//
// Parameters:
//   - cfg: Logging section of the sqlitei configuration
//   - version: Build version attached to every record
//
// Returns:
//   - *Logger: Logger writing to the configured stream
func New(cfg config.LoggingConfig, version string) *Logger {
	out := io.Writer(os.Stderr)
	if strings.EqualFold(cfg.Output, "stdout") {
		out = os.Stdout
	}
	return NewWriter(cfg, version, out)
}

// NewWriter is New with an explicit destination. cfg.Output is ignored.
func NewWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: flattenSQL,
	}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}
	h = h.WithAttrs([]slog.Attr{
		slog.String("service", "sqlitei"),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

// flattenSQL folds the whitespace of "sql" attributes onto one line so a
// multi-line statement stays a single log record in text output.
func flattenSQL(_ []string, a slog.Attr) slog.Attr {
	if a.Key != "sql" || a.Value.Kind() != slog.KindString {
		return a
	}
	return slog.String(a.Key, strings.Join(strings.Fields(a.Value.String()), " "))
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
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

// Component returns a child logger tagged with component=name.
//
// Example:
//
//	dbLog := logger.Component("database")
//	db.SetLogger(dbLog.Logger) // executed SQL carries component=database
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// Discard returns a logger that drops every record, for callers that must
// pass a logger but want no output.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
