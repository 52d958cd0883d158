// Package logging provides structured logging for the sqlitei tool.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - Text output for interactive use (human-readable, the default)
//   - JSON output for the table browser behind a log collector
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in sqlitei.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	db.SetLogger(logger.Component("database").Logger)
//	logger.Error("closing database", "error", err)
//
// Statements logged under the "sql" key are folded onto one line.
//
// # Data
//
// Row values can hold anything a user stored. Log table and column
// names, never row contents, outside verbose SQL output.
package logging
