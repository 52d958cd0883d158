package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Database configuration constants.
const (
	// MemoryPath opens a transient database that is discarded on close.
	MemoryPath = ":memory:"

	// driverName is the database/sql name registered by go-sqlite3.
	driverName = "sqlite3"

	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second
)

// ErrNoDatabaseFile is returned when opening a missing file without Create.
var ErrNoDatabaseFile = errors.New("no database file")

// DB wraps a sqlx connection pool to one SQLite database.
type DB struct {
	*sqlx.DB
	path string
}

// Config contains database configuration options.
type Config struct {
	// Path is the filesystem path to the database file, or MemoryPath.
	Path string

	// Create allows a missing file (and its directory) to be created.
	// Without it, opening a missing file fails with ErrNoDatabaseFile.
	Create bool

	// WALMode enables Write-Ahead Logging. Ignored for in-memory databases.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int
}

// IsMemory reports whether cfg describes an in-memory database.
func (cfg Config) IsMemory() bool {
	return cfg.Path == MemoryPath || cfg.Path == ""
}

// DSN builds the go-sqlite3 connection string for cfg.
// See: https://github.com/mattn/go-sqlite3#connection-string
func (cfg Config) DSN() string {
	if cfg.IsMemory() {
		return fmt.Sprintf("file::memory:?_foreign_keys=on&_busy_timeout=%d", cfg.BusyTimeout*msPerSecond)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return dsn
}

// Open creates a new connection pool with the specified configuration.
//
// It performs the following setup:
//  1. Checks the file exists, or creates its directory when cfg.Create is set
//  2. Opens the database with foreign keys and busy timeout configured
//  3. Limits the pool to a single connection that is never recycled
//  4. Verifies the connection with a ping
//  5. Sets file permissions (0600)
//
// Parameters:
//   - ctx: Context for the connectivity check
//   - cfg: Database configuration
//
// Returns:
//   - *DB: Connected database wrapper
//   - error: ErrNoDatabaseFile, or the failing setup step
func Open(ctx context.Context, cfg Config) (*DB, error) {
	path := cfg.Path
	if cfg.IsMemory() {
		path = MemoryPath
	} else if err := prepareFile(cfg); err != nil {
		return nil, err
	}

	sqlDB, err := sqlx.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection, kept for the life of the pool. An in-memory database
	// disappears with its connection, and SQLite only has one writer anyway.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	if path != MemoryPath {
		_ = os.Chmod(path, filePermissions) //nolint:errcheck // File may be created lazily on first write
	}

	return db, nil
}

// prepareFile enforces cfg.Create for file-backed databases.
func prepareFile(cfg Config) error {
	_, err := os.Stat(cfg.Path)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("checking database file: %w", err)
	case !cfg.Create:
		return fmt.Errorf("%w at %q (set Create to make one)", ErrNoDatabaseFile, cfg.Path)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	return nil
}

// Close closes the database connection gracefully.
//
// Returns:
//   - error: If closing fails
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the database file, or MemoryPath.
func (db *DB) Path() string {
	return db.path
}

// IsMemory reports whether the database is transient.
func (db *DB) IsMemory() bool {
	return db.path == MemoryPath
}

// HealthCheck verifies the database is accessible and functioning.
// It performs a simple query to ensure the connection is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Conn checks out the pool's single connection. It stays reserved until
// the returned Conn is closed.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - *sqlx.Conn: Dedicated connection
//   - error: If the connection cannot be obtained
func (db *DB) Conn(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return conn, nil
}
