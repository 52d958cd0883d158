package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"

	"github.com/nerrad567/sqlite-integrated/internal/infrastructure/sqlite"
	"github.com/nerrad567/sqlite-integrated/query"
)

// Defaults applied by Open.
const (
	// DefaultBusyTimeout is the lock wait in seconds when Config leaves it zero.
	DefaultBusyTimeout = 5

	// DefaultOverviewRows is the row limit TableOverview callers usually want.
	DefaultOverviewRows = 40
)

// Config describes the database file to open.
type Config struct {
	// Path is the database file, or ":memory:" for a transient database.
	Path string

	// Create allows a missing file to be created.
	Create bool

	// WALMode enables Write-Ahead Logging for file databases.
	WALMode bool

	// BusyTimeout is the lock wait in seconds. Zero means DefaultBusyTimeout.
	BusyTimeout int

	// DefaultIDField names the id column of tables without a primary key.
	DefaultIDField string

	// Verbose logs executed SQL and facade writes.
	Verbose bool
}

// Database owns one connection to a SQLite database.
//
// Every statement, including those run through the Query builders it hands
// out, goes through the same connection, so open results and writes see one
// consistent session. Statements autocommit.
type Database struct {
	cfg    Config
	pool   *sqlite.DB
	conn   *sqlx.Conn
	logger *slog.Logger

	// cursors holds rows handed out by QueryxContext and not yet closed.
	// The connection cannot close while any is open.
	mu      sync.Mutex
	cursors map[*sqlx.Rows]struct{}
}

// Open connects to the database described by cfg.
//
// Parameters:
//   - ctx: Context for the connection setup
//   - cfg: Database configuration
//
// Returns:
//   - *Database: Connected facade
//   - error: ErrNoDatabaseFile if the file is missing and cfg.Create is false
func Open(ctx context.Context, cfg Config) (*Database, error) {
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = DefaultBusyTimeout
	}
	d := &Database{cfg: cfg}
	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// InMemory opens a transient database that disappears when closed.
func InMemory(ctx context.Context, verbose bool) (*Database, error) {
	return Open(ctx, Config{
		Path:    sqlite.MemoryPath,
		Create:  true,
		Verbose: verbose,
	})
}

func (d *Database) connect(ctx context.Context) error {
	pool, err := sqlite.Open(ctx, sqlite.Config{
		Path:        d.cfg.Path,
		Create:      d.cfg.Create,
		WALMode:     d.cfg.WALMode,
		BusyTimeout: d.cfg.BusyTimeout,
	})
	if err != nil {
		return err
	}
	conn, err := pool.Conn(ctx)
	if err != nil {
		pool.Close() //nolint:errcheck // Best effort cleanup on error path
		return err
	}
	d.pool = pool
	d.conn = conn
	return nil
}

// Path returns the database file path.
func (d *Database) Path() string {
	if d.pool != nil {
		return d.pool.Path()
	}
	return d.cfg.Path
}

// Connected reports whether the database is open.
func (d *Database) Connected() bool {
	return d.conn != nil
}

// Verbose reports whether executed SQL is logged.
func (d *Database) Verbose() bool { return d.cfg.Verbose }

// SetVerbose turns logging of executed SQL and facade writes on or off.
func (d *Database) SetVerbose(verbose bool) { d.cfg.Verbose = verbose }

// SetLogger sets the logger used in verbose mode. A nil logger falls back
// to slog's default logger.
func (d *Database) SetLogger(logger *slog.Logger) { d.logger = logger }

// SQLLogger returns the logger for executed statements, or nil when the
// database is not verbose.
func (d *Database) SQLLogger() *slog.Logger {
	if !d.cfg.Verbose {
		return nil
	}
	if d.logger == nil {
		return slog.Default()
	}
	return d.logger
}

// HealthCheck verifies the connection answers queries.
func (d *Database) HealthCheck(ctx context.Context) error {
	if d.conn == nil {
		return ErrClosed
	}
	var one int
	if err := d.conn.QueryRowxContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// ExecContext runs a statement that returns no rows.
func (d *Database) ExecContext(ctx context.Context, text string, args ...any) (sql.Result, error) {
	if d.conn == nil {
		return nil, ErrClosed
	}
	return d.conn.ExecContext(ctx, text, args...)
}

// QueryxContext runs a statement that returns rows.
func (d *Database) QueryxContext(ctx context.Context, text string, args ...any) (*sqlx.Rows, error) {
	if d.conn == nil {
		return nil, ErrClosed
	}
	rows, err := d.conn.QueryxContext(ctx, text, args...)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.cursors == nil {
		d.cursors = make(map[*sqlx.Rows]struct{})
	}
	d.cursors[rows] = struct{}{}
	d.mu.Unlock()
	return rows, nil
}

// CloseRows closes rows obtained from QueryxContext. Closing rows twice is
// a no-op.
func (d *Database) CloseRows(rows *sqlx.Rows) error {
	d.mu.Lock()
	delete(d.cursors, rows)
	d.mu.Unlock()
	return rows.Close()
}

// closeCursors closes every cursor still open, so the connection can close
// even when a caller abandoned a result.
func (d *Database) closeCursors() {
	d.mu.Lock()
	open := d.cursors
	d.cursors = nil
	d.mu.Unlock()

	for rows := range open {
		rows.Close() //nolint:errcheck // Abandoned read-only cursor
	}
}

// exec runs a facade-generated statement, wrapping engine failures with
// the statement text.
func (d *Database) exec(ctx context.Context, text string) (sql.Result, error) {
	res, err := d.ExecContext(ctx, text)
	if err != nil {
		return nil, &query.ExecError{SQL: text, Err: err}
	}
	d.logExecuted(ctx, text)
	return res, nil
}

func (d *Database) logExecuted(ctx context.Context, text string) {
	if l := d.SQLLogger(); l != nil {
		l.InfoContext(ctx, "executed sql", "sql", text)
	}
}

// Save flushes the write-ahead log into the database file. Statements
// autocommit, so this only matters for WAL databases.
func (d *Database) Save(ctx context.Context) error {
	if d.conn == nil {
		return ErrClosed
	}
	if !d.cfg.WALMode || d.pool == nil || d.pool.IsMemory() {
		return nil
	}
	var busy, logFrames, checkpointed int
	err := d.conn.QueryRowxContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busy, &logFrames, &checkpointed)
	if err != nil {
		return fmt.Errorf("checkpointing wal: %w", err)
	}
	return nil
}

// Close saves and closes the connection. Closing twice is a no-op.
// Results that are still open are closed first and yield no further rows.
func (d *Database) Close() error {
	if d.conn == nil {
		return nil
	}
	d.closeCursors()
	saveErr := d.Save(context.Background())

	connErr := d.conn.Close()
	d.conn = nil

	var poolErr error
	if d.pool != nil {
		poolErr = d.pool.Close()
	}

	switch {
	case saveErr != nil:
		return saveErr
	case connErr != nil:
		return fmt.Errorf("closing connection: %w", connErr)
	default:
		return poolErr
	}
}

// Reconnect closes the connection if open and connects again to the same
// path. A reconnected in-memory database starts empty.
func (d *Database) Reconnect(ctx context.Context) error {
	if err := d.Close(); err != nil {
		return err
	}
	return d.connect(ctx)
}

// Equal reports whether both databases have the same tables, with the same
// columns and rows in the same order.
func (d *Database) Equal(ctx context.Context, other *Database) (bool, error) {
	tables, err := d.TableNames(ctx)
	if err != nil {
		return false, err
	}
	otherTables, err := other.TableNames(ctx)
	if err != nil {
		return false, err
	}
	if !slices.Equal(tables, otherTables) {
		return false, nil
	}

	for _, table := range tables {
		cols, err := d.TableColumns(ctx, table)
		if err != nil {
			return false, err
		}
		otherCols, err := other.TableColumns(ctx, table)
		if err != nil {
			return false, err
		}
		if !cmp.Equal(cols, otherCols) {
			return false, nil
		}

		rows, err := d.GetTableRaw(ctx, table)
		if err != nil {
			return false, err
		}
		otherRows, err := other.GetTableRaw(ctx, table)
		if err != nil {
			return false, err
		}
		if !cmp.Equal(rows, otherRows) {
			return false, nil
		}
	}
	return true, nil
}

// Select starts a SELECT bound to this database.
func (d *Database) Select(fields ...string) *query.Query {
	return query.NewBound(d).Select(fields...)
}

// Update starts an UPDATE bound to this database.
func (d *Database) Update(table string) *query.Query {
	return query.NewBound(d).Update(table)
}

// InsertInto starts an INSERT bound to this database.
func (d *Database) InsertInto(table string) *query.Query {
	return query.NewBound(d).InsertInto(table)
}

// DeleteFrom starts a DELETE bound to this database.
func (d *Database) DeleteFrom(table string) *query.Query {
	return query.NewBound(d).DeleteFrom(table)
}
