package query

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nerrad567/sqlite-integrated/entry"
)

// Run executes the statement on exec, or on the attached executor when
// exec is nil.
//
// For a SELECT the returned Result holds an open cursor and yields rows
// lazily, once; the caller must either iterate it to the end or Close it.
// For INSERT, UPDATE and DELETE the Result carries the affected-row count.
// Whether the write is persisted follows the executor's transaction state.
//
// Errors:
//   - the first clause error, if any
//   - ErrNoDatabase if there is nothing to run on
//   - ErrUnknownColumn if exec is an Inspector and the table lacks a column
//   - *ExecError if the engine rejects the statement
func (q *Query) Run(ctx context.Context, exec Executor) (*Result, error) {
	text, err := q.SQL()
	if err != nil {
		return nil, err
	}
	if exec == nil {
		exec = q.exec
	}
	if exec == nil {
		return nil, ErrNoDatabase
	}

	if err := q.checkColumns(ctx, exec); err != nil {
		return nil, err
	}

	if q.kind() == clauseSelect {
		return q.runSelect(ctx, exec, text)
	}

	res, err := exec.ExecContext(ctx, text)
	if err != nil {
		return nil, &ExecError{SQL: text, Err: err}
	}
	q.logExecuted(ctx, exec, text)
	return &Result{sql: text, table: q.table, res: res}, nil
}

func (q *Query) runSelect(ctx context.Context, exec Executor, text string) (*Result, error) {
	var idField string
	if r, ok := exec.(IDResolver); ok {
		f, err := r.IDField(ctx, q.table)
		if err != nil {
			return nil, fmt.Errorf("resolving id field of %s: %w", q.table, err)
		}
		idField = f
	}

	rows, err := exec.QueryxContext(ctx, text)
	if err != nil {
		return nil, &ExecError{SQL: text, Err: err}
	}
	closeRows := rows.Close
	if c, ok := exec.(CursorCloser); ok {
		closeRows = func() error { return c.CloseRows(rows) }
	}

	columns, err := rows.Columns()
	if err != nil {
		closeRows() //nolint:errcheck // Already failing
		return nil, &ExecError{SQL: text, Err: err}
	}
	q.logExecuted(ctx, exec, text)

	// An entry only names an id field it actually carries.
	if !slices.Contains(columns, idField) {
		idField = ""
	}

	return &Result{
		sql:       text,
		table:     q.table,
		idField:   idField,
		rows:      rows,
		closeRows: closeRows,
		columns:   columns,
	}, nil
}

// checkColumns verifies referenced columns exist when exec can tell.
func (q *Query) checkColumns(ctx context.Context, exec Executor) error {
	inspector, ok := exec.(Inspector)
	if !ok {
		return nil
	}
	cols, err := inspector.ColumnNames(ctx, q.table)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", q.table, err)
	}

	var referenced []string
	switch q.kind() {
	case clauseSelect:
		referenced = q.fields
	case clauseInsertInto, clauseUpdate:
		referenced = q.assigned
	}

	var missing []string
	for _, f := range referenced {
		if !slices.Contains(cols, f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not in table %s (columns: %s)",
			ErrUnknownColumn, strings.Join(missing, ", "), q.table, strings.Join(cols, ", "))
	}
	return nil
}

func (q *Query) logExecuted(ctx context.Context, exec Executor, text string) {
	var logger *slog.Logger
	switch {
	case q.verbose && q.logger != nil:
		logger = q.logger
	case q.verbose:
		logger = slog.Default()
	default:
		if l, ok := exec.(sqlLogger); ok {
			logger = l.SQLLogger()
		}
	}
	if logger != nil {
		logger.InfoContext(ctx, "executed sql", "sql", text)
	}
}

// Result is the outcome of Run.
type Result struct {
	sql       string
	table     string
	idField   string
	rows      *sqlx.Rows
	closeRows func() error
	columns   []string
	consumed  bool
	res       sql.Result
}

// SQL returns the executed statement.
func (r *Result) SQL() string { return r.sql }

// Columns returns the result column names of a SELECT.
func (r *Result) Columns() []string { return slices.Clone(r.columns) }

// IsQuery reports whether the result came from a SELECT.
func (r *Result) IsQuery() bool { return r.rows != nil }

// Raw yields each row as a slice of column values in select order.
//
// The sequence can be ranged over once. Ranging again yields
// ErrResultConsumed; run the query again for a fresh cursor. Breaking out
// of the loop closes the cursor.
func (r *Result) Raw() iter.Seq2[[]any, error] {
	return func(yield func([]any, error) bool) {
		if r.rows == nil {
			return
		}
		if r.consumed {
			yield(nil, ErrResultConsumed)
			return
		}
		r.consumed = true
		defer r.closeRows() //nolint:errcheck // Read-only cursor

		for r.rows.Next() {
			row, err := r.rows.SliceScan()
			if err != nil {
				yield(nil, fmt.Errorf("scanning row: %w", err))
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := r.rows.Err(); err != nil {
			yield(nil, &ExecError{SQL: r.sql, Err: err})
		}
	}
}

// Entries yields each row as an Entry tagged with the queried table. The
// id field is set when the selection includes the table's id column and
// the executor is an IDResolver. The same single-pass rules as Raw apply.
func (r *Result) Entries() iter.Seq2[*entry.Entry, error] {
	return func(yield func(*entry.Entry, error) bool) {
		for row, err := range r.Raw() {
			if err != nil {
				yield(nil, err)
				return
			}
			e, err := entry.FromRow(row, r.columns, r.table, r.idField)
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// All drains Entries into a slice.
func (r *Result) All() ([]*entry.Entry, error) {
	var out []*entry.Entry
	for e, err := range r.Entries() {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// AllRaw drains Raw into a slice.
func (r *Result) AllRaw() ([][]any, error) {
	var out [][]any
	for row, err := range r.Raw() {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Close releases the cursor of an unconsumed SELECT result.
func (r *Result) Close() error {
	if r.rows == nil || r.consumed {
		return nil
	}
	r.consumed = true
	return r.closeRows()
}

// RowsAffected returns the number of rows changed by a write. It is zero
// for a SELECT.
func (r *Result) RowsAffected() (int64, error) {
	if r.res == nil {
		return 0, nil
	}
	return r.res.RowsAffected()
}

// LastInsertID returns the rowid assigned by the last INSERT. It is zero
// for a SELECT.
func (r *Result) LastInsertID() (int64, error) {
	if r.res == nil {
		return 0, nil
	}
	return r.res.LastInsertId()
}
