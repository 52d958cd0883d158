package query

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Executor runs rendered statements. *sqlx.DB, *sqlx.Conn and *sqlx.Tx
// satisfy it, as does *database.Database.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

// Inspector is implemented by executors that can list a table's columns.
// When the executor passed to Run is an Inspector, referenced columns are
// checked against the table before anything is executed.
type Inspector interface {
	ColumnNames(ctx context.Context, table string) ([]string, error)
}

// IDResolver is implemented by executors that know which column holds a
// table's row identifier. An empty name means the table has none.
type IDResolver interface {
	IDField(ctx context.Context, table string) (string, error)
}

// CursorCloser is implemented by executors that keep track of the cursors
// QueryxContext hands out. A Result closes its cursor through CloseRows so
// the executor can forget it.
type CursorCloser interface {
	CloseRows(rows *sqlx.Rows) error
}

// sqlLogger is implemented by executors that want executed SQL logged.
// A nil logger means the executor is not in verbose mode.
type sqlLogger interface {
	SQLLogger() *slog.Logger
}

// Query accumulates SQL clauses through chained calls.
//
// Each clause method checks that it may follow the previous one. The first
// illegal call is recorded and every later call becomes a no-op; Err reports
// it straight away and SQL and Run return it without touching the engine.
//
//	res, err := query.New().Select("name").From("people").WhereExpr("name").Like("J%").Run(ctx, db)
//
// A Query is not safe for concurrent use.
type Query struct {
	exec     Executor
	state    state
	history  []clause
	parts    []string
	table    string
	fields   []string
	assigned []string
	err      error
	verbose  bool
	logger   *slog.Logger
}

// New returns an empty Query with no attached executor.
func New() *Query {
	return &Query{}
}

// NewBound returns an empty Query that runs on exec unless Run is given
// another executor.
func NewBound(exec Executor) *Query {
	return &Query{exec: exec}
}

// SetVerbose makes Run log every executed statement. Without a logger set
// through SetLogger, slog's default logger is used.
func (q *Query) SetVerbose(verbose bool) *Query {
	q.verbose = verbose
	return q
}

// SetLogger sets the logger used in verbose mode.
func (q *Query) SetLogger(logger *slog.Logger) *Query {
	q.logger = logger
	return q
}

// Err returns the first clause error, if any.
func (q *Query) Err() error { return q.err }

// Table returns the table the query targets.
func (q *Query) Table() string { return q.table }

// Fields returns the selected columns. Nil means every column.
func (q *Query) Fields() []string {
	if q.fields == nil {
		return nil
	}
	out := make([]string, len(q.fields))
	copy(out, q.fields)
	return out
}

// Select starts a SELECT statement. With no arguments, or a single "*",
// every column is selected. A single argument holding a comma separated
// list is split into its columns.
func (q *Query) Select(fields ...string) *Query {
	return q.apply(clauseSelect, func() (string, error) {
		cols, err := normaliseFields(fields)
		if err != nil {
			return "", err
		}
		q.fields = cols
		if cols == nil {
			return "SELECT *", nil
		}
		return "SELECT " + strings.Join(cols, ", "), nil
	})
}

// From binds the table of a SELECT.
func (q *Query) From(table string) *Query {
	return q.apply(clauseFrom, func() (string, error) {
		if err := q.bindTable(table); err != nil {
			return "", err
		}
		return "FROM " + q.table, nil
	})
}

// InsertInto starts an INSERT statement on table.
func (q *Query) InsertInto(table string) *Query {
	return q.apply(clauseInsertInto, func() (string, error) {
		if err := q.bindTable(table); err != nil {
			return "", err
		}
		return "INSERT INTO " + q.table, nil
	})
}

// Values renders the column list and literal values of an INSERT.
func (q *Query) Values(data Fields) *Query {
	return q.apply(clauseValues, func() (string, error) {
		if data == nil {
			data = Map{}
		}
		frag, err := columnsAndValues(data)
		if err != nil {
			return "", err
		}
		q.assigned = data.Keys()
		return frag, nil
	})
}

// Update starts an UPDATE statement on table.
func (q *Query) Update(table string) *Query {
	return q.apply(clauseUpdate, func() (string, error) {
		if err := q.bindTable(table); err != nil {
			return "", err
		}
		return "UPDATE " + q.table, nil
	})
}

// Set renders the assignments of an UPDATE.
func (q *Query) Set(data Fields) *Query {
	return q.apply(clauseSet, func() (string, error) {
		if data == nil || len(data.Keys()) == 0 {
			return "", ErrNoColumns
		}
		frag, err := assignments(data)
		if err != nil {
			return "", err
		}
		q.assigned = data.Keys()
		return "SET " + frag, nil
	})
}

// DeleteFrom starts a DELETE statement on table.
func (q *Query) DeleteFrom(table string) *Query {
	return q.apply(clauseDeleteFrom, func() (string, error) {
		if err := q.bindTable(table); err != nil {
			return "", err
		}
		return "DELETE FROM " + q.table, nil
	})
}

// Where renders an equality filter, "WHERE column = value". A nil value
// renders "WHERE column IS NULL".
func (q *Query) Where(column string, value any) *Query {
	return q.apply(clauseWhere, func() (string, error) {
		column = strings.TrimSpace(column)
		if column == "" {
			return "", fmt.Errorf("empty column name")
		}
		if value == nil {
			return "WHERE " + column + " IS NULL", nil
		}
		lit, err := Literal(value)
		if err != nil {
			return "", err
		}
		return "WHERE " + column + " = " + lit, nil
	})
}

// WhereExpr renders predicate verbatim as "WHERE predicate". The caller is
// responsible for its correctness and for quoting any values in it.
func (q *Query) WhereExpr(predicate string) *Query {
	return q.apply(clauseWhere, func() (string, error) {
		predicate = strings.TrimSpace(predicate)
		if predicate == "" {
			return "", fmt.Errorf("empty predicate")
		}
		return "WHERE " + predicate, nil
	})
}

// Like appends "LIKE 'pattern'" to the preceding WHERE clause.
func (q *Query) Like(pattern string) *Query {
	return q.apply(clauseLike, func() (string, error) {
		return "LIKE " + Text(pattern).Literal(), nil
	})
}

// SQL renders the statement. It fails if a clause was rejected or the
// chain does not yet form a complete statement.
func (q *Query) SQL() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	if q.state == stateEmpty {
		return "", ErrEmptyQuery
	}
	if !q.state.runnable() {
		return "", fmt.Errorf("%w: statement is incomplete after %s", ErrSequence, q.history[len(q.history)-1])
	}
	return strings.Join(q.parts, " "), nil
}

// String shows the SQL accumulated so far, for debugging.
func (q *Query) String() string {
	s := "> " + strings.Join(q.parts, " ") + " <"
	if q.err != nil {
		s += " (error: " + q.err.Error() + ")"
	}
	return s
}

// apply validates c against the current state and appends its fragment.
func (q *Query) apply(c clause, render func() (string, error)) *Query {
	if q.err != nil {
		return q
	}
	to, err := q.state.next(c)
	if err != nil {
		q.err = err
		return q
	}
	frag, err := render()
	if err != nil {
		q.err = fmt.Errorf("%s: %w", c, err)
		return q
	}
	q.state = to
	q.history = append(q.history, c)
	q.parts = append(q.parts, frag)
	return q
}

func (q *Query) bindTable(table string) error {
	table = strings.TrimSpace(table)
	if table == "" {
		return fmt.Errorf("empty table name")
	}
	q.table = table
	return nil
}

// kind returns the statement kind, identified by the first clause.
func (q *Query) kind() clause {
	if len(q.history) == 0 {
		return -1
	}
	return q.history[0]
}

// normaliseFields turns Select's arguments into a column list; nil means "*".
func normaliseFields(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) == 1 {
		if strings.TrimSpace(fields[0]) == "*" {
			return nil, nil
		}
		fields = strings.Split(fields[0], ",")
	}
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, fmt.Errorf("empty column name in selection")
		}
		if f == "*" {
			return nil, fmt.Errorf("* cannot be combined with named columns")
		}
		cols = append(cols, f)
	}
	return cols, nil
}
