package query

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// schemaDB adds column and id lookups to a plain connection.
type schemaDB struct {
	*sqlx.DB
	idField string
}

func (s schemaDB) ColumnNames(ctx context.Context, table string) ([]string, error) {
	var names []string
	if err := s.SelectContext(ctx, &names, "SELECT name FROM pragma_table_info(?)", table); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.New("no such table")
	}
	return names, nil
}

func (s schemaDB) IDField(context.Context, string) (string, error) {
	return s.idField, nil
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("sqlx.Open() error = %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	_, err = db.Exec(`CREATE TABLE people (
		id INTEGER PRIMARY KEY,
		first_name TEXT,
		last_name TEXT
	)`)
	if err != nil {
		t.Fatalf("creating people: %v", err)
	}
	return db
}

// mustRun runs q against exec and fails the test on error.
func mustRun(t *testing.T, q *Query, exec Executor) *Result {
	t.Helper()

	res, err := q.Run(context.Background(), exec)
	if err != nil {
		t.Fatalf("Run(%s) error = %v", q, err)
	}
	return res
}

func TestRunNoDatabase(t *testing.T) {
	_, err := New().Select().From("people").Run(context.Background(), nil)
	if !errors.Is(err, ErrNoDatabase) {
		t.Errorf("Run() error = %v, want ErrNoDatabase", err)
	}
}

func TestRunSequenceErrorNeverExecutes(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer raw.Close() //nolint:errcheck // Test cleanup

	db := sqlx.NewDb(raw, "sqlmock")
	if _, err := New().Where("id", 1).Run(context.Background(), db); !errors.Is(err, ErrSequence) {
		t.Fatalf("Run() error = %v, want ErrSequence", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements: %v", err)
	}
}

func TestRunExecError(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer raw.Close() //nolint:errcheck // Test cleanup

	engineErr := errors.New("no such table: ghosts")
	mock.ExpectExec("DELETE FROM ghosts WHERE id = 1").WillReturnError(engineErr)

	db := sqlx.NewDb(raw, "sqlmock")
	_, err = New().DeleteFrom("ghosts").Where("id", 1).Run(context.Background(), db)

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Run() error = %v, want *ExecError", err)
	}
	if execErr.SQL != "DELETE FROM ghosts WHERE id = 1" {
		t.Errorf("ExecError.SQL = %q", execErr.SQL)
	}
	if !errors.Is(err, engineErr) {
		t.Errorf("Run() error = %v, want it to wrap the engine error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunWriteAndRead(t *testing.T) {
	db := openTestDB(t)

	res := mustRun(t, New().InsertInto("people").Values(Map{"first_name": "John", "last_name": "Smith"}), db)
	if res.IsQuery() {
		t.Error("INSERT result IsQuery() = true")
	}
	id, err := res.LastInsertID()
	if err != nil || id != 1 {
		t.Fatalf("LastInsertID() = %d, %v, want 1", id, err)
	}

	res = mustRun(t, New().Update("people").Set(Map{"last_name": "Doe"}).Where("id", id), db)
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		t.Errorf("RowsAffected() = %d, %v, want 1", n, err)
	}

	res = mustRun(t, New().Select("first_name", "last_name").From("people"), db)
	if !res.IsQuery() {
		t.Error("SELECT result IsQuery() = false")
	}
	if diff := cmp.Diff([]string{"first_name", "last_name"}, res.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}

	entries, err := res.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("All() returned %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Table() != "people" {
		t.Errorf("Table() = %q, want people", e.Table())
	}
	if e.IDField() != "" {
		t.Errorf("IDField() = %q, want empty for a plain connection", e.IDField())
	}
	if diff := cmp.Diff([]string{"first_name", "last_name"}, e.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if v, _ := e.Get("last_name"); v != "Doe" {
		t.Errorf("last_name = %v, want Doe", v)
	}

	if n, err := res.RowsAffected(); err != nil || n != 0 {
		t.Errorf("SELECT RowsAffected() = %d, %v, want 0", n, err)
	}
}

func TestRunBoundExecutor(t *testing.T) {
	db := openTestDB(t)

	mustRun(t, NewBound(db).InsertInto("people").Values(Map{"first_name": "Jane"}), nil)

	res := mustRun(t, NewBound(db).Select().From("people").WhereExpr("first_name").Like("J%"), nil)
	all, err := res.AllRaw()
	if err != nil {
		t.Fatalf("AllRaw() error = %v", err)
	}
	if diff := cmp.Diff([][]any{{int64(1), "Jane", nil}}, all); diff != "" {
		t.Errorf("AllRaw() mismatch (-want +got):\n%s", diff)
	}
}

func TestResultSinglePass(t *testing.T) {
	db := openTestDB(t)
	for _, name := range []string{"a", "b", "c"} {
		mustRun(t, New().InsertInto("people").Values(Map{"first_name": name}), db)
	}

	res := mustRun(t, New().Select("first_name").From("people"), db)

	var seen []any
	for row, err := range res.Raw() {
		if err != nil {
			t.Fatalf("Raw() error = %v", err)
		}
		seen = append(seen, row[0])
	}
	if diff := cmp.Diff([]any{"a", "b", "c"}, seen); diff != "" {
		t.Errorf("first pass mismatch (-want +got):\n%s", diff)
	}

	for _, err := range res.Raw() {
		if !errors.Is(err, ErrResultConsumed) {
			t.Errorf("second pass error = %v, want ErrResultConsumed", err)
		}
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestResultEarlyBreakReleasesCursor(t *testing.T) {
	db := openTestDB(t)
	for range 3 {
		mustRun(t, New().InsertInto("people").Values(Map{"first_name": "x"}), db)
	}

	res := mustRun(t, New().Select().From("people"), db)
	for _, err := range res.Entries() {
		if err != nil {
			t.Fatalf("Entries() error = %v", err)
		}
		break
	}

	// With one pooled connection this would block if the cursor were held.
	mustRun(t, New().DeleteFrom("people"), db)
}

// trackingDB records the cursors released through CloseRows.
type trackingDB struct {
	*sqlx.DB
	closed int
}

func (d *trackingDB) CloseRows(rows *sqlx.Rows) error {
	d.closed++
	return rows.Close()
}

func TestResultClosesThroughCursorCloser(t *testing.T) {
	db := &trackingDB{DB: openTestDB(t)}
	mustRun(t, New().InsertInto("people").Values(Map{"first_name": "x"}), db)

	if _, err := mustRun(t, New().Select().From("people"), db).AllRaw(); err != nil {
		t.Fatalf("AllRaw() error = %v", err)
	}
	if err := mustRun(t, New().Select().From("people"), db).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if db.closed != 2 {
		t.Errorf("CloseRows calls = %d, want 2", db.closed)
	}
}

func TestRunChecksColumns(t *testing.T) {
	ctx := context.Background()
	db := schemaDB{DB: openTestDB(t), idField: "id"}

	tests := []struct {
		name string
		q    *Query
	}{
		{"select", New().Select("age").From("people")},
		{"insert", New().InsertInto("people").Values(Map{"age": 3})},
		{"update", New().Update("people").Set(Map{"age": 3})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.q.Run(ctx, db)
			if !errors.Is(err, ErrUnknownColumn) {
				t.Fatalf("Run() error = %v, want ErrUnknownColumn", err)
			}
			if !strings.Contains(err.Error(), "age") {
				t.Errorf("Run() error = %q, want it to name the column", err)
			}
		})
	}

	if _, err := New().Select().From("ghosts").Run(ctx, db); err == nil {
		t.Error("Run() on a missing table error = nil")
	}
}

func TestRunSetsIDField(t *testing.T) {
	db := schemaDB{DB: openTestDB(t), idField: "id"}

	mustRun(t, New().InsertInto("people").Values(Map{"first_name": "John", "last_name": "Smith"}), db)

	entries, err := mustRun(t, New().Select().From("people"), db).All()
	if err != nil || len(entries) != 1 {
		t.Fatalf("All() = %d entries, %v, want 1", len(entries), err)
	}
	if entries[0].IDField() != "id" {
		t.Errorf("IDField() = %q, want id", entries[0].IDField())
	}

	entries, err = mustRun(t, New().Select("first_name").From("people"), db).All()
	if err != nil || len(entries) != 1 {
		t.Fatalf("All() = %d entries, %v, want 1", len(entries), err)
	}
	if entries[0].IDField() != "" {
		t.Errorf("IDField() = %q, want empty when the id column is not selected", entries[0].IDField())
	}
}

func TestRunVerbose(t *testing.T) {
	db := openTestDB(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	mustRun(t, New().SetVerbose(true).SetLogger(logger).
		InsertInto("people").Values(Map{"first_name": "John"}), db)

	for _, want := range []string{"executed sql", "INSERT INTO people (first_name) VALUES ('John')"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q missing %q", buf.String(), want)
		}
	}

	buf.Reset()
	mustRun(t, New().SetLogger(logger).DeleteFrom("people"), db)
	if buf.Len() != 0 {
		t.Errorf("quiet query logged %q", buf.String())
	}
}
