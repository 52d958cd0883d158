package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/sqlite-integrated/database"
	"github.com/nerrad567/sqlite-integrated/query"
)

// setupDB creates a database file holding a people table with two rows.
func setupDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "people.db")

	db, err := database.Open(ctx, database.Config{Path: path, Create: true})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	err = db.CreateTable(ctx, "people",
		database.Column{Name: "id", Type: "INTEGER", PrimaryKey: true},
		database.Column{Name: "first_name", Type: "TEXT"},
		database.Column{Name: "last_name", Type: "TEXT"},
	)
	if err != nil {
		t.Fatalf("CreateTable() error: %v", err)
	}
	for _, p := range [][2]string{{"John", "Smith"}, {"Jane", "Doe"}} {
		if _, err := db.AddEntry(ctx, "people", query.Map{"first_name": p[0], "last_name": p[1]}, false); err != nil {
			t.Fatalf("AddEntry() error: %v", err)
		}
	}
	return path
}

// execute runs the command tree with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(configEnv, "")
	t.Setenv("SQLITEI_LOGGING_LEVEL", "error")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestOverviewCmd(t *testing.T) {
	path := setupDB(t)

	out, err := execute(t, "--db", path, "overview")
	if err != nil {
		t.Fatalf("overview error: %v", err)
	}
	want := "Tables\n\tpeople\n\t\tid\n\t\tfirst_name\n\t\tlast_name\n"
	if out != want {
		t.Errorf("overview output = %q, want %q", out, want)
	}

	out, err = execute(t, "--db", path, "overview", "--more")
	if err != nil {
		t.Fatalf("overview --more error: %v", err)
	}
	if !strings.Contains(out, "people (2 rows)") {
		t.Errorf("overview --more output = %q, want row count", out)
	}
}

func TestTableCmd(t *testing.T) {
	path := setupDB(t)

	out, err := execute(t, "--db", path, "table", "people", "--only", "first_name,last_name")
	if err != nil {
		t.Fatalf("table error: %v", err)
	}
	for _, want := range []string{"first_name", "John", "Doe"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "id ") {
		t.Errorf("table output includes unselected id column:\n%s", out)
	}

	if _, err := execute(t, "--db", path, "table", "ghosts"); err == nil {
		t.Error("table ghosts error = nil")
	}
}

func TestGetCmd(t *testing.T) {
	path := setupDB(t)

	out, err := execute(t, "--db", path, "get", "people", "2")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	want := "Entry(table: people, id_field: id, data: {id: 2, first_name: 'Jane', last_name: 'Doe'})\n"
	if out != want {
		t.Errorf("get output = %q, want %q", out, want)
	}

	out, err = execute(t, "--db", path, "get", "people", "Smith", "--field", "last_name")
	if err != nil {
		t.Fatalf("get --field error: %v", err)
	}
	if !strings.Contains(out, "'John'") {
		t.Errorf("get --field output = %q", out)
	}

	if _, err := execute(t, "--db", path, "get", "people", "9"); err == nil {
		t.Error("get missing id error = nil")
	}
}

func TestSQLCmd(t *testing.T) {
	path := setupDB(t)

	if _, err := execute(t, "--db", path, "sql", "UPDATE people SET last_name = NULL WHERE id = ?", "1"); err != nil {
		t.Fatalf("sql update error: %v", err)
	}

	out, err := execute(t, "--db", path, "sql", "SELECT id, last_name FROM people ORDER BY id")
	if err != nil {
		t.Fatalf("sql select error: %v", err)
	}
	if want := "1\tNULL\n2\tDoe\n"; out != want {
		t.Errorf("sql output = %q, want %q", out, want)
	}

	if _, err := execute(t, "--db", path, "sql", "SELEKT 1"); err == nil {
		t.Error("sql syntax error = nil")
	}
}

func TestExportCmd(t *testing.T) {
	path := setupDB(t)
	dir := t.TempDir()

	if _, err := execute(t, "--db", path, "export", dir, "--sep", ","); err != nil {
		t.Fatalf("export error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "people.csv"))
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	want := "id,first_name,last_name\n1,John,Smith\n2,Jane,Doe\n"
	if string(data) != want {
		t.Errorf("export = %q, want %q", data, want)
	}

	if _, err := execute(t, "--db", path, "export", dir, "--sep", ";;"); err == nil {
		t.Error("export with two character separator error = nil")
	}
}

func TestMissingDatabase(t *testing.T) {
	_, err := execute(t, "--db", filepath.Join(t.TempDir(), "absent.db"), "overview")
	if err == nil {
		t.Fatal("overview on a missing file error = nil")
	}
	if !strings.Contains(err.Error(), "opening database") {
		t.Errorf("error = %v, want opening database context", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "--config", "/nonexistent/path/config.yaml", "overview")
	if err == nil {
		t.Fatal("overview with invalid config path error = nil")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config context", err)
	}
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"7", int64(7)},
		{"-2", int64(-2)},
		{"2.5", 2.5},
		{"John", "John"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseArg(tt.in); got != tt.want {
			t.Errorf("parseArg(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}
