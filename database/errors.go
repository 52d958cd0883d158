package database

import (
	"errors"

	"github.com/nerrad567/sqlite-integrated/internal/infrastructure/sqlite"
	"github.com/nerrad567/sqlite-integrated/query"
)

// Domain errors for the database facade.
var (
	// ErrNoDatabaseFile is returned by Open for a missing file without Create.
	ErrNoDatabaseFile = sqlite.ErrNoDatabaseFile

	// ErrPrimaryKeyType is returned when a primary key column is not INTEGER.
	ErrPrimaryKeyType = errors.New("primary key column must have type INTEGER")

	// ErrInvalidColumn is returned when a column definition is incomplete.
	ErrInvalidColumn = errors.New("invalid column")

	// ErrIncompleteEntry is returned when an entry does not cover the
	// columns of its table.
	ErrIncompleteEntry = errors.New("entry fields do not match table columns")

	// ErrNilEntry is returned when an entry argument is nil.
	ErrNilEntry = errors.New("nil entry")

	// ErrUnknownColumn is returned when a name is not a column of the table.
	ErrUnknownColumn = query.ErrUnknownColumn

	// ErrNoTable is returned when a table does not exist.
	ErrNoTable = errors.New("table not found")

	// ErrNoIDField is returned when a table has no column identifying its rows.
	ErrNoIDField = errors.New("table has no id field")

	// ErrNotFound is returned when no row has the requested id.
	ErrNotFound = errors.New("entry not found")

	// ErrDuplicateID is returned when more than one row has the requested id.
	ErrDuplicateID = errors.New("more than one entry with id")

	// ErrForeignKeyColumn is returned when adding a foreign key column to an
	// existing table, which SQLite does not support.
	ErrForeignKeyColumn = errors.New("foreign key columns can only be declared at table creation")

	// ErrClosed is returned when using a closed database.
	ErrClosed = errors.New("database is closed")

	// ErrNotDirectory is returned when an export target is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)
