// Package sqlite opens and configures connections to SQLite databases.
//
// This package manages:
//   - Driver registration (github.com/mattn/go-sqlite3)
//   - Connection strings with foreign keys, busy timeout and optional WAL
//   - Pool settings suited to a single-writer engine
//   - Transient in-memory databases
//
// Connections are returned as *sqlx.DB so callers can scan rows into
// slices and structs.
//
// Usage:
//
//	db, err := sqlite.Open(ctx, sqlite.Config{Path: "data/app.db", Create: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// In-memory databases live exactly as long as their single connection:
//
//	db, err := sqlite.Open(ctx, sqlite.Config{Path: sqlite.MemoryPath})
package sqlite
