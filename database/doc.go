// Package database is a convenience facade over one SQLite connection.
//
// A Database offers:
//   - Schema helpers (CreateTable, AddColumn, TableColumns, ...)
//   - Single-entry CRUD (AddEntry, GetEntryByID, UpdateEntry, DeleteEntry)
//   - Lazy table reads through GetTable
//   - Query builders bound to the connection (Select, Update, InsertInto, DeleteFrom)
//   - Text overviews and CSV export
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "people.db", Create: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	err = db.CreateTable(ctx, "people",
//	    database.Column{Name: "id", Type: "INTEGER", PrimaryKey: true},
//	    database.Column{Name: "first_name", Type: "TEXT"},
//	)
//	id, err := db.AddEntry(ctx, "people", query.Map{"first_name": "John"}, false)
//
//	for e, err := range db.GetTable(ctx, "people") {
//	    ...
//	}
//
// Statements run on a single connection, one at a time, and autocommit.
// Close and Reconnect must not race with other calls.
package database
