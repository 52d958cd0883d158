// Package api implements the read-only HTTP table browser for sqlitei.
//
// This package provides:
//   - GET /api/v1/health for liveness and database reachability
//   - GET /api/v1/tables listing tables with row counts
//   - GET /api/v1/tables/{table} returning rows (?only=a,b&limit=n)
//   - GET /api/v1/tables/{table}/columns returning column definitions
//   - GET /api/v1/tables/{table}/{id} returning one row by id (?field=col)
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Concurrency
//
// A database.Database owns a single connection. The server holds a mutex
// for the duration of each database call so concurrent requests queue on
// that connection instead of interleaving statements.
//
// # Security
//
// There is no authentication. The server binds to 127.0.0.1 by default and
// offers no write routes.
package api
