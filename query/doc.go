// Package query builds SQL statements through chained clause calls and
// runs them against a SQLite connection.
//
// Four statement shapes are supported:
//
//	SELECT fields FROM table [WHERE ... [LIKE 'pattern']]
//	INSERT INTO table (cols) VALUES (vals)
//	UPDATE table SET col = val, ... [WHERE ... [LIKE 'pattern']]
//	DELETE FROM table [WHERE ... [LIKE 'pattern']]
//
// Each clause may only follow certain others. The legal orderings form an
// explicit state machine; a call outside it records ErrSequence and the
// query refuses to render or run.
//
// # Literals
//
// Values passed to Values, Set and Where are rendered inline as SQL
// literals through the Value type: nil becomes NULL, integers and finite
// floats are written in decimal, strings are single-quoted with embedded
// quotes doubled. Other Go types are rejected with ErrUnsupportedValue.
//
// WhereExpr inserts its predicate verbatim and is not escaped.
//
// # Results
//
// Run on a SELECT returns a Result whose Entries and Raw sequences read
// the underlying cursor lazily and only once.
package query
