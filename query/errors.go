package query

import (
	"errors"
	"fmt"
)

var (
	// ErrSequence is returned when a clause is called in an order the
	// builder does not accept, or Run is called on an incomplete chain.
	ErrSequence = errors.New("invalid clause sequence")

	// ErrEmptyQuery is returned when a query with no clauses is rendered or run.
	ErrEmptyQuery = errors.New("query has no clauses")

	// ErrNoDatabase is returned by Run when neither an attached nor a
	// supplied executor is available.
	ErrNoDatabase = errors.New("query has no database to run on")

	// ErrUnsupportedValue is returned for Go values with no SQL literal form.
	ErrUnsupportedValue = errors.New("unsupported value type")

	// ErrUnknownColumn is returned when a query references columns the
	// target table does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNoColumns is returned by Set when given an empty mapping.
	ErrNoColumns = errors.New("no columns to assign")

	// ErrResultConsumed is returned when a SELECT result is iterated twice.
	ErrResultConsumed = errors.New("result already consumed")
)

// ExecError reports that the engine rejected a rendered statement.
type ExecError struct {
	SQL string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("executing %q: %v", e.SQL, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
