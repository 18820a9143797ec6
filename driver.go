package pgsh

import (
	"context"
	"errors"
)

// Driver adapts a database implementation to use pgsh. An implementation
// holds exactly one connection, which is shared sequentially by every
// statement in a process invocation.
type Driver interface {
	// Name should return the name of the driver: ie: postgres, pgx.
	Name() string

	// Connect should open the connection to the database and verify that it
	// is usable.
	Connect(ctx context.Context, dsn string) error
	// Close should close the database connection.
	Close() error

	// Query executes one statement. A statement without tabular output, such
	// as DDL or DML without a RETURNING clause, should yield a ResultSet whose
	// Columns field is nil. When the statement fails, the returned error
	// should be an *ExecutionError.
	Query(ctx context.Context, statement string) (*ResultSet, error)
	// Rollback discards the current transaction, if any, so the connection
	// stays usable after a failed statement.
	Rollback(ctx context.Context) error
}

// ResultSet is the output of a query with tabular output. The length of each
// row is equal to the length of Columns. Column names are not necessarily
// unique.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// General error values to help shape behavior.
var (
	// ErrNotConnected is returned by a Driver when a method needs a
	// connection but Connect has not been called.
	ErrNotConnected = errors.New("not connected")
	// ErrDriverUnavailable means the requested database driver is not part of
	// this build.
	ErrDriverUnavailable = errors.New("driver unavailable")
)

// ExecutionError is a failure to execute a statement. It decouples callers
// from any specific database client's error types; drivers translate their
// native errors into this one.
type ExecutionError struct {
	// Statement is the SQL text that failed.
	Statement string
	// Message is human-readable and is what gets shown to the user.
	Message string
	// Err is the underlying driver error, if any.
	Err error
}

func (e *ExecutionError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ExecutionError) Unwrap() error { return e.Err }
