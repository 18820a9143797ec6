// Package stub implements pgsh interfaces for testing purposes.
package stub

import (
	"context"
	"strings"

	"github.com/rafaelespinoza/pgsh"
)

// Driver is an in-memory pgsh.Driver. It records every statement and
// rollback, and responds to statements with canned results.
type Driver struct {
	// Results maps a statement to its output. A statement without an entry
	// produces a ResultSet with no columns.
	Results map[string]*pgsh.ResultSet
	// Errors maps a statement to a failure. Any statement containing
	// "invalid SQL" fails even without an entry.
	Errors map[string]error
	// ConnectErr is returned by Connect.
	ConnectErr error
	// RollbackErr is returned by Rollback.
	RollbackErr error
	// CloseErr is returned by Close.
	CloseErr error

	DSN        string
	Statements []string
	Rollbacks  int
	Closed     bool
	connected  bool
}

var _ pgsh.Driver = (*Driver)(nil)

func NewDriver() *Driver {
	return &Driver{
		Results: make(map[string]*pgsh.ResultSet),
		Errors:  make(map[string]error),
	}
}

func (d *Driver) Name() string { return "stub" }

func (d *Driver) Connect(_ context.Context, dsn string) error {
	if d.ConnectErr != nil {
		return d.ConnectErr
	}
	d.DSN = dsn
	d.connected = true
	return nil
}

func (d *Driver) Close() error {
	d.Closed = true
	d.connected = false
	return d.CloseErr
}

func (d *Driver) Query(ctx context.Context, statement string) (*pgsh.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.Statements = append(d.Statements, statement)

	if err, ok := d.Errors[statement]; ok {
		return nil, &pgsh.ExecutionError{Statement: statement, Message: err.Error(), Err: err}
	}
	if strings.Contains(statement, "invalid SQL") {
		return nil, &pgsh.ExecutionError{Statement: statement, Message: "syntax error at or near \"invalid\""}
	}
	if rs, ok := d.Results[statement]; ok {
		return rs, nil
	}
	return &pgsh.ResultSet{}, nil
}

func (d *Driver) Rollback(_ context.Context) error {
	d.Rollbacks++
	return d.RollbackErr
}

// Connected reports whether Connect succeeded and Close has not been called.
func (d *Driver) Connected() bool { return d.connected }
