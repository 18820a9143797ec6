// Package postgres provides a [pgsh.Driver] for postgres databases. It holds
// one connection, opened through either the lib/pq or the pgx database/sql
// driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/rafaelespinoza/pgsh"
	"github.com/rafaelespinoza/pgsh/internal/log"
)

// Names of database/sql drivers that this package can use.
const (
	BackendPQ  = "postgres"
	BackendPGX = "pgx"
)

// Backends lists the supported database/sql drivers, the default first.
var Backends = []string{BackendPQ, BackendPGX}

// New creates a driver for the named backend. The output error wraps
// [pgsh.ErrDriverUnavailable] if the backend is not registered with the
// database/sql package.
func New(backend string) (pgsh.Driver, error) {
	if !slices.Contains(Backends, backend) || !slices.Contains(sql.Drivers(), backend) {
		return nil, fmt.Errorf("%w: %q, choose one of %v", pgsh.ErrDriverUnavailable, backend, Backends)
	}
	return NewDriverWithBackend(backend), nil
}

// NewDriver creates a new postgres driver using the lib/pq backend.
func NewDriver() *Driver { return &Driver{backend: BackendPQ} }

// NewDriverWithBackend creates a new postgres driver using the named
// database/sql driver, which should be one of Backends.
func NewDriverWithBackend(backend string) *Driver { return &Driver{backend: backend} }

// Driver implements the [pgsh.Driver] interface for postgres databases.
type Driver struct {
	backend string
	db      *sql.DB
	conn    *sql.Conn
}

var _ pgsh.Driver = (*Driver)(nil)

func (d *Driver) Name() string { return d.backend }

func (d *Driver) Connect(ctx context.Context, dsn string) (err error) {
	if d.conn != nil {
		return
	}

	db, err := sql.Open(d.backend, dsn)
	if err != nil {
		return
	}
	// Statements are executed sequentially on one session so that session
	// state, like an open transaction, carries over between them.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err == nil {
		err = conn.PingContext(ctx)
	}
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		_ = db.Close()
		return
	}

	d.db, d.conn = db, conn
	log.Debug(ctx, "connected", slog.String("driver", d.backend))
	return
}

func (d *Driver) Close() (err error) {
	db, conn := d.db, d.conn
	if db == nil {
		return
	}
	d.db, d.conn = nil, nil
	err = errors.Join(conn.Close(), db.Close())
	return
}

func (d *Driver) Query(ctx context.Context, statement string) (out *pgsh.ResultSet, err error) {
	if d.conn == nil {
		err = pgsh.ErrNotConnected
		return
	}

	log.Debug(ctx, "executing statement", slog.String("statement", statement))
	rows, err := d.conn.QueryContext(ctx, statement)
	if err != nil {
		err = translateError(statement, err)
		return
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		err = translateError(statement, err)
		return
	}
	if len(columns) < 1 {
		// Nothing tabular, ie: DDL, or DML without RETURNING. Drain it anyways
		// so that errors surfacing after the command tag are not lost.
		for rows.Next() {
		}
		if err = rows.Err(); err != nil {
			err = translateError(statement, err)
			return
		}
		out = &pgsh.ResultSet{}
		return
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		err = translateError(statement, err)
		return
	}
	typeNames := make([]string, len(colTypes))
	for i, colType := range colTypes {
		typeNames[i] = colType.DatabaseTypeName()
	}

	out = &pgsh.ResultSet{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			out, err = nil, translateError(statement, err)
			return
		}
		for i, val := range vals {
			vals[i] = formatTemporal(typeNames[i], val)
		}
		out.Rows = append(out.Rows, vals)
	}
	if err = rows.Err(); err != nil {
		out, err = nil, translateError(statement, err)
	}
	return
}

// temporalLayouts formats values of date and time columns the way the server
// prints them. Both backends decode these columns into a time.Time, which
// carries a date and an offset even when the column type has neither.
var temporalLayouts = map[string]string{
	"DATE":      "2006-01-02",
	"TIME":      "15:04:05.999999",
	"TIMETZ":    "15:04:05.999999-07",
	"TIMESTAMP": "2006-01-02 15:04:05.999999",
}

// formatTemporal renders val with the layout for typeName. Other values,
// including TIMESTAMPTZ values, are returned unchanged.
func formatTemporal(typeName string, val any) any {
	t, ok := val.(time.Time)
	if !ok {
		return val
	}
	layout, ok := temporalLayouts[strings.ToUpper(typeName)]
	if !ok {
		return val
	}
	return t.Format(layout)
}

func (d *Driver) Rollback(ctx context.Context) (err error) {
	if d.conn == nil {
		err = pgsh.ErrNotConnected
		return
	}
	_, err = d.conn.ExecContext(ctx, "ROLLBACK")
	return
}

// translateError converts an error from either backend into a
// *pgsh.ExecutionError, with a message formatted like the one psql shows.
func translateError(statement string, err error) error {
	var (
		pqErr *pq.Error
		pgErr *pgconn.PgError
		msg   string
	)

	switch {
	case errors.As(err, &pqErr):
		msg = formatServerError(pqErr.Severity, pqErr.Message, pqErr.Detail, pqErr.Hint)
	case errors.As(err, &pgErr):
		msg = formatServerError(pgErr.Severity, pgErr.Message, pgErr.Detail, pgErr.Hint)
	default:
		msg = err.Error()
	}

	return &pgsh.ExecutionError{Statement: statement, Message: msg, Err: err}
}

func formatServerError(severity, message, detail, hint string) string {
	if severity == "" {
		severity = "ERROR"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:  %s", severity, message)
	if detail != "" {
		fmt.Fprintf(&b, "\nDETAIL:  %s", detail)
	}
	if hint != "" {
		fmt.Fprintf(&b, "\nHINT:  %s", hint)
	}
	return b.String()
}
