// Package pgsh is a minimal client for a PostgreSQL database. It splits SQL
// text into statements, executes each one against a single connection and
// prints tabular results.
package pgsh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/rafaelespinoza/pgsh/internal/log"
)

// errPrefix precedes every error message written to a Session's ErrOut.
const errPrefix = "Error: "

// Session executes statements against one connection, which is owned by the
// caller. Out receives result tables, ErrOut receives error messages.
type Session struct {
	Driver Driver
	Out    io.Writer
	ErrOut io.Writer
	// Color enables a highlighted error prefix. It should only be set when
	// ErrOut is a terminal.
	Color bool
}

// Run executes every statement in blob, in order. A failed statement is
// reported to ErrOut and followed by a rollback, then execution continues with
// the next statement. Run stops early only when ctx is done or when output
// cannot be written.
func (s *Session) Run(ctx context.Context, blob string) error {
	if s.Driver == nil {
		return ErrNotConnected
	}

	for stmt := range SplitStatements(blob) {
		if err := ctx.Err(); err != nil {
			return err
		}

		rs, err := s.Driver.Query(ctx, stmt)
		if err == nil {
			if err = PrintResult(s.Out, rs); err != nil {
				return fmt.Errorf("writing result: %w", err)
			}
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		s.reportError(err)
		s.rollback(ctx, stmt)
	}

	return nil
}

func (s *Session) reportError(err error) {
	msg := err.Error()
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		msg = execErr.Error()
	}

	prefix := color.New(color.FgRed, color.Bold)
	if s.Color {
		prefix.EnableColor()
	} else {
		prefix.DisableColor()
	}
	_, _ = prefix.Fprint(s.ErrOut, errPrefix)
	_, _ = fmt.Fprintln(s.ErrOut, msg)
}

func (s *Session) rollback(ctx context.Context, stmt string) {
	if err := s.Driver.Rollback(ctx); err != nil {
		log.Warn(ctx, "rollback after failed statement",
			slog.String("driver", s.Driver.Name()),
			slog.String("statement", stmt),
			slog.String("error", err.Error()),
		)
	}
}
