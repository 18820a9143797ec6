package pgsh_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/chzyer/readline"

	"github.com/rafaelespinoza/pgsh"
	"github.com/rafaelespinoza/pgsh/internal/stub"
)

// scriptedReader is a pgsh.LineReader that responds with predefined input.
// It records the prompt shown for each line.
type scriptedReader struct {
	lines   []scriptedLine
	prompt  string
	prompts []string
	closed  bool
}

type scriptedLine struct {
	text string
	err  error
}

func newScriptedReader(lines ...string) *scriptedReader {
	r := &scriptedReader{}
	for _, line := range lines {
		r.lines = append(r.lines, scriptedLine{text: line})
	}
	return r
}

func (r *scriptedReader) Readline() (string, error) {
	r.prompts = append(r.prompts, r.prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	next := r.lines[0]
	r.lines = r.lines[1:]
	return next.text, next.err
}

func (r *scriptedReader) SetPrompt(prompt string) { r.prompt = prompt }
func (r *scriptedReader) Close() error            { r.closed = true; return nil }

func newREPL(d pgsh.Driver, reader pgsh.LineReader) (*pgsh.REPL, *bytes.Buffer, *bytes.Buffer) {
	session, outBuf, errBuf := newSession(d)
	return &pgsh.REPL{Session: session, Reader: reader, Banner: "hello"}, outBuf, errBuf
}

func TestREPL(t *testing.T) {
	t.Run("accumulates until terminated", func(t *testing.T) {
		d := stub.NewDriver()
		reader := newScriptedReader("SELECT", " 1", ";")
		repl, outBuf, _ := newREPL(d, reader)

		if err := repl.Loop(context.Background()); err != nil {
			t.Fatal(err)
		}

		expPrompts := []string{
			pgsh.PromptPrimary,
			pgsh.PromptContinuation,
			pgsh.PromptContinuation,
			pgsh.PromptPrimary, // then EOF
		}
		if !slices.Equal(reader.prompts, expPrompts) {
			t.Errorf("wrong prompts\ngot      %q\nexpected %q", reader.prompts, expPrompts)
		}
		if !slices.Equal(d.Statements, []string{"SELECT\n  1"}) {
			t.Errorf("wrong statements %q", d.Statements)
		}
		const expOut = "hello\n(no result set)\nBye.\n"
		if got := outBuf.String(); got != expOut {
			t.Errorf("wrong output\ngot      %q\nexpected %q", got, expOut)
		}
	})

	t.Run("nothing runs before the terminator", func(t *testing.T) {
		d := stub.NewDriver()
		repl, _, _ := newREPL(d, newScriptedReader("SELECT", " 1"))

		if err := repl.Loop(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(d.Statements) != 0 {
			t.Errorf("did not expect any statements, got %q", d.Statements)
		}
	})

	t.Run("many statements in one buffer", func(t *testing.T) {
		d := stub.NewDriver()
		repl, _, errBuf := newREPL(d, newScriptedReader("SELECT 1; invalid SQL; SELECT 2;", "SELECT 3;"))

		if err := repl.Loop(context.Background()); err != nil {
			t.Fatal(err)
		}
		exp := []string{"SELECT 1", "invalid SQL", "SELECT 2", "SELECT 3"}
		if !slices.Equal(d.Statements, exp) {
			t.Errorf("wrong statements\ngot      %q\nexpected %q", d.Statements, exp)
		}
		if d.Rollbacks != 1 {
			t.Errorf("wrong number of rollbacks; got %d", d.Rollbacks)
		}
		if !strings.HasPrefix(errBuf.String(), "Error: ") {
			t.Errorf("wrong error output %q", errBuf.String())
		}
	})

	t.Run("blank lines and comments are ignored", func(t *testing.T) {
		d := stub.NewDriver()
		reader := newScriptedReader("", "   ", "-- a comment", "SELECT 1", "  -- another", ";")
		repl, _, _ := newREPL(d, reader)

		if err := repl.Loop(context.Background()); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(d.Statements, []string{"SELECT 1"}) {
			t.Errorf("wrong statements %q", d.Statements)
		}
		expPrompts := []string{
			pgsh.PromptPrimary,
			pgsh.PromptPrimary,
			pgsh.PromptPrimary,
			pgsh.PromptPrimary,
			pgsh.PromptContinuation,
			pgsh.PromptContinuation,
			pgsh.PromptPrimary,
		}
		if !slices.Equal(reader.prompts, expPrompts) {
			t.Errorf("wrong prompts\ngot      %q\nexpected %q", reader.prompts, expPrompts)
		}
	})

	t.Run("quit commands", func(t *testing.T) {
		for _, quit := range []string{"exit", "QUIT", `\q`, "  Exit  "} {
			t.Run(quit, func(t *testing.T) {
				d := stub.NewDriver()
				repl, outBuf, _ := newREPL(d, newScriptedReader("SELECT", quit, "1;"))

				if err := repl.Loop(context.Background()); err != nil {
					t.Fatal(err)
				}
				if len(d.Statements) != 0 {
					t.Errorf("did not expect any statements, got %q", d.Statements)
				}
				if !strings.HasSuffix(outBuf.String(), "Bye.\n") {
					t.Errorf("expected farewell, got %q", outBuf.String())
				}
			})
		}
	})

	t.Run("interrupt discards the buffer", func(t *testing.T) {
		d := stub.NewDriver()
		reader := newScriptedReader()
		reader.lines = []scriptedLine{
			{text: "SELECT oops"},
			{err: readline.ErrInterrupt},
			{text: "SELECT 1;"},
		}
		repl, _, _ := newREPL(d, reader)

		if err := repl.Loop(context.Background()); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(d.Statements, []string{"SELECT 1"}) {
			t.Errorf("wrong statements %q", d.Statements)
		}
		expPrompts := []string{
			pgsh.PromptPrimary,
			pgsh.PromptContinuation,
			pgsh.PromptPrimary,
			pgsh.PromptPrimary,
		}
		if !slices.Equal(reader.prompts, expPrompts) {
			t.Errorf("wrong prompts\ngot      %q\nexpected %q", reader.prompts, expPrompts)
		}
	})

	t.Run("read error", func(t *testing.T) {
		errRead := errors.New("read failed")
		reader := newScriptedReader()
		reader.lines = []scriptedLine{{err: errRead}}
		repl, outBuf, _ := newREPL(stub.NewDriver(), reader)

		if err := repl.Loop(context.Background()); !errors.Is(err, errRead) {
			t.Errorf("expected error (%v) to match %v", err, errRead)
		}
		if strings.Contains(outBuf.String(), "Bye.") {
			t.Errorf("did not expect farewell, got %q", outBuf.String())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		d := stub.NewDriver()
		repl, _, _ := newREPL(d, newScriptedReader("SELECT 1;"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := repl.Loop(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected error (%v) to match %v", err, context.Canceled)
		}
		if len(d.Statements) != 0 {
			t.Errorf("did not expect any statements, got %q", d.Statements)
		}
	})
}
