package pgsh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Prompts shown by the REPL, depending on whether input is being accumulated.
const (
	PromptPrimary      = "sql> "
	PromptContinuation = "   > "
)

// LineReader reads input one line at a time, showing a prompt before each.
// A *readline.Instance satisfies this interface.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

type replState uint8

const (
	stateEmpty replState = iota
	stateAccumulating
)

func (s replState) prompt() string {
	if s == stateAccumulating {
		return PromptContinuation
	}
	return PromptPrimary
}

// REPL reads SQL interactively. Lines accumulate into a buffer until the
// buffer ends with a ";", then every statement in it is run by the Session.
type REPL struct {
	Session *Session
	Reader  LineReader
	// Out receives the banner and farewell. If empty, then the Session's Out
	// is used.
	Out io.Writer
	// Banner is printed once before reading input.
	Banner string

	state  replState
	buffer []string
}

// Loop reads and executes input until the reader is exhausted or a quit
// command is entered. An interrupt discards any accumulated input.
func (r *REPL) Loop(ctx context.Context) (err error) {
	out := r.Out
	if out == nil {
		out = r.Session.Out
	}
	if r.Banner != "" {
		_, _ = fmt.Fprintln(out, r.Banner)
	}
	defer func() {
		if err == nil {
			_, _ = fmt.Fprintln(out, "Bye.")
		}
	}()

	r.reset()
	for {
		if err = ctx.Err(); err != nil {
			return
		}

		r.Reader.SetPrompt(r.state.prompt())
		line, rerr := r.Reader.Readline()
		if errors.Is(rerr, readline.ErrInterrupt) {
			r.reset()
			continue
		} else if errors.Is(rerr, io.EOF) {
			return nil
		} else if rerr != nil {
			return rerr
		}

		stripped := strings.TrimSpace(line)
		if isQuitCommand(stripped) {
			return nil
		}
		if stripped == "" || strings.HasPrefix(stripped, "--") {
			continue
		}

		r.buffer = append(r.buffer, strings.TrimSuffix(line, "\n")+"\n")
		r.state = stateAccumulating

		stmt := strings.TrimSpace(strings.Join(r.buffer, " "))
		if !Complete(stmt) {
			continue
		}
		r.reset()
		if err = r.Session.Run(ctx, stmt); err != nil {
			return
		}
	}
}

func (r *REPL) reset() {
	r.state = stateEmpty
	r.buffer = r.buffer[:0]
}

func isQuitCommand(stripped string) bool {
	switch strings.ToLower(stripped) {
	case "exit", "quit", `\q`:
		return true
	}
	return false
}
