// Package terminal picks how interactive input is read, depending on whether
// stdin is a terminal.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rafaelespinoza/pgsh"
	"github.com/rafaelespinoza/pgsh/internal/tty"
)

// NewLineReader uses line editing and history when both in and out are
// terminals. Otherwise, it reads plain lines from in and echoes prompts to
// out.
func NewLineReader(in io.Reader, out io.Writer) (pgsh.LineReader, error) {
	if !tty.IsTerminal(in) || !tty.IsTerminal(out) {
		return NewPlainReader(in, out), nil
	}

	rl, err := readline.NewEx(&readline.Config{
		Stdin:           io.NopCloser(in),
		Stdout:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return rl, nil
}

// PlainReader reads newline-delimited input without any line editing.
type PlainReader struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

var _ pgsh.LineReader = (*PlainReader)(nil)

func NewPlainReader(in io.Reader, out io.Writer) *PlainReader {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &PlainReader{scanner: scanner, out: out}
}

// Readline writes the prompt, then reads the next line without its
// terminator. When input is exhausted, the error is io.EOF.
func (r *PlainReader) Readline() (string, error) {
	if r.out != nil && r.prompt != "" {
		if _, err := fmt.Fprint(r.out, r.prompt); err != nil {
			return "", err
		}
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSuffix(r.scanner.Text(), "\r"), nil
}

func (r *PlainReader) SetPrompt(prompt string) { r.prompt = prompt }

func (r *PlainReader) Close() error { return nil }
