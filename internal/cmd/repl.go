package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/rafaelespinoza/alf"
	"github.com/rafaelespinoza/pgsh"
	"github.com/rafaelespinoza/pgsh/internal/terminal"
	"github.com/rafaelespinoza/pgsh/internal/tty"
)

func makeREPL(name string) alf.Directive {
	return &alf.Command{
		Description: "read and execute SQL interactively",
		Setup: func(p flag.FlagSet) *flag.FlagSet {
			flags := newFlagSet(name)
			flags.Usage = func() {
				_, _ = fmt.Fprintf(flags.Output(), `Usage: %s [pgsh-flags] %s

	Type SQL and press Enter. Input accumulates until it ends with ";", then
	every statement in it is executed. Blank lines and lines starting with
	"--" are ignored. Enter exit, quit or \q, or press Ctrl-D to quit. Ctrl-C
	discards the current input.

	This is the default command when no arguments are given.
`,
					bin, name)
				printFlagDefaults(&p)
			}
			return flags
		},
		Run: func(ctx context.Context) error {
			driver, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closeDriver(ctx, driver)

			reader, err := terminal.NewLineReader(stdin, stdout)
			if err != nil {
				return err
			}
			defer func() { _ = reader.Close() }()

			repl := pgsh.REPL{
				Session: &pgsh.Session{
					Driver: driver,
					Out:    stdout,
					ErrOut: stderr,
					Color:  tty.IsTerminal(stderr),
				},
				Reader: reader,
				Banner: fmt.Sprintf(
					"pgsh: type SQL and press Enter. 'exit' or Ctrl-D to quit.\n(%s:%d, user %s, db %s)",
					connConfig.Host, connConfig.Port, connConfig.User, connConfig.Database,
				),
			}
			return repl.Loop(ctx)
		},
	}
}
