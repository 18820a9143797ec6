package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rafaelespinoza/alf"
	"github.com/rafaelespinoza/pgsh"
	"github.com/rafaelespinoza/pgsh/internal/tty"
)

func makeExec(name string) alf.Directive {
	var (
		pathToFile string
		flags      *flag.FlagSet
	)

	return &alf.Command{
		Description: "run SQL from arguments or a file, then exit",
		Setup: func(p flag.FlagSet) *flag.FlagSet {
			flags = newFlagSet(name)
			flags.StringVar(&pathToFile, "f", "", "path to a file of SQL statements")
			flags.Usage = func() {
				_, _ = fmt.Fprintf(flags.Output(), `Usage: %s [pgsh-flags] %s [%s-flags] [SQL...]

	Execute SQL statements in batch mode. The SQL text is read from the file
	named by the "f" flag, otherwise the remaining arguments are joined with
	spaces. Statements are separated by ";". A semicolon inside a string
	literal also separates statements.

	A failed statement is reported to stderr and rolled back. The remaining
	statements still run.
`,
					bin, name, name)
				printFlagDefaults(&p)
				printFlagDefaults(flags)
			}
			return flags
		},
		Run: func(ctx context.Context) error {
			blob, err := readBlob(pathToFile, flags.Args())
			if err != nil {
				return err
			}

			driver, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closeDriver(ctx, driver)

			session := pgsh.Session{
				Driver: driver,
				Out:    stdout,
				ErrOut: stderr,
				Color:  tty.IsTerminal(stderr),
			}
			return session.Run(ctx, blob)
		},
	}
}

func readBlob(pathToFile string, args []string) (string, error) {
	if pathToFile == "" {
		return strings.Join(args, " "), nil
	}
	data, err := os.ReadFile(pathToFile)
	if err != nil {
		return "", fmt.Errorf("reading SQL file: %w", err)
	}
	return string(data), nil
}
