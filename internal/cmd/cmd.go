// Package cmd contains all the CLI stuff.
package cmd

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/rafaelespinoza/alf"
	"github.com/rafaelespinoza/pgsh"
	"github.com/rafaelespinoza/pgsh/internal"
	"github.com/rafaelespinoza/pgsh/internal/log"
)

// OpenDriver creates a pgsh.Driver by name. If the driver is not part of the
// build, then the error should wrap pgsh.ErrDriverUnavailable.
type OpenDriver func(name string) (pgsh.Driver, error)

var (
	// commonArgs are values of the top-level flags. The driver name may also
	// come from a configuration file, but a flag value takes precedence.
	commonArgs struct {
		Conf      string
		EnvFile   string
		Driver    string
		LogLevel  string
		LogFormat string
	}
	// connConfig is resolved once, before any subcommand runs.
	connConfig internal.ConnectionConfig
	// bin is the name of the binary.
	bin = os.Args[0]
	// openDriver is passed in from package main.
	openDriver OpenDriver
	// theDriver is the driver selected by flags or configuration. It is not
	// connected until a subcommand needs it.
	theDriver pgsh.Driver

	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Root abstracts a top-level command from package main.
type Root interface {
	// Run is the entry point. It should be called with os.Args[1:].
	Run(ctx context.Context, args []string) error
}

// subcommand names
const (
	cmdExec    = "exec"
	cmdREPL    = "repl"
	cmdVersion = "version"
)

// New constructs a top-level command with subcommands.
func New(open OpenDriver) Root {
	openDriver = open
	del := &alf.Delegator{
		Description: "main command for " + bin,
		Subs: map[string]alf.Directive{
			cmdExec:    makeExec(cmdExec),
			cmdREPL:    makeREPL(cmdREPL),
			cmdVersion: makeVersion(cmdVersion),
		},
	}

	rootFlags := newFlagSet("pgsh")
	rootFlags.Usage = func() {
		fmt.Fprintf(rootFlags.Output(), `Usage:

	%s                      # Interactive REPL: type SQL, 'exit' or Ctrl-D to quit
	%s "SELECT 1;"          # Run one query and print results
	%s -f query.sql         # Run queries from a file
	%s -h                   # Help
	%s [flags] command [sub-flags]

Description:

	pgsh is a minimal client for a PostgreSQL database. SQL text is split into
	statements on every ";", each statement is executed in order, and tabular
	results are printed. A failed statement is reported, rolled back, and the
	remaining statements still run.

	A first argument that names a command, such as "version" or "help", runs
	that command rather than SQL. To send such a word as SQL, use the exec
	command explicitly: %s exec -- "help"

	Specify database connection params with environment variables. Defaults
	are in parentheses:
		%s (%s) %s (%d) %s (%s) %s (%s) %s (%s) %s (%s)

	Variables may also be set in a dotenv file, which never overrides the
	environment.

	The following flags should go before the command.
`,
			bin, bin, bin, bin, bin, bin,
			internal.EnvHost, internal.DefaultHost,
			internal.EnvPort, internal.DefaultPort,
			internal.EnvUser, internal.DefaultUser,
			internal.EnvPassword, internal.DefaultPassword,
			internal.EnvDatabase, internal.DefaultDatabase,
			internal.EnvSSLMode, internal.DefaultSSLMode,
		)
		printFlagDefaults(rootFlags)
		fmt.Fprintf(
			rootFlags.Output(), `
Commands:

	These will have their own set of flags. Put them after the command.

	%v

Examples:

	%s [command] -h
`,
			strings.Join(del.DescribeSubcommands(), "\n\t"), bin)
	}

	rootFlags.StringVar(&commonArgs.Conf, "conf", ".pgsh.json", "path to pgsh config file")
	rootFlags.StringVar(&commonArgs.EnvFile, "env-file", ".env", "path to dotenv file, ignored if missing")
	rootFlags.StringVar(
		&commonArgs.Driver,
		"driver",
		"",
		fmt.Sprintf("name of database driver, default %q, can also set with config file", internal.DefaultDriver),
	)
	rootFlags.StringVar(
		&commonArgs.LogLevel,
		"log-level",
		slog.LevelWarn.String(),
		fmt.Sprintf("logging level, one of %v", log.Levels),
	)
	rootFlags.StringVar(
		&commonArgs.LogFormat,
		"log-format",
		"TINT",
		fmt.Sprintf("logging format, one of %v", log.Formats),
	)
	del.Flags = rootFlags

	return &rootCommand{
		root: &alf.Root{
			Delegator:  del,
			PrePerform: prePerform,
		},
	}
}

// rootCommand rewrites the short forms of invocation into explicit
// subcommands before delegating.
type rootCommand struct{ root *alf.Root }

func (r *rootCommand) Run(ctx context.Context, args []string) error {
	return r.root.Run(ctx, normalizeArgs(args))
}

var errReadConfig = errors.New("reading config file")

func prePerform(ctx context.Context) error {
	log.SetLogger(stderr, commonArgs.LogLevel, commonArgs.LogFormat)

	if err := internal.LoadEnvFile(commonArgs.EnvFile); err != nil {
		return fmt.Errorf("%w: %w", errReadConfig, err)
	}

	conf, err := internal.ReadConfig(commonArgs.Conf)
	if errors.Is(err, internal.ErrNotFound) {
		// probably no config file present, rely on arguments instead.
		log.Debug(ctx, "no config file", slog.String("path", commonArgs.Conf))
	} else if errors.Is(err, internal.ErrDataInvalid) {
		return err
	} else if err != nil {
		return fmt.Errorf("%w: %w", errReadConfig, err)
	}

	driverName := cmp.Or(commonArgs.Driver, conf.Driver, internal.DefaultDriver)
	if theDriver, err = openDriver(driverName); err != nil {
		return err
	}

	if connConfig, err = internal.ResolveConnection(conf, os.LookupEnv); err != nil {
		return err
	}
	log.Debug(ctx, "resolved configuration",
		slog.Any("config", conf),
		slog.Any("connection", connConfig),
		slog.String("driver", driverName),
	)
	return nil
}

// connect opens the connection of theDriver. Callers are responsible for
// closing it.
func connect(ctx context.Context) (pgsh.Driver, error) {
	if theDriver == nil {
		return nil, pgsh.ErrDriverUnavailable
	}
	log.Info(ctx, "connecting", slog.String("driver", theDriver.Name()), slog.Any("connection", connConfig))
	if err := theDriver.Connect(ctx, connConfig.DSN()); err != nil {
		return nil, fmt.Errorf("connecting to %s:%d: %w", connConfig.Host, connConfig.Port, err)
	}
	return theDriver, nil
}

// closeDriver closes the connection when a subcommand is done with it. A
// failure here does not change the outcome of the subcommand, so it is only
// logged.
func closeDriver(ctx context.Context, driver pgsh.Driver) {
	if err := driver.Close(); err != nil {
		log.Error(ctx, err, "closing connection", slog.String("driver", driver.Name()))
	}
}

// normalizeArgs maps the short forms of invocation to explicit subcommands.
// Leading top-level flags are kept in place. Then:
//
//   - no args runs the REPL.
//   - "-f <path>" executes the contents of a file.
//   - any other args are joined with spaces and executed as SQL.
//
// Explicit subcommands and help requests pass through unchanged.
func normalizeArgs(args []string) []string {
	i := countRootFlagArgs(args)
	head, rest := args[:i:i], args[i:]

	switch {
	case len(rest) == 0:
		return append(head, cmdREPL)
	case isPassthrough(rest[0]):
		return append(head, rest...)
	case rest[0] == "-f" && len(rest) == 2:
		return append(head, cmdExec, "-f", rest[1])
	default:
		return append(head, cmdExec, "--", strings.Join(rest, " "))
	}
}

var rootFlagNames = []string{"conf", "env-file", "driver", "log-level", "log-format"}

// countRootFlagArgs reports how many leading args are top-level flags and
// their values.
func countRootFlagArgs(args []string) (n int) {
	for n < len(args) {
		arg := args[n]
		if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
			return
		}
		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !slices.Contains(rootFlagNames, name) {
			return
		}
		n++
		if !hasValue && n < len(args) {
			n++
		}
	}
	return
}

func isPassthrough(arg string) bool {
	switch arg {
	case cmdExec, cmdREPL, cmdVersion, "help", "-h", "-help", "--help":
		return true
	}
	return false
}

func newFlagSet(name string) (out *flag.FlagSet) {
	out = flag.NewFlagSet(name, flag.ExitOnError)
	out.SetOutput(stdout)
	return
}

// printFlagDefaults calls PrintDefaults on f. It helps make help message
// formatting more consistent.
func printFlagDefaults(f *flag.FlagSet) {
	fmt.Fprintf(f.Output(), "\n%s flags:\n\n", f.Name())
	f.PrintDefaults()
}
