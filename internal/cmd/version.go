package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/rafaelespinoza/alf"
	"github.com/rafaelespinoza/pgsh/internal/version"
)

func makeVersion(name string) alf.Directive {
	var formatJSON bool

	return &alf.Command{
		Description: "show metadata about the build",
		Setup: func(p flag.FlagSet) *flag.FlagSet {
			flags := newFlagSet(name)
			flags.BoolVar(&formatJSON, "json", false, "format output as JSON")
			flags.Usage = func() {
				_, _ = fmt.Fprintf(flags.Output(), `Usage: %s [flags]

	Prints some versioning info to stdout. Pass the -json flag to get JSON.
`,
					name,
				)
				printFlagDefaults(flags)
			}
			return flags
		},
		Run: func(_ context.Context) error {
			tuples := []struct{ key, val string }{
				{"BranchName", version.BranchName},
				{"BuildTime", version.BuildTime},
				{"Driver", version.Driver},
				{"CommitHash", version.CommitHash},
				{"GoVersion", version.GoVersion},
				{"Tag", version.Tag},
			}

			if !formatJSON {
				tw := tabwriter.NewWriter(stdout, 8, 4, 1, '\t', 0)
				for _, tuple := range tuples {
					_, _ = fmt.Fprintf(tw, "%s:\t%s\n", tuple.key, tuple.val)
				}
				return tw.Flush()
			}

			vals := make(map[string]string, len(tuples))
			for _, tuple := range tuples {
				vals[tuple.key] = tuple.val
			}
			out, err := json.Marshal(vals)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "%s\n", out)
			return nil
		},
	}
}
