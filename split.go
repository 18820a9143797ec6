package pgsh

import (
	"iter"
	"strings"
)

const statementDelimiter = ";"

// SplitStatements lazily splits blob into statements on every ";". Each
// statement is trimmed of surrounding whitespace and empty fragments are
// skipped, so a yielded statement is never empty. Trailing text after the
// last ";" is yielded as a final statement when it is not empty.
//
// The split knows nothing about string literals or comments: a ";" inside a
// quoted value terminates the statement early.
func SplitStatements(blob string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for fragment := range strings.SplitSeq(blob, statementDelimiter) {
			stmt := strings.TrimSpace(fragment)
			if stmt == "" {
				continue
			}
			if !yield(stmt) {
				return
			}
		}
	}
}

// Complete reports whether an interactively accumulated buffer is ready to be
// executed, which is when it ends with a ";".
func Complete(buffer string) bool {
	return strings.HasSuffix(strings.TrimSpace(buffer), statementDelimiter)
}
