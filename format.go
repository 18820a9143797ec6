package pgsh

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxCellWidth is the most runes that a data cell, or a column, may occupy in
// a rendered table.
const MaxCellWidth = 40

const (
	msgNoResultSet = "(no result set)"
	msgZeroRows    = "(0 rows)"
	timeLayout     = "2006-01-02 15:04:05.999999-07:00"
)

// PrintResult renders rs to w as a fixed-width text table.
//
// A nil rs, or one without Columns, means the statement had no tabular output.
// Each column is as wide as its longest header or data cell, capped at
// MaxCellWidth. Every row is considered when computing widths. Data cells
// longer than MaxCellWidth are truncated; headers are not.
func PrintResult(w io.Writer, rs *ResultSet) (err error) {
	if rs == nil || rs.Columns == nil {
		_, err = fmt.Fprintln(w, msgNoResultSet)
		return
	}
	if len(rs.Rows) == 0 {
		_, err = fmt.Fprintln(w, msgZeroRows)
		return
	}

	cells := make([][]string, len(rs.Rows))
	for i, row := range rs.Rows {
		cells[i] = make([]string, len(rs.Columns))
		for j := range rs.Columns {
			var val any
			if j < len(row) {
				val = row[j]
			}
			cells[i][j] = Stringify(val)
		}
	}

	widths := columnWidths(rs.Columns, cells)

	var b strings.Builder
	writeRow(&b, widths, rs.Columns)

	dashes := make([]string, len(widths))
	for i, width := range widths {
		dashes[i] = strings.Repeat("-", width)
	}
	b.WriteString(strings.Join(dashes, "-+-"))
	b.WriteByte('\n')

	for _, row := range cells {
		truncated := make([]string, len(row))
		for j, cell := range row {
			truncated[j] = truncate(cell, MaxCellWidth)
		}
		writeRow(&b, widths, truncated)
	}
	fmt.Fprintf(&b, "(%d row(s))\n", len(rs.Rows))

	_, err = io.WriteString(w, b.String())
	return
}

func columnWidths(columns []string, cells [][]string) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range cells {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], MaxCellWidth)
	}
	return widths
}

// writeRow left-justifies each value to its column width. The fmt package
// measures width in runes, which is consistent with columnWidths.
func writeRow(b *strings.Builder, widths []int, vals []string) {
	for i, val := range vals {
		if i > 0 {
			b.WriteString(" | ")
		}
		fmt.Fprintf(b, "%-*s", widths[i], val)
	}
	b.WriteByte('\n')
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Stringify is the text rendering of a value fetched from the database.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(timeLayout)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
