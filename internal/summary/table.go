package summary

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/duckmesh/nlquery/internal/query"
)

const DefaultMaxRows = 50

// RenderTable formats result as a text table. Rows past maxRows are
// elided and counted in a trailing line.
func RenderTable(result query.Result, maxRows int) string {
	var b strings.Builder
	WriteTable(&b, result, maxRows)
	return strings.TrimRight(b.String(), "\n")
}

// WriteTable writes the same table RenderTable returns to w.
func WriteTable(w io.Writer, result query.Result, maxRows int) {
	if len(result.Columns) == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(result.Columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	shown := result.Rows
	if len(shown) > maxRows {
		shown = shown[:maxRows]
	}
	for _, row := range shown {
		cells := make([]string, len(result.Columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = FormatValue(row[i])
			}
		}
		table.Append(cells)
	}
	table.Render()

	switch {
	case len(result.Rows) == 0:
		fmt.Fprintln(w, "(0 rows)")
	case len(result.Rows) > maxRows:
		fmt.Fprintf(w, "... and %d more rows\n", len(result.Rows)-maxRows)
	}
}

// FormatValue renders one cell. NULL is shown as NULL and dates without a
// time component are shown as YYYY-MM-DD.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.RFC3339)
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
