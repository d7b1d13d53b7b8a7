package cli

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"datasift/app/correlation"
	"datasift/app/table"
)

func newWriter(w io.Writer) prettytable.Writer {
	t := prettytable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(prettytable.StyleLight)
	return t
}

// renderTable prints at most limit rows of t; limit <= 0 prints all rows.
func renderTable(w io.Writer, t *table.Table, limit int) {
	if t.NumCols() == 0 {
		_, _ = fmt.Fprintln(w, "(no columns)")
		return
	}
	rows := t.NumRows()
	if limit > 0 && limit < rows {
		rows = limit
	}

	tw := newWriter(w)
	header := make(prettytable.Row, t.NumCols())
	for i, name := range t.Names() {
		header[i] = name
	}
	tw.AppendHeader(header)

	for i := 0; i < rows; i++ {
		row := make(prettytable.Row, t.NumCols())
		for j, c := range t.Columns() {
			row[j] = c.Values[i].Format(c.Kind)
		}
		tw.AppendRow(row)
	}
	tw.Render()

	if rows < t.NumRows() {
		_, _ = fmt.Fprintf(w, "(%d of %d rows)\n", rows, t.NumRows())
		return
	}
	_, _ = fmt.Fprintf(w, "(%d rows)\n", t.NumRows())
}

// renderColumns prints name, dtype and missing count per column
func renderColumns(w io.Writer, names []string, dtypes map[string]string, missing map[string]int) {
	tw := newWriter(w)
	tw.AppendHeader(prettytable.Row{"column", "dtype", "missing"})
	for _, name := range names {
		tw.AppendRow(prettytable.Row{name, dtypes[name], missing[name]})
	}
	tw.Render()
}

func renderMatrix(w io.Writer, m *correlation.Matrix) {
	if m.Size() == 0 {
		_, _ = fmt.Fprintln(w, "(no numeric columns)")
		return
	}
	names := m.Names()
	tw := newWriter(w)
	header := prettytable.Row{""}
	for _, n := range names {
		header = append(header, n)
	}
	tw.AppendHeader(header)
	for i, n := range names {
		row := prettytable.Row{n}
		for j := range names {
			row = append(row, formatCoefficient(m.At(i, j)))
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func formatCoefficient(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// sortedKeys returns the keys of m in order
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
