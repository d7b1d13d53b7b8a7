// Package table holds the in-memory tabular representation shared by the
// loaders, the cleaning pipeline and the correlation code.
//
// A Table is an ordered list of named columns. Every column carries a Kind
// and a slice of Values of equal length; rows are aligned by position.
package table

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrRaggedColumns is returned when columns of a table differ in length.
var ErrRaggedColumns = errors.New("columns have unequal length")

// Column is a named, typed sequence of values
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// NewStringColumn builds a string column. Values for which missing(s)
// returns true become the missing marker; missing may be nil.
func NewStringColumn(name string, values []string, missing func(string) bool) Column {
	col := Column{Name: name, Kind: KindString, Values: make([]Value, len(values))}
	for i, s := range values {
		if missing != nil && missing(s) {
			col.Values[i] = Missing()
			continue
		}
		col.Values[i] = String(s)
	}
	return col
}

// Len returns the number of values in the column
func (c Column) Len() int { return len(c.Values) }

// MissingCount returns how many values are the missing marker
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	values := make([]Value, len(c.Values))
	copy(values, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Strings renders every value with Value.Format
func (c Column) Strings() []string {
	out := make([]string, len(c.Values))
	for i, v := range c.Values {
		out[i] = v.Format(c.Kind)
	}
	return out
}

// Table is an ordered collection of equal-length columns
type Table struct {
	columns []Column
	rows    int
}

// New builds a table from columns. All columns must have the same length.
func New(columns ...Column) (*Table, error) {
	t := &Table{columns: columns}
	if len(columns) > 0 {
		t.rows = columns[0].Len()
	}
	for _, c := range columns {
		if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d", ErrRaggedColumns, c.Name, c.Len(), t.rows)
		}
	}
	return t, nil
}

// MustNew is New for tests and literals; it panics on ragged input.
func MustNew(columns ...Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns
func (t *Table) NumCols() int { return len(t.columns) }

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []Column { return t.columns }

// ColumnAt returns the i-th column
func (t *Table) ColumnAt(i int) Column { return t.columns[i] }

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name. The first match wins.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Row returns the values of row i across all columns
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

// RowKey returns an encoding of row i such that two rows have the same key
// iff every value compares equal.
func (t *Table) RowKey(i int) string {
	buf := make([]byte, 0, 16*len(t.columns))
	for j, c := range t.columns {
		if j > 0 {
			buf = append(buf, 0x1f)
		}
		buf = c.Values[i].key(buf, c.Kind)
	}
	return string(buf)
}

// Take returns a new table holding the given rows in the given order
func (t *Table) Take(rows []int) *Table {
	cols := make([]Column, len(t.columns))
	for j, c := range t.columns {
		values := make([]Value, len(rows))
		for k, r := range rows {
			values[k] = c.Values[r]
		}
		cols[j] = Column{Name: c.Name, Kind: c.Kind, Values: values}
	}
	return &Table{columns: cols, rows: len(rows)}
}

// Head returns the first n rows (all rows when n exceeds the row count)
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.rows {
		n = t.rows
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.Take(rows)
}

// Drop returns a new table without the named columns
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	cols := make([]Column, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c.Name] {
			cols = append(cols, c)
		}
	}
	return &Table{columns: cols, rows: t.rows}
}

// WithColumns returns a table of the same row count with replaced columns.
func (t *Table) WithColumns(columns []Column) (*Table, error) {
	for _, c := range columns {
		if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d", ErrRaggedColumns, c.Name, c.Len(), t.rows)
		}
	}
	return &Table{columns: columns, rows: t.rows}, nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Clone()
	}
	return &Table{columns: cols, rows: t.rows}
}

// Equal reports whether both tables have the same columns, kinds and values
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for j, c := range t.columns {
		oc := o.columns[j]
		if c.Name != oc.Name || c.Kind != oc.Kind {
			return false
		}
		for i := range c.Values {
			if !c.Values[i].Equal(oc.Values[i], c.Kind) {
				return false
			}
		}
	}
	return true
}

// MissingCounts returns the number of missing markers per column
func (t *Table) MissingCounts() map[string]int {
	counts := make(map[string]int, len(t.columns))
	for _, c := range t.columns {
		counts[c.Name] += c.MissingCount()
	}
	return counts
}

// TotalMissing returns the number of missing markers in the whole table
func (t *Table) TotalMissing() int {
	total := 0
	for _, c := range t.columns {
		total += c.MissingCount()
	}
	return total
}

// DTypes returns the dtype name of each column
func (t *Table) DTypes() map[string]string {
	types := make(map[string]string, len(t.columns))
	for _, c := range t.columns {
		types[c.Name] = c.Kind.DType()
	}
	return types
}

// MemoryUsage estimates the bytes held by the table's data: 8 bytes per
// numeric, time or duration cell, string header plus bytes per string cell,
// and the column names.
func (t *Table) MemoryUsage() int64 {
	const stringHeader = int64(unsafe.Sizeof(""))
	var total int64
	for _, c := range t.columns {
		total += stringHeader + int64(len(c.Name))
		if c.Kind != KindString {
			total += 8 * int64(len(c.Values))
			continue
		}
		for _, v := range c.Values {
			total += stringHeader + int64(len(v.str))
		}
	}
	return total
}
