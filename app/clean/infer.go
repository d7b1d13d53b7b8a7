package clean

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"datasift/app/table"
	"datasift/app/timestamps"
)

// numericRegex matches integers, decimals and scientific notation
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Result is the outcome of inferring one column: Typed or Untyped.
type Result interface {
	result() table.Column
}

// Typed is a column that holds a non-string kind
type Typed struct {
	Kind   table.Kind
	Column table.Column
}

// Untyped is a column that stays string-typed, with values trimmed
type Untyped struct {
	Column table.Column
}

func (r Typed) result() table.Column   { return r.Column }
func (r Untyped) result() table.Column { return r.Column }

// ColumnOf returns the column carried by r
func ColumnOf(r Result) table.Column {
	return r.result()
}

// parseFunc converts one trimmed, non-blank cell
type parseFunc func(s string) table.Value

// converter inspects the distinct values of a column and, when every one of
// them is accepted, returns the target kind and a cell parser.
type converter struct {
	name   string
	accept func(distinct []string, loc *time.Location) (table.Kind, parseFunc, bool)
}

// converters are tried in order; the first to accept a column wins.
var converters = []converter{
	{name: "datetime", accept: acceptDateTime},
	{name: "numeric", accept: acceptNumeric},
	{name: "duration", accept: acceptDuration},
}

func acceptDateTime(distinct []string, loc *time.Location) (table.Kind, parseFunc, bool) {
	layout, ok := timestamps.LayoutFor(distinct, loc)
	if !ok {
		return 0, nil, false
	}
	return table.KindDateTime, func(s string) table.Value {
		t, ok := layout.Parse(s, loc)
		if !ok {
			return table.Missing()
		}
		return table.Time(t)
	}, true
}

func acceptNumeric(distinct []string, _ *time.Location) (table.Kind, parseFunc, bool) {
	integers := true
	for _, s := range distinct {
		if !numericRegex.MatchString(s) {
			return 0, nil, false
		}
		if integers {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				integers = false
			}
		}
	}
	if integers {
		return table.KindInteger, func(s string) table.Value {
			i, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return table.Missing()
			}
			return table.Int(i)
		}, true
	}
	return table.KindFloat, func(s string) table.Value {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return table.Missing()
		}
		return table.Float(f)
	}, true
}

func acceptDuration(distinct []string, _ *time.Location) (table.Kind, parseFunc, bool) {
	for _, s := range distinct {
		if _, ok := timestamps.ParseDuration(s); !ok {
			return 0, nil, false
		}
	}
	return table.KindDuration, func(s string) table.Value {
		d, ok := timestamps.ParseDuration(s)
		if !ok {
			return table.Missing()
		}
		return table.Duration(d)
	}, true
}

// distinctValues returns the distinct trimmed, non-blank present values in
// first-seen order.
func distinctValues(col table.Column) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range col.Values {
		if !v.IsPresent() {
			continue
		}
		s := strings.TrimSpace(v.Str())
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Infer promotes a string column to the first kind whose converter accepts
// every distinct non-blank value; promotion is all or nothing. Zone-less
// date-times are read in loc (UTC when nil). Non-string columns and columns
// without a non-blank value are returned unchanged.
func Infer(col table.Column, loc *time.Location) Result {
	if col.Kind != table.KindString {
		return Typed{Kind: col.Kind, Column: col}
	}
	distinct := distinctValues(col)
	if len(distinct) == 0 {
		return Untyped{Column: col}
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, c := range converters {
		kind, parse, ok := c.accept(distinct, loc)
		if !ok {
			continue
		}
		out := table.Column{Name: col.Name, Kind: kind, Values: make([]table.Value, len(col.Values))}
		for i, v := range col.Values {
			s := strings.TrimSpace(v.Str())
			if !v.IsPresent() || s == "" {
				out.Values[i] = table.Missing()
				continue
			}
			out.Values[i] = parse(s)
		}
		return Typed{Kind: kind, Column: out}
	}

	out := table.Column{Name: col.Name, Kind: table.KindString, Values: make([]table.Value, len(col.Values))}
	for i, v := range col.Values {
		if v.IsPresent() {
			out.Values[i] = table.String(strings.TrimSpace(v.Str()))
			continue
		}
		out.Values[i] = v
	}
	return Untyped{Column: out}
}

// PromoteKinds applies Infer to every column of t but keeps the parsed text
// of columns that stay strings. It is what loaders use: kinds are settled,
// no value is trimmed, renamed or filled. t is returned when nothing changes.
func PromoteKinds(t *table.Table, loc *time.Location) *table.Table {
	cols := make([]table.Column, t.NumCols())
	changed := false
	for i, col := range t.Columns() {
		cols[i] = col
		if typed, ok := Infer(col, loc).(Typed); ok && col.Kind == table.KindString {
			cols[i] = typed.Column
			changed = true
		}
	}
	if !changed {
		return t
	}
	// inference never changes column length
	out, _ := t.WithColumns(cols)
	return out
}
