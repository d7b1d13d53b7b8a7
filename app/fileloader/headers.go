package fileloader

import (
	"fmt"
	"strconv"
	"strings"

	"datasift/app/table"
)

// excelColumnName converts a 0-based index to Excel-style column name.
// Examples: 0 -> A, 1 -> B, 25 -> Z, 26 -> AA, 27 -> AB, 701 -> ZZ, 702 -> AAA
func excelColumnName(index int) string {
	result := ""
	index++

	for index > 0 {
		index--
		result = string(rune('A'+index%26)) + result
		index /= 26
	}

	return result
}

// NormalizeHeaders makes a header row usable as column names:
//
//   - empty or whitespace-only headers become Unnamed_A, Unnamed_B, ...
//   - repeated headers are mangled to name, name.1, name.2, ...
//
// Example:
//
//	Input:  ["name", "", "age", "age", "  "]
//	Output: ["name", "Unnamed_A", "age", "age.1", "Unnamed_B"]
func NormalizeHeaders(header []string) []string {
	normalized := make([]string, len(header))
	emptyCount := 0

	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			normalized[i] = "Unnamed_" + excelColumnName(emptyCount)
			emptyCount++
		} else {
			normalized[i] = h
		}
	}

	return mangleDuplicates(normalized)
}

// syntheticHeaders returns n generated names for files without a header row
func syntheticHeaders(n int) []string {
	return NormalizeHeaders(make([]string, n))
}

func mangleDuplicates(names []string) []string {
	seen := make(map[string]int, len(names))
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	out := make([]string, len(names))
	for i, n := range names {
		count, dup := seen[n]
		seen[n] = count + 1
		if !dup {
			out[i] = n
			continue
		}
		candidate := n + "." + strconv.Itoa(count)
		for taken[candidate] {
			count++
			candidate = n + "." + strconv.Itoa(count)
		}
		seen[n] = count + 1
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

// columnBuilder accumulates string cells row by row into columns
type columnBuilder struct {
	header []string
	values [][]table.Value
	isNA   func(string) bool
}

func newColumnBuilder(header []string, isNA func(string) bool) *columnBuilder {
	return &columnBuilder{
		header: header,
		values: make([][]table.Value, len(header)),
		isNA:   isNA,
	}
}

// add appends one record. Short records are padded with missing cells;
// records wider than the header are rejected.
func (b *columnBuilder) add(record []string, line int) error {
	if len(record) > len(b.header) {
		return fmt.Errorf("row %d has %d fields, header has %d", line, len(record), len(b.header))
	}
	for i := range b.header {
		v := table.Missing()
		if i < len(record) && !b.isNA(record[i]) {
			v = table.String(record[i])
		}
		b.values[i] = append(b.values[i], v)
	}
	return nil
}

func (b *columnBuilder) rows() int {
	if len(b.values) == 0 {
		return 0
	}
	return len(b.values[0])
}

// build returns the accumulated cells as a string-typed table and resets
// the builder for the next batch of rows.
func (b *columnBuilder) build() (*table.Table, error) {
	cols := make([]table.Column, len(b.header))
	for i, name := range b.header {
		values := b.values[i]
		if values == nil {
			values = []table.Value{}
		}
		cols[i] = table.Column{Name: name, Kind: table.KindString, Values: values}
		b.values[i] = nil
	}
	return table.New(cols...)
}
