package fileloader

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/ohler55/ojg/oj"

	"datasift/app/table"
)

// readJSONFile reads a whole (possibly compressed) JSON file and parses it.
// The key order of the document is returned alongside the parsed value.
func readJSONFile(handle FileHandle) (any, KeyOrder, error) {
	rc, err := OpenDecompressed(handle.Path, handle.Compression)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := parseJSONData(data)
	if err != nil {
		return nil, nil, err
	}
	return parsed, documentKeyOrder(data), nil
}

// KeyOrder maps each object key to the position of its first appearance
// in the document
type KeyOrder map[string]int

// sort orders keys by first appearance. Keys the document never showed
// come last, by name.
func (o KeyOrder) sort(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		pi, oki := o[keys[i]]
		pj, okj := o[keys[j]]
		switch {
		case oki && okj:
			return pi < pj
		case oki != okj:
			return oki
		}
		return keys[i] < keys[j]
	})
}

// keyRecorder collects object keys in document order. Parsed objects are
// Go maps, so this is the only record of the order the file used.
type keyRecorder struct {
	oj.ZeroHandler
	order KeyOrder
}

func (k *keyRecorder) Key(key string) {
	if _, ok := k.order[key]; !ok {
		k.order[key] = len(k.order)
	}
}

func documentKeyOrder(data []byte) KeyOrder {
	k := &keyRecorder{order: make(KeyOrder)}
	// the data already parsed, so an error here only cuts the order short
	_ = oj.Tokenize(data, k)
	return k.order
}

// parseJSONData parses JSON data from bytes.
// It supports both standard JSON and JSON streaming format (several values
// separated by whitespace, which covers newline-delimited JSON).
func parseJSONData(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	jsonData, err := oj.Parse(data)
	if err == nil {
		return jsonData, nil
	}

	objects, streamErr := parseJSONStream(data)
	if streamErr != nil || len(objects) == 0 {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return objects, nil
}

// parseJSONStream extracts multiple JSON values from a byte stream.
// It handles objects and arrays that may span multiple lines or appear multiple times per line.
func parseJSONStream(data []byte) ([]any, error) {
	var objects []any
	str := string(data)
	pos := 0

	for pos < len(str) {
		for pos < len(str) && (str[pos] == ' ' || str[pos] == '\t' || str[pos] == '\n' || str[pos] == '\r') {
			pos++
		}
		if pos >= len(str) {
			break
		}

		if str[pos] != '{' && str[pos] != '[' {
			return nil, fmt.Errorf("expected { or [ at position %d", pos)
		}

		end, err := findJSONValueEnd(str, pos)
		if err != nil {
			return nil, err
		}

		obj, err := oj.ParseString(str[pos:end])
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON at position %d: %w", pos, err)
		}
		objects = append(objects, obj)
		pos = end
	}

	return objects, nil
}

// findJSONValueEnd finds the end position of a JSON value (object or array) starting at pos.
// It tracks nesting and skips over string contents including escapes.
func findJSONValueEnd(str string, pos int) (int, error) {
	var stack []byte
	inString := false
	escaped := false

	for i := pos; i < len(str); i++ {
		ch := str[i]

		if escaped {
			escaped = false
			continue
		}
		if inString {
			if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, ch)
		case '}', ']':
			open := byte('{')
			if ch == ']' {
				open = '['
			}
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return 0, fmt.Errorf("unmatched %c at position %d", ch, i)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, nil
			}
		}
	}

	return 0, fmt.Errorf("unclosed JSON value")
}

// parseRecords loads a JSON document, selects the record set with the
// configured JSONPath and converts it to a table.
func parseRecords(ctx context.Context, handle FileHandle, opts Options) (*table.Table, error) {
	data, order, err := readJSONFile(handle)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header, columns, err := ApplyJSONPath(data, opts.jsonPath(), order)
	if err != nil {
		return nil, err
	}

	cols := make([]table.Column, len(header))
	for i, name := range header {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cols[i] = typedColumn(name, columns[i])
	}
	return table.New(cols...)
}

// typedColumn converts decoded JSON values to a column. Columns whose
// non-null values are all integers become integer columns; all numbers
// become float columns; anything else is rendered as strings. null and
// absent keys are missing.
func typedColumn(name string, raw []any) table.Column {
	allInt, allNum, seen := true, true, false
	for _, v := range raw {
		if v == nil {
			continue
		}
		seen = true
		switch v.(type) {
		case int64:
		case float64:
			allInt = false
		default:
			allInt, allNum = false, false
		}
	}

	col := table.Column{Name: name, Kind: table.KindString, Values: make([]table.Value, len(raw))}
	switch {
	case seen && allInt:
		col.Kind = table.KindInteger
	case seen && allNum:
		col.Kind = table.KindFloat
	}

	for i, v := range raw {
		if v == nil {
			col.Values[i] = table.Missing()
			continue
		}
		switch col.Kind {
		case table.KindInteger:
			col.Values[i] = table.Int(v.(int64))
		case table.KindFloat:
			switch n := v.(type) {
			case int64:
				col.Values[i] = table.Float(float64(n))
			case float64:
				col.Values[i] = table.Float(n)
			}
		default:
			col.Values[i] = table.String(valueToString(v))
		}
	}
	return col
}
