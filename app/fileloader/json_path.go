package fileloader

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// valueToString converts a value to a string representation.
// Maps and slices are JSON-stringified; everything else uses fmt.
func valueToString(val any) string {
	if val == nil {
		return ""
	}

	switch v := val.(type) {
	case map[string]any, []any:
		jsonBytes, err := oj.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(jsonBytes)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", val)
	}
}

// selectRecords applies the JSONPath expression and returns the selected
// value. A path matching several nodes (e.g. "$.items[*]") yields them as
// one array.
func selectRecords(data any, expression string) (any, error) {
	x, err := jp.ParseString(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression: %w", err)
	}

	results := x.Get(data)
	switch len(results) {
	case 0:
		return nil, fmt.Errorf("JSONPath expression %q returned no results", expression)
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// ApplyJSONPath selects the record set and returns it column-wise.
// Supported shapes of the selected value:
//   - array of objects: the union of keys becomes the header
//   - array of arrays: the first array is the header row
//   - object of arrays: each key is a column
//   - single object: one row
//
// Object keys are ordered by order, the key order of the source document.
// Absent keys and JSON null are returned as nil.
func ApplyJSONPath(data any, expression string, order KeyOrder) ([]string, [][]any, error) {
	if expression == "" {
		return nil, nil, fmt.Errorf("JSONPath expression is empty")
	}

	result, err := selectRecords(data, expression)
	if err != nil {
		return nil, nil, err
	}

	switch v := result.(type) {
	case []any:
		if len(v) == 0 {
			return nil, nil, fmt.Errorf("JSONPath expression returned empty array")
		}
		switch v[0].(type) {
		case map[string]any:
			return objectRows(v, order)
		case []any:
			return arrayRows(v)
		}
		return nil, nil, fmt.Errorf("JSONPath expression must return an array of objects or an array of arrays")
	case map[string]any:
		if header, columns, ok := objectOfArrays(v, order); ok {
			return header, columns, nil
		}
		return objectRows([]any{v}, order)
	}
	return nil, nil, fmt.Errorf("JSONPath expression must return an array or object, got %T", result)
}

func objectRows(arr []any, order KeyOrder) ([]string, [][]any, error) {
	headerSet := make(map[string]bool)
	var headers []string
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("mixed record types: expected object, got %T", item)
		}
		for key := range obj {
			if !headerSet[key] {
				headerSet[key] = true
				headers = append(headers, key)
			}
		}
	}
	order.sort(headers)

	columns := make([][]any, len(headers))
	for i := range columns {
		columns[i] = make([]any, len(arr))
	}
	for r, item := range arr {
		obj := item.(map[string]any)
		for c, key := range headers {
			columns[c][r] = obj[key]
		}
	}
	return NormalizeHeaders(headers), columns, nil
}

func arrayRows(arr []any) ([]string, [][]any, error) {
	first := arr[0].([]any)
	rawHeader := make([]string, len(first))
	for i, h := range first {
		rawHeader[i] = valueToString(h)
	}
	header := NormalizeHeaders(rawHeader)

	columns := make([][]any, len(header))
	for i := range columns {
		columns[i] = make([]any, 0, len(arr)-1)
	}
	for r, item := range arr[1:] {
		row, ok := item.([]any)
		if !ok {
			return nil, nil, fmt.Errorf("mixed record types: expected array, got %T", item)
		}
		if len(row) > len(header) {
			return nil, nil, fmt.Errorf("row %d has %d fields, header has %d", r+2, len(row), len(header))
		}
		for c := range header {
			var v any
			if c < len(row) {
				v = row[c]
			}
			columns[c] = append(columns[c], v)
		}
	}
	return header, columns, nil
}

// objectOfArrays handles column-oriented documents such as
// {"a": [1, 2], "b": ["x", "y"]}. All values must be arrays of equal length.
func objectOfArrays(obj map[string]any, order KeyOrder) ([]string, [][]any, bool) {
	if len(obj) == 0 {
		return nil, nil, false
	}
	keys := make([]string, 0, len(obj))
	length := -1
	for k, v := range obj {
		arr, ok := v.([]any)
		if !ok {
			return nil, nil, false
		}
		if length >= 0 && len(arr) != length {
			return nil, nil, false
		}
		length = len(arr)
		keys = append(keys, k)
	}
	order.sort(keys)

	columns := make([][]any, len(keys))
	for i, k := range keys {
		columns[i] = obj[k].([]any)
	}
	return NormalizeHeaders(keys), columns, true
}
