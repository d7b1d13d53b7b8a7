package fileloader

import (
	"sort"

	"datasift/app/table"
)

// Schema maps an expected column name to its expected dtype name
// ("object", "int64", "float64", "datetime64[ns]", "timedelta64[ns]").
type Schema map[string]string

// ValidateSchema checks that every schema column exists with the expected
// dtype. Columns are checked in sorted order so the reported column is
// deterministic; extra table columns are allowed.
func ValidateSchema(t *table.Table, schema Schema) error {
	if len(schema) == 0 {
		return nil
	}
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		expected := schema[name]
		col, ok := t.Column(name)
		if !ok {
			return &SchemaError{Column: name, Expected: expected, Missing: true}
		}
		if actual := col.Kind.DType(); actual != expected {
			return &SchemaError{Column: name, Expected: expected, Actual: actual}
		}
	}
	return nil
}
