// Package fileloader identifies, hashes, parses and caches tabular input
// files. Delimited text, spreadsheets and JSON record files are read into
// table.Table values; the Loader ties identification, validation, caching
// and dispatch together.
package fileloader

import (
	"strings"
)

// Format is the content-derived format of a data file
type Format int

const (
	FormatUnknown Format = iota
	FormatDelimited
	FormatSpreadsheet
	FormatRecord
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatRecord:
		return "record"
	default:
		return "unknown"
	}
}

// FileHandle describes an identified file. Hash is filled in by the Loader
// on first use.
type FileHandle struct {
	Path        string
	Format      Format
	Compression CompressionType
	MIME        string
	Delimiter   rune
	Hash        string
}

// DefaultNAValues are the cell texts read as missing
var DefaultNAValues = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "#N/A", "-NaN", "<NA>",
}

// DefaultJSONPath selects the document root
const DefaultJSONPath = "$"

// DefaultChunkSize is the row count of a chunk when none is given
const DefaultChunkSize = 10000

// Options controls how files are parsed
type Options struct {
	// NoHeaderRow treats the first row as data and generates Unnamed_ headers.
	NoHeaderRow bool
	// JSONPath selects the record array inside a JSON document.
	JSONPath string
	// NAValues lists cell texts read as missing. Nil means DefaultNAValues;
	// an empty non-nil slice disables NA detection entirely.
	NAValues []string
}

// DefaultOptions returns the default parsing options
func DefaultOptions() Options {
	return Options{JSONPath: DefaultJSONPath}
}

// naMatcher reports whether a cell is one of the NA tokens. Surrounding
// whitespace is ignored so padded blanks count as missing too.
func (o Options) naMatcher() func(string) bool {
	values := o.NAValues
	if values == nil {
		values = DefaultNAValues
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(s string) bool {
		if len(set) == 0 {
			return false
		}
		_, ok := set[strings.TrimSpace(s)]
		return ok
	}
}

func (o Options) jsonPath() string {
	if strings.TrimSpace(o.JSONPath) == "" {
		return DefaultJSONPath
	}
	return o.JSONPath
}
