package fileloader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the path does not exist
	ErrNotFound = errors.New("file not found")
	// ErrNotReadable is returned when the path exists but cannot be read
	ErrNotReadable = errors.New("file not readable")
	// ErrUnsupportedFormat is returned when content matches no known format
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// LoadError wraps a format-specific parse failure
type LoadError struct {
	Path   string
	Format Format
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s file %s: %v", e.Format, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SchemaError reports a column that is missing or has an unexpected dtype
type SchemaError struct {
	Path     string
	Column   string
	Expected string
	Actual   string
	Missing  bool
}

func (e *SchemaError) Error() string {
	where := ""
	if e.Path != "" {
		where = " in " + e.Path
	}
	if e.Missing {
		return fmt.Sprintf("schema mismatch%s: missing column %q (expected %s)", where, e.Column, e.Expected)
	}
	return fmt.Sprintf("schema mismatch%s: column %q expected %s, found %s", where, e.Column, e.Expected, e.Actual)
}

// BatchError names the file that aborted a batch
type BatchError struct {
	Path string
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch aborted at %s: %v", e.Path, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func newLoadError(path string, format Format, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return &LoadError{Path: path, Format: format, Err: err}
}
