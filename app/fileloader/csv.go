package fileloader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"datasift/app/table"
)

// ctxCheckInterval is how many records are read between context checks
const ctxCheckInterval = 1024

var errNoColumns = errors.New("no columns to parse from file")

// newCSVReader returns a csv.Reader over r that strips a UTF-8 BOM and
// transcodes UTF-16 input marked with a BOM.
func newCSVReader(r io.Reader, delimiter rune) *csv.Reader {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	// Allow variable number of fields per record; short rows are padded
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// csvSource is an open delimited file positioned after its header row
type csvSource struct {
	rc      io.ReadCloser
	reader  *csv.Reader
	builder *columnBuilder
	line    int
	// first holds the first data record when the file has no header row
	first []string
}

func openCSV(handle FileHandle, opts Options) (*csvSource, error) {
	rc, err := OpenDecompressed(handle.Path, handle.Compression)
	if err != nil {
		return nil, err
	}
	reader := newCSVReader(rc, handle.Delimiter)

	firstRow, err := reader.Read()
	if err != nil {
		rc.Close()
		if err == io.EOF {
			return nil, errNoColumns
		}
		return nil, err
	}

	src := &csvSource{rc: rc, reader: reader, line: 1}
	var header []string
	if opts.NoHeaderRow {
		header = syntheticHeaders(len(firstRow))
		src.first = firstRow
	} else {
		header = NormalizeHeaders(firstRow)
	}
	src.builder = newColumnBuilder(header, opts.naMatcher())
	return src, nil
}

// fill reads up to limit records into the builder (limit <= 0 reads all).
// It returns io.EOF once the input is exhausted and no rows were added.
func (s *csvSource) fill(ctx context.Context, limit int) error {
	added := 0
	if s.first != nil {
		if err := s.builder.add(s.first, s.line); err != nil {
			return err
		}
		s.first = nil
		added++
	}
	for limit <= 0 || added < limit {
		if added%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		record, err := s.reader.Read()
		if err == io.EOF {
			if added == 0 {
				return io.EOF
			}
			return nil
		}
		if err != nil {
			return err
		}
		s.line++
		if err := s.builder.add(record, s.line); err != nil {
			return err
		}
		added++
	}
	return nil
}

func (s *csvSource) Close() error {
	return s.rc.Close()
}

// parseDelimited loads a delimited file eagerly. Columns come out string
// typed, the Loader promotes them; NA tokens become the missing marker.
func parseDelimited(ctx context.Context, handle FileHandle, opts Options) (*table.Table, error) {
	src, err := openCSV(handle, opts)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if err := src.fill(ctx, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return src.builder.build()
}

// ChunkReader yields a delimited file as a finite sequence of sub-tables.
// It cannot be restarted and does not touch the cache.
type ChunkReader struct {
	handle FileHandle
	src    *csvSource
	size   int
	chunks int
	done   bool
	// promote settles the column kinds of each chunk on its own
	promote func(*table.Table) *table.Table
}

func newChunkReader(handle FileHandle, opts Options, size int) (*ChunkReader, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	src, err := openCSV(handle, opts)
	if err != nil {
		return nil, err
	}
	return &ChunkReader{handle: handle, src: src, size: size}, nil
}

// Header returns the column names shared by every chunk
func (c *ChunkReader) Header() []string {
	out := make([]string, len(c.src.builder.header))
	copy(out, c.src.builder.header)
	return out
}

// Next returns the next chunk of at most the configured row count, or
// io.EOF when the file is exhausted.
func (c *ChunkReader) Next(ctx context.Context) (*table.Table, error) {
	if c.done {
		return nil, io.EOF
	}
	err := c.src.fill(ctx, c.size)
	if err == io.EOF {
		c.done = true
		return nil, io.EOF
	}
	if err != nil {
		c.done = true
		return nil, newLoadError(c.handle.Path, FormatDelimited, fmt.Errorf("chunk %d: %w", c.chunks, err))
	}
	c.chunks++
	t, err := c.src.builder.build()
	if err != nil || c.promote == nil {
		return t, err
	}
	return c.promote(t), nil
}

// Chunks returns how many chunks have been produced so far
func (c *ChunkReader) Chunks() int { return c.chunks }

// Close releases the underlying file
func (c *ChunkReader) Close() error {
	c.done = true
	return c.src.Close()
}
