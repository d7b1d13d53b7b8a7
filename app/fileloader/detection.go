package fileloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// mimeFormats maps content signatures to formats. Checked in order; the
// first MIME the sniffed type "is" (including aliases) wins.
var mimeFormats = []struct {
	mime      string
	format    Format
	delimiter rune
}{
	{"text/csv", FormatDelimited, ','},
	{"text/tab-separated-values", FormatDelimited, '\t'},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatSpreadsheet, 0},
	{"application/vnd.ms-excel", FormatSpreadsheet, 0},
	{"application/json", FormatRecord, 0},
	{"application/x-ndjson", FormatRecord, 0},
}

// extensionFallbacks resolve content whose signature is ambiguous, keyed by
// the generic MIME and then by the extension without compression suffix.
var extensionFallbacks = map[string]map[string]struct {
	format    Format
	delimiter rune
}{
	"text/plain": {
		".csv":    {FormatDelimited, ','},
		".tsv":    {FormatDelimited, '\t'},
		".json":   {FormatRecord, 0},
		".jsonl":  {FormatRecord, 0},
		".ndjson": {FormatRecord, 0},
	},
	"application/zip": {
		".xlsx": {FormatSpreadsheet, 0},
	},
}

// checkAccess fails with ErrNotFound or ErrNotReadable before any parsing.
func checkAccess(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: %s: %v", ErrNotReadable, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotReadable, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotReadable, path, err)
	}
	return f.Close()
}

// Identify classifies a file by its content. Compressed files are
// classified on their decompressed bytes. The extension is consulted only
// when the content signature is generic plain text or a bare zip archive.
func Identify(path string) (FileHandle, error) {
	if err := checkAccess(path); err != nil {
		return FileHandle{}, err
	}

	compression, err := DetectCompression(path)
	if err != nil {
		return FileHandle{}, fmt.Errorf("%w: %s: %v", ErrNotReadable, path, err)
	}

	r, err := OpenDecompressed(path, compression)
	if err != nil {
		return FileHandle{}, fmt.Errorf("%w: %s: %v", ErrNotReadable, path, err)
	}
	defer r.Close()

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return FileHandle{}, fmt.Errorf("failed to sniff %s: %w", path, err)
	}

	handle := FileHandle{
		Path:        path,
		Compression: compression,
		MIME:        mt.String(),
	}
	handle.Format, handle.Delimiter = classify(mt, path)
	if handle.Format == FormatUnknown {
		return handle, fmt.Errorf("%w: %s (detected %s)", ErrUnsupportedFormat, path, mt.String())
	}
	return handle, nil
}

func classify(mt *mimetype.MIME, path string) (Format, rune) {
	for _, m := range mimeFormats {
		if mt.Is(m.mime) {
			return m.format, m.delimiter
		}
	}

	ext := strings.ToLower(filepath.Ext(stripCompressionExtension(path)))
	for generic, byExt := range extensionFallbacks {
		if !mt.Is(generic) {
			continue
		}
		if fb, ok := byExt[ext]; ok {
			return fb.format, fb.delimiter
		}
	}
	return FormatUnknown, 0
}
