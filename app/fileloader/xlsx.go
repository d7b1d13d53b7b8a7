package fileloader

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"datasift/app/table"
)

func openWorkbook(handle FileHandle) (*excelize.File, error) {
	if handle.Compression == CompressionNone {
		return excelize.OpenFile(handle.Path)
	}
	rc, err := OpenDecompressed(handle.Path, handle.Compression)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return excelize.OpenReader(rc)
}

// readFirstSheet returns the formatted cell text of the workbook's first sheet
func readFirstSheet(handle FileHandle) ([][]string, error) {
	f, err := openWorkbook(handle)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}
	return f.GetRows(sheets[0])
}

// parseSpreadsheet loads the first sheet. Excelize trims trailing empty
// cells per row, so the header is widened to the widest row and the extra
// columns get Unnamed_ names.
func parseSpreadsheet(ctx context.Context, handle FileHandle, opts Options) (*table.Table, error) {
	rows, err := readFirstSheet(handle)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errNoColumns
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return nil, errNoColumns
	}

	var header []string
	data := rows
	firstLine := 1
	if opts.NoHeaderRow {
		header = syntheticHeaders(width)
	} else {
		raw := make([]string, width)
		copy(raw, rows[0])
		header = NormalizeHeaders(raw)
		data = rows[1:]
		firstLine = 2
	}

	builder := newColumnBuilder(header, opts.naMatcher())
	for i, row := range data {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := builder.add(row, firstLine+i); err != nil {
			return nil, err
		}
	}
	return builder.build()
}
