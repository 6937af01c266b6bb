package dataset

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// LoadExcel reads one sheet of an Excel workbook.
func LoadExcel(r io.Reader, opts Options) (*Table, error) {
	if opts.MaxSize > 0 {
		data, err := readLimited(r, opts.MaxSize)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer f.Close()

	return readSheet(f, opts)
}

// LoadExcelFile reads one sheet of the workbook at path.
func LoadExcelFile(path string, opts Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer f.Close()

	return readSheet(f, opts)
}

func readSheet(f *excelize.File, opts Options) (*Table, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("open excel: workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return NewTable(rows, opts.FirstRowHeader), nil
}
