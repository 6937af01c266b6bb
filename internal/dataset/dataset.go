// Package dataset provides the tabular data sources the import engine reads:
// parsed CSV files and Excel workbooks, addressed by (row, column).
//
// A cell is null when it is empty or outside the parsed grid. Null and the
// empty string are different values to the engine: null triggers a field's
// null policy, the empty string does not.
package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrFileTooLarge is returned when input exceeds Options.MaxSize.
var ErrFileTooLarge = errors.New("file too large")

// Source is a read-only grid of string cells.
type Source interface {
	// Rows returns the number of data rows (the header row excluded).
	Rows() int
	// Columns returns the widest row's column count.
	Columns() int
	// Value returns the cell at (row, col), both 0-based; ok is false for null.
	Value(row, col int) (value string, ok bool)
	HasHeaderRow() bool
	// Header returns the header cell for col, or "" without a header row.
	Header(col int) string
}

// Options control parsing.
type Options struct {
	Delimiter      rune   // CSV field separator; ',' when zero
	FirstRowHeader bool   // treat the first row as column headers
	Sheet          string // Excel sheet; first sheet when empty
	MaxSize        int64  // reject larger inputs; unlimited when <= 0
}

// Table is an in-memory Source.
type Table struct {
	header  []string
	records [][]string
	columns int
}

// NewTable builds a Table from raw records.
func NewTable(records [][]string, firstRowHeader bool) *Table {
	t := &Table{records: records}
	if firstRowHeader && len(records) > 0 {
		t.header = records[0]
		t.records = records[1:]
	}
	for _, r := range records {
		if len(r) > t.columns {
			t.columns = len(r)
		}
	}
	return t
}

func (t *Table) Rows() int { return len(t.records) }

func (t *Table) Columns() int { return t.columns }

func (t *Table) HasHeaderRow() bool { return t.header != nil }

func (t *Table) Value(row, col int) (string, bool) {
	if row < 0 || row >= len(t.records) {
		return "", false
	}
	r := t.records[row]
	if col < 0 || col >= len(r) || r[col] == "" {
		return "", false
	}
	return r[col], true
}

func (t *Table) Header(col int) string {
	if col < 0 || col >= len(t.header) {
		return ""
	}
	return t.header[col]
}

// ParseDelimiter converts a user-supplied delimiter to a rune. Empty means
// comma; "\t" (escaped) and "tab" mean a tab character.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q is not allowed", s)
	}
	return r, nil
}

// LoadFile loads path as an Excel workbook (.xlsx, .xlsm) or as CSV.
func LoadFile(path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadExcelFile(path, opts)
	default:
		return LoadCSVFile(path, opts)
	}
}

// IsExcel reports whether name looks like an Excel workbook.
func IsExcel(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".xlsm"
}
