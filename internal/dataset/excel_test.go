package dataset

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error = %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	return f
}

func TestLoadExcelFile(t *testing.T) {
	f := writeWorkbook(t, [][]any{
		{"id", "name"},
		{1, "Widget"},
		{2, nil},
	})
	path := filepath.Join(t.TempDir(), "items.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}

	tbl, err := LoadFile(path, Options{FirstRowHeader: true})
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if tbl.Rows() != 2 {
		t.Errorf("Rows() = %d, want 2", tbl.Rows())
	}
	if got := tbl.Header(1); got != "name" {
		t.Errorf("Header(1) = %q, want %q", got, "name")
	}
	if got, ok := tbl.Value(0, 1); !ok || got != "Widget" {
		t.Errorf("Value(0, 1) = (%q, %v), want (Widget, true)", got, ok)
	}
	if got, ok := tbl.Value(1, 0); !ok || got != "2" {
		t.Errorf("Value(1, 0) = (%q, %v), want (2, true)", got, ok)
	}
	if _, ok := tbl.Value(1, 1); ok {
		t.Error("Value(1, 1) should be null")
	}
}

func TestLoadExcel_Reader(t *testing.T) {
	f := writeWorkbook(t, [][]any{{"a", "b"}})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	tbl, err := LoadExcel(&buf, Options{MaxSize: 10 << 20})
	if err != nil {
		t.Fatalf("LoadExcel() error = %v", err)
	}
	if tbl.Rows() != 1 || tbl.Columns() != 2 {
		t.Errorf("got %d rows x %d columns, want 1 x 2", tbl.Rows(), tbl.Columns())
	}

	if _, err := LoadExcel(bytes.NewReader([]byte("not a workbook")), Options{}); err == nil {
		t.Error("LoadExcel() on garbage should fail")
	}
}

func TestLoadExcel_UnknownSheet(t *testing.T) {
	f := writeWorkbook(t, [][]any{{"a"}})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if _, err := LoadExcel(&buf, Options{Sheet: "Missing"}); err == nil {
		t.Error("LoadExcel() with unknown sheet should fail")
	}
}

func TestIsExcel(t *testing.T) {
	for name, want := range map[string]bool{
		"a.xlsx": true,
		"B.XLSM": true,
		"c.csv":  false,
		"d":      false,
	} {
		if got := IsExcel(name); got != want {
			t.Errorf("IsExcel(%q) = %v, want %v", name, got, want)
		}
	}
}
