// Package tabletest builds small .xlsx fixtures for tests.
package tabletest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Workbook returns the bytes of a single-sheet workbook holding rows. The
// first row is the header. nil cells are left empty.
func Workbook(t testing.TB, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set %s: %v", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes Workbook(rows) to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, rows [][]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Workbook(t, rows), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadRows returns every row of the first sheet of a workbook, formatted
// the way a spreadsheet displays it.
func ReadRows(t testing.TB, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	return rows
}

// Verification is a small table in the shape of the production workbook.
func Verification() [][]any {
	return [][]any{
		{"Provider Name", "TX Licensed?", "TX Summary", "CA Licensed?", "CA Summary"},
		{"Acme Staffing", true, "Active through 2026", false, "Application pending"},
		{"Beta Health", false, "Expired 2023", nil, nil},
		{"ACME STAFFING", false, "Duplicate row", true, "Duplicate row"},
		{"Gamma Care", "Yes", nil, 1, "Numeric flag"},
	}
}
