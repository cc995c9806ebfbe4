package output

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/chris-regnier/licverify/internal/table"
	"github.com/chris-regnier/licverify/internal/verify"
)

// ResultsSheet is the name of the only sheet in a results workbook.
const ResultsSheet = "Sheet1"

// WorkbookFormatter renders verdicts as an .xlsx workbook.
type WorkbookFormatter struct{}

func (f *WorkbookFormatter) Format(verdicts []verify.Verdict) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, verdicts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Columns returns the union of verdict field names in order of first
// appearance.
func Columns(verdicts []verify.Verdict) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, v := range verdicts {
		for _, f := range v.Fields() {
			if !seen[f.Key] {
				seen[f.Key] = true
				cols = append(cols, f.Key)
			}
		}
	}
	return cols
}

// WriteWorkbook writes one header row and one row per verdict to w. Rows
// carry different field sets, so a cell is left empty when its verdict has
// no value for that column.
func WriteWorkbook(w io.Writer, verdicts []verify.Verdict) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet != ResultsSheet {
		if err := f.SetSheetName(sheet, ResultsSheet); err != nil {
			return fmt.Errorf("naming results sheet: %w", err)
		}
	}

	cols := Columns(verdicts)
	colIdx := make(map[string]int, len(cols))
	for i, c := range cols {
		colIdx[c] = i
		if err := setCell(f, i, 0, table.Text(c)); err != nil {
			return err
		}
	}

	for r, v := range verdicts {
		for _, field := range v.Fields() {
			if err := setCell(f, colIdx[field.Key], r+1, field.Value); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing results workbook: %w", err)
	}
	return nil
}

// setCell writes val at zero-based (col, row). Blank values leave the cell empty.
func setCell(f *excelize.File, col, row int, val table.Value) error {
	if val.IsBlank() {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(ResultsSheet, cell, val.Interface()); err != nil {
		return fmt.Errorf("setting %s: %w", cell, err)
	}
	return nil
}
