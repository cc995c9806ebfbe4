// Package batch turns an uploaded workbook of provider/state pairs into an
// ordered list of verdicts.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/chris-regnier/licverify/internal/verify"
)

// Input column headers.
const (
	ProviderColumn = "Provider Name"
	StateColumn    = "Target Campaign State"
)

var (
	// ErrNoFile means the request carried no workbook.
	ErrNoFile = errors.New("no file uploaded")
	// ErrUnreadable wraps any failure to parse the upload as a workbook.
	ErrUnreadable = errors.New("invalid spreadsheet")
	// ErrNoResults means the input produced no verdicts.
	ErrNoResults = errors.New("no results to export")
)

// MissingColumnsError lists required headers absent from the input.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// Pair is one input row.
type Pair struct {
	Row      int // 1-based worksheet row
	Provider string
	State    string
}

// ReadPairs parses the first worksheet of r. The first non-blank row is the
// header. Rows are returned in file order; absent cells read as "" and rows with no
// content at all are skipped.
func ReadPairs(r io.Reader) ([]Pair, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	start := 0
	for start < len(rows) && blankRow(rows[start]) {
		start++
	}
	var header []string
	if start < len(rows) {
		header = rows[start]
	}
	providerCol, stateCol := indexOf(header, ProviderColumn), indexOf(header, StateColumn)
	var missing []string
	if providerCol < 0 {
		missing = append(missing, ProviderColumn)
	}
	if stateCol < 0 {
		missing = append(missing, StateColumn)
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	pairs := make([]Pair, 0, len(rows))
	for i := start + 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		pairs = append(pairs, Pair{
			Row:      i + 1,
			Provider: cellAt(rows[i], providerCol),
			State:    cellAt(rows[i], stateCol),
		})
	}
	return pairs, nil
}

// Run verifies every pair in order. The result has one verdict per pair.
func Run(ctx context.Context, v *verify.Verifier, pairs []Pair) []verify.Verdict {
	verdicts := make([]verify.Verdict, 0, len(pairs))
	for _, p := range pairs {
		verdicts = append(verdicts, v.Verify(ctx, p.Provider, p.State))
	}
	return verdicts
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func cellAt(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return row[col]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
