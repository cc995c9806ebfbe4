package table

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var loadTracer = otel.Tracer("github.com/chris-regnier/licverify/internal/table")

// ErrNoProviderColumn is returned when the header row lacks "Provider Name".
var ErrNoProviderColumn = errors.New("workbook has no " + ProviderColumn + " column")

// LoadOption configures Load and Read.
type LoadOption func(*loadOptions)

type loadOptions struct {
	sheet string
}

// WithSheet reads the named worksheet instead of the first one.
func WithSheet(name string) LoadOption {
	return func(o *loadOptions) {
		o.sheet = name
	}
}

// Load reads the verification table from the workbook at path.
func Load(ctx context.Context, path string, opts ...LoadOption) (*Table, error) {
	_, span := loadTracer.Start(ctx, "load table")
	defer span.End()
	span.SetAttributes(attribute.String("licverify.table.path", path))

	f, err := excelize.OpenFile(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	t, err := fromWorkbook(f, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("reading workbook %s: %w", path, err)
	}

	span.SetAttributes(
		attribute.Int("licverify.table.records", t.Len()),
		attribute.Int("licverify.table.states", len(t.states)),
	)
	return t, nil
}

// Read parses a verification table from workbook bytes.
func Read(r io.Reader, opts ...LoadOption) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return fromWorkbook(f, opts)
}

// LoadOrEmpty loads the table at path. On any failure it logs a warning and
// returns an empty table so the caller can keep serving.
func LoadOrEmpty(ctx context.Context, path string, logger *slog.Logger, opts ...LoadOption) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	t, err := Load(ctx, path, opts...)
	if err != nil {
		logger.Warn("verification table unavailable, serving with an empty table", "path", path, "err", err)
		return Empty()
	}
	logger.Info("verification table loaded", "path", path, "records", t.Len(), "states", len(t.states))
	return t
}

func fromWorkbook(f *excelize.File, opts []LoadOption) (*Table, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	sheet := o.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	start := 0
	for start < len(rows) && blankRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, ErrNoProviderColumn
	}

	type stateColumns struct {
		state    string
		licensed int
		summary  int
	}

	header := rows[start]
	providerCol := -1
	summaryCols := make(map[string]int)
	var cols []stateColumns
	seen := make(map[string]bool)

	for i, h := range header {
		switch {
		case h == ProviderColumn:
			if providerCol < 0 {
				providerCol = i
			}
		case strings.HasSuffix(h, LicensedSuffix):
			state := strings.TrimSuffix(h, LicensedSuffix)
			if !seen[state] {
				seen[state] = true
				cols = append(cols, stateColumns{state: state, licensed: i, summary: -1})
			}
		case strings.HasSuffix(h, SummarySuffix):
			state := strings.TrimSuffix(h, SummarySuffix)
			if _, ok := summaryCols[state]; !ok {
				summaryCols[state] = i
			}
		}
	}
	if providerCol < 0 {
		return nil, ErrNoProviderColumn
	}

	states := make([]string, 0, len(cols))
	for i := range cols {
		if idx, ok := summaryCols[cols[i].state]; ok {
			cols[i].summary = idx
		}
		states = append(states, cols[i].state)
	}

	records := make([]Record, 0, len(rows)-start-1)
	for r := start + 1; r < len(rows); r++ {
		row := rows[r]
		rec := Record{
			Provider: cellAt(row, providerCol),
			States:   make(map[string]Entry, len(cols)),
		}
		for _, c := range cols {
			rec.States[c.state] = Entry{
				Licensed: typedCell(f, sheet, row, r, c.licensed),
				Summary:  typedCell(f, sheet, row, r, c.summary),
			}
		}
		records = append(records, rec)
	}

	return New(records, states), nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// typedCell reads the cell at (rowIdx, col), both zero-based, and classifies
// it by the type recorded in the workbook.
func typedCell(f *excelize.File, sheet string, row []string, rowIdx, col int) Value {
	raw := cellAt(row, col)
	if raw == "" {
		return Blank()
	}
	name, err := excelize.CoordinatesToCellName(col+1, rowIdx+1)
	if err != nil {
		return Text(raw)
	}
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		typ = excelize.CellTypeUnset
	}
	return classify(typ, raw)
}
