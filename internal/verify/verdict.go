package verify

import (
	"encoding/json"

	"github.com/chris-regnier/licverify/internal/table"
)

// Outcome distinguishes the three verdict shapes.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeUnsupported
	OutcomeFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeUnsupported:
		return "unsupported"
	case OutcomeFound:
		return "found"
	default:
		return "unknown"
	}
}

// Status texts carried by verdicts that have no licensed/summary pair.
const (
	StatusNoRecord          = "No record found"
	StatusStateNotSupported = "State not supported"
)

// Field names of a flattened verdict.
const (
	FieldProvider = "provider"
	FieldState    = "state"
	FieldStatus   = "status"
	FieldLicensed = "licensed"
	FieldSummary  = "summary"
)

// Verdict is the outcome of checking one provider/state pair. Licensed and
// Summary are only meaningful when Outcome is OutcomeFound.
type Verdict struct {
	Provider string
	State    string
	Outcome  Outcome
	Licensed table.Value
	Summary  table.Value
}

// Status returns the status text, or "" for a found verdict.
func (v Verdict) Status() string {
	switch v.Outcome {
	case OutcomeNotFound:
		return StatusNoRecord
	case OutcomeUnsupported:
		return StatusStateNotSupported
	default:
		return ""
	}
}

// Field is one named value of a flattened verdict.
type Field struct {
	Key   string
	Value table.Value
}

// Fields flattens v into an ordered row: provider, state, then either status
// or licensed and summary.
func (v Verdict) Fields() []Field {
	fields := []Field{
		{Key: FieldProvider, Value: table.Text(v.Provider)},
		{Key: FieldState, Value: table.Text(v.State)},
	}
	if v.Outcome == OutcomeFound {
		return append(fields,
			Field{Key: FieldLicensed, Value: v.Licensed},
			Field{Key: FieldSummary, Value: v.Summary},
		)
	}
	return append(fields, Field{Key: FieldStatus, Value: table.Text(v.Status())})
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	fields := v.Fields()
	m := make(map[string]table.Value, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return json.Marshal(m)
}
