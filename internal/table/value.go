package table

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Kind identifies what a spreadsheet cell held.
type Kind int

// Cell kinds.
const (
	KindBlank Kind = iota
	KindBool
	KindNumber
	KindText
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is an opaque cell value. The zero Value is blank.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

// Blank returns the empty cell value.
func Blank() Value { return Value{} }

// Bool wraps a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a numeric cell. Dates arrive as serial numbers.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Text wraps a string cell.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Kind reports what the cell held.
func (v Value) Kind() Kind { return v.kind }

// IsBlank reports whether the cell was empty.
func (v Value) IsBlank() bool { return v.kind == KindBlank }

// AsBool reports the boolean held by v, if any.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber reports the number held by v, if any.
func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// Interface returns nil, bool, float64 or string.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindText:
		return v.s
	default:
		return nil
	}
}

// String renders v the way a spreadsheet displays it.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindText:
		return v.s
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	return v == o
}

// MarshalJSON encodes v as null, a boolean, a number or a string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Blank()
	case bool:
		*v = Bool(x)
	case float64:
		*v = Number(x)
	case string:
		*v = Text(x)
	default:
		*v = Text(string(data))
	}
	return nil
}

// classify turns a raw cell string into a Value using the cell's stored type.
func classify(typ excelize.CellType, raw string) Value {
	switch typ {
	case excelize.CellTypeBool:
		if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			return Bool(b)
		}
	case excelize.CellTypeNumber, excelize.CellTypeDate, excelize.CellTypeUnset:
		if raw == "" {
			return Blank()
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return Number(n)
		}
	}
	if raw == "" {
		return Blank()
	}
	return Text(raw)
}
