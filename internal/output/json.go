package output

import (
	"encoding/json"

	"github.com/chris-regnier/licverify/internal/verify"
)

// JSONFormatter renders verdicts as an indented JSON array.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(verdicts []verify.Verdict) ([]byte, error) {
	if verdicts == nil {
		verdicts = []verify.Verdict{}
	}
	return json.MarshalIndent(verdicts, "", "  ")
}
