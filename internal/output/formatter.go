// Package output renders verdicts for callers (spreadsheet or JSON) and
// sets up process logging.
package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chris-regnier/licverify/internal/verify"
)

// Formatter renders a list of verdicts into a byte slice in a specific format.
type Formatter interface {
	Format(verdicts []verify.Verdict) ([]byte, error)
}

// ResolveFormat determines the output format to use. If flagValue is non-empty,
// it is returned directly. Otherwise the extension of path decides, with
// "xlsx" as the fallback.
func ResolveFormat(flagValue, path string) string {
	if flagValue != "" {
		return flagValue
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "xlsx"
}

// NewFormatter returns a Formatter for the given format name.
// Supported formats: "xlsx", "json".
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "xlsx":
		return &WorkbookFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (supported: xlsx, json)", format)
	}
}
