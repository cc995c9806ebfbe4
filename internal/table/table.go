// Package table holds the in-memory license verification table: one record
// per provider row, with a licensed/summary entry for every state column pair
// found in the source workbook. A Table is immutable once built and safe for
// concurrent readers.
package table

import (
	"sort"
	"strings"
)

// Column naming used by the source workbook.
const (
	ProviderColumn = "Provider Name"
	LicensedSuffix = " Licensed?"
	SummarySuffix  = " Summary"
)

// LicensedColumn returns the header holding the licensed flag for state.
func LicensedColumn(state string) string { return state + LicensedSuffix }

// SummaryColumn returns the header holding the summary text for state.
func SummaryColumn(state string) string { return state + SummarySuffix }

// Entry is one provider's result for one state.
type Entry struct {
	Licensed Value
	Summary  Value
}

// Record is one row of the table.
type Record struct {
	Provider string
	States   map[string]Entry
}

// Table is the read-only verification dataset.
type Table struct {
	records []Record
	// index maps lowercased provider name to the first matching record
	index  map[string]int
	states map[string]struct{}
}

// New builds a table from records and the set of states that have a
// licensed column. Records keep their order; the first record wins when
// provider names collide case-insensitively.
func New(records []Record, states []string) *Table {
	t := &Table{
		records: records,
		index:   make(map[string]int, len(records)),
		states:  make(map[string]struct{}, len(states)),
	}
	for _, s := range states {
		t.states[s] = struct{}{}
	}
	for i, r := range records {
		if r.Provider == "" {
			continue
		}
		key := strings.ToLower(r.Provider)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

// Empty returns a table with no records and no supported states.
func Empty() *Table {
	return New(nil, nil)
}

// Find returns the first record whose provider name equals name, ignoring case.
func (t *Table) Find(name string) (Record, bool) {
	if t == nil || name == "" {
		return Record{}, false
	}
	i, ok := t.index[strings.ToLower(name)]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// Supports reports whether the table has a licensed column for state.
// The state code is matched exactly as given.
func (t *Table) Supports(state string) bool {
	if t == nil {
		return false
	}
	_, ok := t.states[state]
	return ok
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// States returns the supported state codes in sorted order.
func (t *Table) States() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.states))
	for s := range t.states {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
