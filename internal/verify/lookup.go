// Package verify answers "is this provider licensed in this state" against
// a verification table.
package verify

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/licverify/internal/table"
)

// Lookup checks provider in state against t. The state is uppercased before
// use; the provider is matched case-insensitively and echoed as given.
// Empty inputs are not rejected here.
func Lookup(t *table.Table, provider, state string) Verdict {
	state = strings.ToUpper(state)
	v := Verdict{Provider: provider, State: state}

	rec, ok := t.Find(provider)
	if !ok {
		v.Outcome = OutcomeNotFound
		return v
	}
	if !t.Supports(state) {
		v.Outcome = OutcomeUnsupported
		return v
	}

	entry := rec.States[state]
	v.Outcome = OutcomeFound
	v.Licensed = entry.Licensed
	v.Summary = entry.Summary
	return v
}

// Observer is notified of every lookup a Verifier performs.
type Observer interface {
	ObserveLookup(ctx context.Context, outcome Outcome)
}

// Verifier binds a table to optional instrumentation.
type Verifier struct {
	table    *table.Table
	observer Observer
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithObserver reports each lookup outcome to o.
func WithObserver(o Observer) Option {
	return func(v *Verifier) {
		v.observer = o
	}
}

// New returns a Verifier reading from t. A nil table behaves as empty.
func New(t *table.Table, opts ...Option) *Verifier {
	if t == nil {
		t = table.Empty()
	}
	v := &Verifier{table: t}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Table returns the table the verifier reads from.
func (v *Verifier) Table() *table.Table {
	return v.table
}

// Verify is Lookup plus instrumentation. It records a span event on the
// span in ctx, if any.
func (v *Verifier) Verify(ctx context.Context, provider, state string) Verdict {
	verdict := Lookup(v.table, provider, state)

	trace.SpanFromContext(ctx).AddEvent("lookup", trace.WithAttributes(
		attribute.String("licverify.state", verdict.State),
		attribute.String("licverify.outcome", verdict.Outcome.String()),
	))
	if v.observer != nil {
		v.observer.ObserveLookup(ctx, verdict.Outcome)
	}
	return verdict
}
