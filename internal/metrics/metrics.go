package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/chris-regnier/licverify/internal/verify"
)

const instrumentationName = "github.com/chris-regnier/licverify/internal/metrics"

// BatchResult labels the end state of a /batch request.
type BatchResult string

const (
	BatchOK          BatchResult = "ok"
	BatchNoFile      BatchResult = "no_file"
	BatchUnreadable  BatchResult = "unreadable"
	BatchBadColumns  BatchResult = "missing_columns"
	BatchEmpty       BatchResult = "empty"
	BatchServerError BatchResult = "error"
)

// Instruments records lookup and batch activity. A nil *Instruments is a
// valid no-op recorder.
type Instruments struct {
	lookups       metric.Int64Counter
	batchRequests metric.Int64Counter
	batchRows     metric.Int64Histogram
}

// New creates the instruments on a meter from mp.
func New(mp metric.MeterProvider) (*Instruments, error) {
	meter := mp.Meter(instrumentationName)

	lookups, err := meter.Int64Counter("licverify.lookups",
		metric.WithDescription("Provider/state lookups by outcome"),
		metric.WithUnit("{lookup}"))
	if err != nil {
		return nil, fmt.Errorf("creating lookups counter: %w", err)
	}
	batchRequests, err := meter.Int64Counter("licverify.batch.requests",
		metric.WithDescription("Batch requests by result"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, fmt.Errorf("creating batch requests counter: %w", err)
	}
	batchRows, err := meter.Int64Histogram("licverify.batch.rows",
		metric.WithDescription("Rows processed per successful batch"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, fmt.Errorf("creating batch rows histogram: %w", err)
	}

	return &Instruments{
		lookups:       lookups,
		batchRequests: batchRequests,
		batchRows:     batchRows,
	}, nil
}

// ObserveLookup implements verify.Observer.
func (i *Instruments) ObserveLookup(ctx context.Context, outcome verify.Outcome) {
	if i == nil {
		return
	}
	i.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
}

// ObserveBatch records one batch request. rows is only recorded for BatchOK.
func (i *Instruments) ObserveBatch(ctx context.Context, result BatchResult, rows int) {
	if i == nil {
		return
	}
	i.batchRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("result", string(result))))
	if result == BatchOK {
		i.batchRows.Record(ctx, int64(rows))
	}
}
