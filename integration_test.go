package licverify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/chris-regnier/licverify/internal/config"
	"github.com/chris-regnier/licverify/internal/metrics"
	"github.com/chris-regnier/licverify/internal/output"
	"github.com/chris-regnier/licverify/internal/server"
	"github.com/chris-regnier/licverify/internal/store"
	"github.com/chris-regnier/licverify/internal/table"
	"github.com/chris-regnier/licverify/internal/table/tabletest"
	"github.com/chris-regnier/licverify/internal/verify"
)

// TestBatchMatchesVerify loads a table from disk, serves it, and checks that
// every batch result row equals the /verify answer for the same input.
func TestBatchMatchesVerify(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// 1. Table
	tbl, err := table.Load(ctx, tabletest.WriteFile(t, dir, "table.xlsx", tabletest.Verification()))
	if err != nil {
		t.Fatalf("loading table: %v", err)
	}

	// 2. Server with metrics on a manual reader
	reader := sdkmetric.NewManualReader()
	inst, err := metrics.New(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatal(err)
	}
	srv := server.New(config.SystemDefaults().Server,
		verify.New(tbl, verify.WithObserver(inst)),
		server.WithMetrics(inst),
		server.WithSpool(store.NewSpool(t.TempDir())),
	)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// 3. Batch upload
	inputs := [][2]string{
		{"Acme Staffing", "tx"},
		{"beta health", "CA"},
		{"Gamma Care", "TX"},
		{"Unknown Co", "TX"},
		{"Acme Staffing", "NY"},
	}
	rows := [][]any{{"Provider Name", "Target Campaign State"}}
	for _, in := range inputs {
		rows = append(rows, []any{in[0], in[1]})
	}
	results := postBatch(t, ts.URL, tabletest.Workbook(t, rows))
	if len(results) != len(inputs)+1 {
		t.Fatalf("expected %d result rows, got %d", len(inputs)+1, len(results))
	}
	header := results[0]

	// 4. Every row agrees with /verify
	for i, in := range inputs {
		body, _ := json.Marshal(map[string]string{"provider_name": in[0], "state": in[1]})
		resp, err := http.Post(ts.URL+"/verify", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		var single map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&single); err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		row := results[i+1]
		for col, key := range header {
			got := ""
			if col < len(row) {
				got = row[col]
			}
			want, ok := single[key]
			if !ok {
				if got != "" {
					t.Errorf("row %d: %s = %q, want empty", i+1, key, got)
				}
				continue
			}
			if !sameCell(want, got) {
				t.Errorf("row %d: %s = %q, /verify returned %v", i+1, key, got, want)
			}
		}
	}

	// 5. Metrics: one lookup per batch row plus one per /verify call
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	if n := sumCounter(rm, "licverify.lookups"); n != int64(2*len(inputs)) {
		t.Errorf("expected %d lookups, got %d", 2*len(inputs), n)
	}
	if n := sumCounter(rm, "licverify.batch.requests"); n != 1 {
		t.Errorf("expected 1 batch request, got %d", n)
	}
}

// TestOfflineBatchMatchesServer checks the formatter path used by the CLI
// produces the same workbook rows as the HTTP batch endpoint.
func TestOfflineBatchMatchesServer(t *testing.T) {
	tbl, err := table.Read(bytes.NewReader(tabletest.Workbook(t, tabletest.Verification())))
	if err != nil {
		t.Fatal(err)
	}
	v := verify.New(tbl)

	input := tabletest.Workbook(t, [][]any{
		{"Provider Name", "Target Campaign State"},
		{"Gamma Care", "CA"},
		{"Beta Health", "CA"},
	})

	ts := httptest.NewServer(server.New(config.SystemDefaults().Server, v).Handler())
	defer ts.Close()
	viaHTTP := postBatch(t, ts.URL, input)

	var offline bytes.Buffer
	verdicts := []verify.Verdict{
		v.Verify(context.Background(), "Gamma Care", "CA"),
		v.Verify(context.Background(), "Beta Health", "CA"),
	}
	if err := output.WriteWorkbook(&offline, verdicts); err != nil {
		t.Fatal(err)
	}

	if got, want := tabletest.ReadRows(t, offline.Bytes()), viaHTTP; !equalRows(got, want) {
		t.Errorf("offline rows %v differ from server rows %v", got, want)
	}
}

func postBatch(t *testing.T, url string, data []byte) [][]string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "input.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(url+"/batch", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("batch returned %d: %s", resp.StatusCode, body)
	}
	return tabletest.ReadRows(t, body)
}

// sameCell compares a JSON value with its spreadsheet rendering.
func sameCell(want any, got string) bool {
	switch w := want.(type) {
	case bool:
		return strings.EqualFold(got, map[bool]string{true: "TRUE", false: "FALSE"}[w])
	case float64:
		b, _ := json.Marshal(w)
		return string(b) == got
	case string:
		return w == got
	default:
		return got == ""
	}
}

func equalRows(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.Join(a[i], "\x00") != strings.Join(b[i], "\x00") {
			return false
		}
	}
	return true
}

func sumCounter(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}
