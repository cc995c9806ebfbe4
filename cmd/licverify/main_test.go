package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/licverify/internal/table/tabletest"
)

// run executes the root command with fresh flag state and an isolated HOME.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	flagConfig, flagTable = "licverify.yaml", ""
	flagQuiet, flagVerbose, flagDebug = false, false, false
	flagBatchIn, flagBatchOut, flagBatchFormat = "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTable(t *testing.T, dir string) string {
	t.Helper()
	return tabletest.WriteFile(t, dir, "table.xlsx", tabletest.Verification())
}

func TestCheck_Found(t *testing.T) {
	dir := t.TempDir()
	tablePath := writeTable(t, dir)

	out, err := run(t, "check", "--quiet", "--config", filepath.Join(dir, "none.yaml"), "--table", tablePath, "acme staffing", "tx")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "acme staffing", got["provider"])
	assert.Equal(t, "TX", got["state"])
	assert.Equal(t, true, got["licensed"])
	assert.Equal(t, "Active through 2026", got["summary"])
}

func TestCheck_MissingTableIsEmpty(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "check", "--quiet", "--config", filepath.Join(dir, "none.yaml"), "--table", filepath.Join(dir, "missing.xlsx"), "Acme Staffing", "TX")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "No record found"`)
}

func TestCheck_RequiresTwoArgs(t *testing.T) {
	_, err := run(t, "check", "--quiet", "Acme Staffing")
	assert.Error(t, err)
}

func TestBatch_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	tablePath := writeTable(t, dir)
	in := tabletest.WriteFile(t, dir, "in.xlsx", [][]any{
		{"Provider Name", "Target Campaign State"},
		{"Beta Health", "TX"},
		{"Nobody", "TX"},
	})
	outPath := filepath.Join(dir, "results.json")

	_, err := run(t, "batch", "--quiet", "--config", filepath.Join(dir, "none.yaml"), "--table", tablePath, "--in", in, "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, false, got[0]["licensed"])
	assert.Equal(t, "No record found", got[1]["status"])
}

func TestBatch_WritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	tablePath := writeTable(t, dir)
	in := tabletest.WriteFile(t, dir, "in.xlsx", [][]any{
		{"Target Campaign State", "Provider Name"},
		{"ca", "Acme Staffing"},
	})
	outPath := filepath.Join(dir, "results.xlsx")

	_, err := run(t, "batch", "--quiet", "--config", filepath.Join(dir, "none.yaml"), "--table", tablePath, "--in", in, "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	rows := tabletest.ReadRows(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"provider", "state", "licensed", "summary"}, rows[0])
	assert.Equal(t, []string{"Acme Staffing", "CA", "FALSE", "Application pending"}, rows[1])
}

func TestBatch_MissingColumns(t *testing.T) {
	dir := t.TempDir()
	in := tabletest.WriteFile(t, dir, "in.xlsx", [][]any{{"Provider Name"}, {"Acme"}})

	_, err := run(t, "batch", "--quiet", "--config", filepath.Join(dir, "none.yaml"), "--in", in, "--out", filepath.Join(dir, "out.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns: Target Campaign State")
}

func TestLoadConfig_ProjectFileAndTableFlag(t *testing.T) {
	dir := t.TempDir()
	projectConf := filepath.Join(dir, "licverify.yaml")
	require.NoError(t, os.WriteFile(projectConf, []byte("server:\n  addr: \":9090\"\ndata:\n  table_path: from-config.xlsx\n"), 0644))

	t.Setenv("HOME", t.TempDir())
	flagConfig, flagTable = projectConf, ""
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "from-config.xlsx", cfg.Data.TablePath)
	assert.Equal(t, version, cfg.Telemetry.ServiceVersion)

	flagTable = "from-flag.xlsx"
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-flag.xlsx", cfg.Data.TablePath)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "licverify dev")
}
