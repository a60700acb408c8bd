package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-recon/internal/entity"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inv.txt")
	text := "2 CS WIDGET 12345 5.00 10.00\nSALES TAX 0.80\nINVOICE TOTAL 10.80"
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	out, err := run(t, "extract", path, "--compact")
	require.NoError(t, err)

	var res entity.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, int64(1080), res.Totals.Total)
	assert.Len(t, res.LineItems, 1)
}

func TestExtractCommand_MissingFile(t *testing.T) {
	_, err := run(t, "extract", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestExtractCommand_BadPolicy(t *testing.T) {
	dir := t.TempDir()
	policy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte("reconcile:\n  sum_ratio: 4\n"), 0o644))
	in := filepath.Join(dir, "inv.txt")
	require.NoError(t, os.WriteFile(in, []byte("TOTAL 1.00"), 0o644))

	_, err := run(t, "extract", in, "--policy", policy)
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("WIDGET 1.00 1.00\nTOTAL 1.00"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("GADGET 2.00 2.00\nTOTAL 2.00"), 0o644))
	report := filepath.Join(t.TempDir(), "out.xlsx")
	metricsFile := filepath.Join(t.TempDir(), "metrics.prom")

	out, err := run(t, "batch", dir, "--out", report, "--metrics-file", metricsFile, "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "processed 2 of 2 files")
	assert.FileExists(t, report)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "invoice_recon_documents_total")
}

func TestWatchCommand_InitialScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("WIDGET 3.00 3.00\nTOTAL 3.00"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch", dir, "--debounce", "10ms"})
	require.NoError(t, cmd.ExecuteContext(ctx))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	var rec struct {
		Path   string        `json:"path"`
		Result entity.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, filepath.Join(dir, "a.txt"), rec.Path)
	assert.Equal(t, int64(300), rec.Result.Totals.Total)
}
