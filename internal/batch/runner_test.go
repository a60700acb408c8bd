package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/metrics"
	"github.com/joseph-ayodele/invoice-recon/internal/pipeline"
)

type fakeProcessor struct {
	calls atomic.Int32
}

func (f *fakeProcessor) Process(_ context.Context, in pipeline.Input) (entity.Result, error) {
	f.calls.Add(1)
	if strings.Contains(in.Text, "BROKEN") {
		return entity.Result{}, errors.New("boom")
	}
	return entity.Result{DocumentID: in.DocumentID, Confidence: entity.Confidence{Score: 90}}, nil
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"a.txt":            "INVOICE TOTAL 10.00",
		"b.TXT":            "BROKEN",
		".hidden.txt":      "INVOICE TOTAL 1.00",
		"scan.pdf":         "%PDF",
		"sub/c.text":       "TOTAL 5.00",
		".cache/d.txt":     "TOTAL 5.00",
		"sub/deeper/e.txt": "TOTAL 7.00",
	}
	for name, body := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func TestCollect(t *testing.T) {
	root := writeTree(t)

	paths, stats, err := NewRunner(&fakeProcessor{}, nil).Collect(root)
	require.NoError(t, err)
	var rel []string
	for _, p := range paths {
		r, _ := filepath.Rel(root, p)
		rel = append(rel, filepath.ToSlash(r))
	}
	sort.Strings(rel)
	assert.Equal(t, []string{"a.txt", "b.TXT", "sub/c.text", "sub/deeper/e.txt"}, rel)
	assert.Equal(t, 4, stats.Matched)

	paths, _, err = NewRunner(&fakeProcessor{}, nil, WithSkipHidden(false), WithExtensions(".pdf")).Collect(root)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestCollect_Errors(t *testing.T) {
	_, _, err := NewRunner(&fakeProcessor{}, nil).Collect(" ")
	assert.Error(t, err)

	_, _, err = NewRunner(&fakeProcessor{}, nil).Collect(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	root := writeTree(t)
	m := metrics.New(prometheus.NewRegistry())
	proc := &fakeProcessor{}

	results, stats, err := NewRunner(proc, nil, WithWorkers(2), WithMetrics(m)).Run(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Equal(t, int32(4), proc.calls.Load())
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Documents.WithLabelValues(metrics.OutcomeValid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Documents.WithLabelValues(metrics.OutcomeError)))

	ids := map[string]bool{}
	for _, r := range results {
		if r.Err == nil {
			ids[r.Result.DocumentID.String()] = true
		}
	}
	assert.Len(t, ids, 3, "document ids are distinct per path")
}

func TestRun_StableDocumentIDs(t *testing.T) {
	root := writeTree(t)
	r := NewRunner(&fakeProcessor{}, nil)
	first, _, err := r.Run(context.Background(), root)
	require.NoError(t, err)
	second, _, err := r.Run(context.Background(), root)
	require.NoError(t, err)
	for i := range first {
		assert.Equal(t, first[i].Result.DocumentID, second[i].Result.DocumentID)
	}
}

func TestRun_Cancelled(t *testing.T) {
	root := writeTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := &fakeProcessor{}
	_, _, err := NewRunner(proc, nil).Run(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), proc.calls.Load())
}

func TestRun_RealPipeline(t *testing.T) {
	root := t.TempDir()
	text := "2 CS WIDGET 12345 5.00 10.00\nSALES TAX 0.80\nINVOICE TOTAL 10.80"
	require.NoError(t, os.WriteFile(filepath.Join(root, "inv.txt"), []byte(text), 0o644))

	cfg := &common.Config{Reconcile: common.DefaultReconcileConfig(), Scoring: common.ScoringConfig{ReviewThreshold: 60}}
	proc, err := pipeline.NewFromConfig(nil, cfg)
	require.NoError(t, err)

	results, stats, err := NewRunner(proc, nil).Run(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, int64(1080), results[0].Result.Totals.Total)
	assert.Equal(t, 1, stats.Succeeded)
}
