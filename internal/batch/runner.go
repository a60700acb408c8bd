// Package batch runs the pipeline over a directory of text renderings.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/metrics"
	"github.com/joseph-ayodele/invoice-recon/internal/pipeline"
)

// Processor is the part of pipeline.Processor the runner needs.
type Processor interface {
	Process(ctx context.Context, in pipeline.Input) (entity.Result, error)
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path     string
	Result   entity.Result
	Err      error
	Duration time.Duration
}

type Stats struct {
	Scanned     int
	Matched     int
	Succeeded   int
	Failed      int
	NeedsReview int
}

type Runner struct {
	proc       Processor
	logger     *slog.Logger
	workers    int
	exts       map[string]struct{}
	skipHidden bool
	metrics    *metrics.Metrics
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithExtensions replaces the default extension filter.
func WithExtensions(exts ...string) Option {
	return func(r *Runner) {
		set := map[string]struct{}{}
		for _, e := range exts {
			if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
				set[e] = struct{}{}
			}
		}
		if len(set) > 0 {
			r.exts = set
		}
	}
}

func WithSkipHidden(skip bool) Option {
	return func(r *Runner) { r.skipHidden = skip }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func NewRunner(proc Processor, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		proc:       proc,
		logger:     logger,
		workers:    4,
		exts:       constants.AllowedExtensions,
		skipHidden: true,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Collect walks root and returns the matching files in lexical order.
// Unreadable entries are counted as failures and skipped.
func (r *Runner) Collect(root string) ([]string, Stats, error) {
	var stats Stats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root path is required")
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			r.logger.Warn("batch.walk.skip", "path", path, "err", walkErr)
			stats.Failed++
			return nil
		}
		if r.skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !r.allowed(path) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, stats, fmt.Errorf("walk: %w", err)
	}
	return paths, stats, nil
}

// Run processes every matching file under root with a bounded worker pool.
// Per-file failures are recorded on the result; cancellation stops new
// documents from starting and is returned as the error.
func (r *Runner) Run(ctx context.Context, root string) ([]FileResult, Stats, error) {
	paths, stats, err := r.Collect(root)
	if err != nil {
		return nil, stats, err
	}

	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.processFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Warn("batch.run.cancelled", "root", root, "err", err)
		return results, tally(stats, results), err
	}

	stats = tally(stats, results)
	r.logger.Info("batch.run.ok",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"needs_review", stats.NeedsReview,
	)
	return results, stats, nil
}

func (r *Runner) processFile(ctx context.Context, path string) FileResult {
	start := time.Now()
	fr := FileResult{Path: path}

	b, err := os.ReadFile(path)
	if err != nil {
		fr.Err = fmt.Errorf("read %s: %w", path, err)
	} else {
		fr.Result, fr.Err = r.proc.Process(ctx, pipeline.Input{
			DocumentID: uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))),
			Text:       string(b),
		})
	}
	fr.Duration = time.Since(start)

	if fr.Err != nil {
		r.logger.Error("batch.file.failed", "path", path, "err", fr.Err)
		r.metrics.ObserveDocument(metrics.OutcomeError, 0, false, 0, fr.Duration)
		return fr
	}
	r.metrics.ObserveDocument(outcome(fr.Result), fr.Result.Confidence.Score,
		fr.Result.Confidence.NeedsReview, synthetic(fr.Result), fr.Duration)
	r.logger.Debug("batch.file.ok", "path", path, "document_id", fr.Result.DocumentID, "score", fr.Result.Confidence.Score)
	return fr
}

func tally(stats Stats, results []FileResult) Stats {
	for _, fr := range results {
		switch {
		case fr.Path == "":
			// never started
		case fr.Err != nil:
			stats.Failed++
		default:
			stats.Succeeded++
			if fr.Result.Confidence.NeedsReview {
				stats.NeedsReview++
			}
		}
	}
	return stats
}

func outcome(res entity.Result) string {
	switch res.Debug.State {
	case constants.StateSalvageFailed:
		return metrics.OutcomeSalvageFailed
	case constants.StateSalvageSucceeded:
		return metrics.OutcomeSalvaged
	}
	return metrics.OutcomeValid
}

func synthetic(res entity.Result) int {
	n := 0
	for _, a := range res.Adjustments {
		if a.IsSynthetic {
			n++
		}
	}
	return n
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
