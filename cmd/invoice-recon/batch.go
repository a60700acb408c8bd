package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-recon/internal/batch"
	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/export"
	"github.com/joseph-ayodele/invoice-recon/internal/metrics"
	"github.com/joseph-ayodele/invoice-recon/internal/pipeline"
)

type batchOptions struct {
	out         string
	metricsFile string
	workers     int
	exts        []string
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Reconcile every invoice text file under a directory into an XLSX report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "invoice-recon.xlsx", "Output workbook path")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write prometheus metrics in text format to this file")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Parallel documents (default from BATCH_WORKERS)")
	cmd.Flags().StringSliceVar(&opts.exts, "ext", nil, "File extensions to include (default from BATCH_EXTENSIONS)")
	return cmd
}

func runBatch(cmd *cobra.Command, root *rootOptions, opts *batchOptions, dir string) error {
	cfg := root.cfg
	workers := cfg.Batch.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	exts := cfg.Batch.Extensions
	if len(opts.exts) > 0 {
		exts = opts.exts
	}

	proc, err := pipeline.NewFromConfig(root.logger, cfg)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	runner := batch.NewRunner(proc, root.logger,
		batch.WithWorkers(workers),
		batch.WithExtensions(exts...),
		batch.WithSkipHidden(cfg.Batch.SkipHidden),
		batch.WithMetrics(metrics.New(reg)),
	)

	results, stats, err := runner.Run(cmd.Context(), dir)
	if err != nil {
		return err
	}

	b, err := export.NewService(root.logger).ExportResultsXLSX(cmd.Context(), results)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, b, 0o644); err != nil {
		return common.WrapError(err, "write report")
	}
	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			return common.WrapError(err, "write metrics")
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "processed %d of %d files (%d failed, %d need review) -> %s\n",
		stats.Succeeded, stats.Matched, stats.Failed, stats.NeedsReview, opts.out)
	return nil
}
