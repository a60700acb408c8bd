package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-recon/internal/batch"
	"github.com/joseph-ayodele/invoice-recon/internal/pipeline"
)

type watchOptions struct {
	initial  bool
	debounce time.Duration
}

// watchRecord is one JSON line of watch output.
type watchRecord struct {
	Path   string `json:"path"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Reconcile invoice text files as they land and print JSON lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := pipeline.NewFromConfig(root.logger, root.cfg)
			if err != nil {
				return err
			}
			runner := batch.NewRunner(proc, root.logger,
				batch.WithExtensions(root.cfg.Batch.Extensions...),
				batch.WithSkipHidden(root.cfg.Batch.SkipHidden),
			)
			enc := json.NewEncoder(cmd.OutOrStdout())
			return runner.Watch(cmd.Context(), batch.WatchConfig{
				Roots:       args,
				InitialScan: opts.initial,
				Debounce:    opts.debounce,
			}, func(fr batch.FileResult) {
				rec := watchRecord{Path: fr.Path}
				if fr.Err != nil {
					rec.Error = fr.Err.Error()
				} else {
					rec.Result = fr.Result
				}
				if err := enc.Encode(rec); err != nil {
					root.logger.Error("watch.write.failed", "path", fr.Path, "err", err)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&opts.initial, "initial", true, "Process files already present")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Coalesce bursts of file events")
	return cmd
}
