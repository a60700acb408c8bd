package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-recon/internal/common"
)

type rootOptions struct {
	policyFile string
	jsonLogs   bool
	verbose    bool

	cfg    *common.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "invoice-recon",
		Short: "Extract and reconcile invoice totals from plain text",
		Long: `invoice-recon reads plain-text renderings of vendor invoices, extracts line
items, subtotal, tax, fees, credits and the grand total, and reconciles them
into a scored record.

Example Usage:
  invoice-recon extract invoice.txt
  invoice-recon batch ./invoices --out report.xlsx
  invoice-recon batch ./invoices --policy tolerances.yaml --json
  invoice-recon watch ./inbox`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.policyFile, "policy", "", "YAML file with tolerance overrides")
	cmd.PersistentFlags().BoolVar(&opts.jsonLogs, "json", false, "Emit JSON logs")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newExtractCmd(opts), newBatchCmd(opts), newWatchCmd(opts))
	return cmd
}

func (o *rootOptions) init(logOut io.Writer) error {
	cfg := common.LoadConfig()
	if o.policyFile != "" {
		if err := cfg.LoadPolicyFile(o.policyFile); err != nil {
			return err
		}
	}
	if o.jsonLogs {
		cfg.Log.JSON = true
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = newLogger(logOut, cfg.Log)
	slog.SetDefault(o.logger)
	return nil
}

// newLogger writes messages with their variables; the text handler drops
// time and level to keep terminal output short.
func newLogger(w io.Writer, cfg common.LogConfig) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
