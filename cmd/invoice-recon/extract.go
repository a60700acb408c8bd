package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/pipeline"
)

type extractOptions struct {
	lineItems   string
	totalsStart float64
	totalsEnd   float64
	compact     bool
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <file|->",
		Short: "Reconcile one invoice text file and print the JSON record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.lineItems, "line-items", "", "JSON file with line items from a vendor parser")
	cmd.Flags().Float64Var(&opts.totalsStart, "totals-start", 0, "Layout hint: relative start of the totals region")
	cmd.Flags().Float64Var(&opts.totalsEnd, "totals-end", 0, "Layout hint: relative end of the totals region")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print JSON on one line")
	return cmd
}

func runExtract(cmd *cobra.Command, root *rootOptions, opts *extractOptions, path string) error {
	text, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	in := pipeline.Input{Text: text}
	if opts.totalsEnd > opts.totalsStart {
		in.LayoutHints = &entity.LayoutHints{TotalsStart: opts.totalsStart, TotalsEnd: opts.totalsEnd}
	}
	if opts.lineItems != "" {
		b, err := os.ReadFile(opts.lineItems)
		if err != nil {
			return common.WrapError(err, "read line items")
		}
		if err := json.Unmarshal(b, &in.LineItems); err != nil {
			return common.NewAppError("INPUT_ERROR", "parse line items", err)
		}
	}

	proc, err := pipeline.NewFromConfig(root.logger, root.cfg)
	if err != nil {
		return err
	}
	res, err := proc.Process(cmd.Context(), in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", common.WrapError(err, "read stdin")
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
