package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-recon/internal/batch"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
)

const (
	SheetInvoices    = "Invoices"
	SheetAdjustments = "Adjustments"
)

// Service renders batch results as an XLSX workbook.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var invoiceHeaders = []string{
	"Document ID",
	"Source File",
	"State",
	"Subtotal",
	"Tax",
	"Adjustments",
	"Total",
	"Total Source",
	"Line Items",
	"Confidence",
	"Needs Review",
	"Findings",
	"Error",
}

var adjustmentHeaders = []string{
	"Document ID",
	"Category",
	"Label",
	"Amount",
	"Synthetic",
}

// ExportResultsXLSX returns a workbook with one row per document on the
// Invoices sheet and one row per adjustment on the Adjustments sheet.
func (s *Service) ExportResultsXLSX(ctx context.Context, results []batch.FileResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetInvoices); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetAdjustments); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	writeHeaders(f, SheetInvoices, invoiceHeaders)
	writeHeaders(f, SheetAdjustments, adjustmentHeaders)

	row, adjRow := 2, 2
	for _, fr := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if fr.Path == "" {
			continue
		}
		write := func(sheet string, r, col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, v)
		}

		res := fr.Result
		write(SheetInvoices, row, 2, fr.Path)
		if fr.Err != nil {
			write(SheetInvoices, row, 13, truncate(fr.Err.Error(), 200))
			row++
			continue
		}

		id := res.DocumentID.String()
		write(SheetInvoices, row, 1, id)
		write(SheetInvoices, row, 3, string(res.Debug.State))
		write(SheetInvoices, row, 4, amount(res.Totals.Subtotal))
		write(SheetInvoices, row, 5, amount(res.Totals.Tax))
		write(SheetInvoices, row, 6, amount(res.Totals.AdjustmentsNet))
		write(SheetInvoices, row, 7, amount(res.Totals.Total))
		write(SheetInvoices, row, 8, res.Totals.TotalSource)
		write(SheetInvoices, row, 9, len(res.LineItems))
		write(SheetInvoices, row, 10, res.Confidence.Score)
		write(SheetInvoices, row, 11, res.Confidence.NeedsReview)

		var codes []string
		for _, fd := range res.Confidence.Issues {
			codes = append(codes, fd.Code)
		}
		for _, fd := range res.Confidence.Warnings {
			codes = append(codes, fd.Code)
		}
		write(SheetInvoices, row, 12, truncate(strings.Join(codes, ", "), 200))
		row++

		for _, a := range res.Adjustments {
			write(SheetAdjustments, adjRow, 1, id)
			write(SheetAdjustments, adjRow, 2, a.Category.String())
			write(SheetAdjustments, adjRow, 3, a.Label)
			write(SheetAdjustments, adjRow, 4, amount(a.Amount))
			write(SheetAdjustments, adjRow, 5, a.IsSynthetic)
			adjRow++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetInvoices, "A", "A", 38) // id
	_ = f.SetColWidth(SheetInvoices, "B", "B", 48) // path
	_ = f.SetColWidth(SheetInvoices, "C", "C", 20) // state
	_ = f.SetColWidth(SheetInvoices, "D", "G", 14) // amounts
	_ = f.SetColWidth(SheetInvoices, "L", "M", 48)
	_ = f.SetColWidth(SheetAdjustments, "A", "A", 38)
	_ = f.SetColWidth(SheetAdjustments, "C", "C", 28)

	idx, _ := f.GetSheetIndex(SheetInvoices)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", row-2,
		"adjustment_rows", adjRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func amount(v int64) float64 {
	return money.FromMinor(v).InexactFloat64()
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
