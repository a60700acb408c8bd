package export

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/batch"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
)

func TestExportResultsXLSX(t *testing.T) {
	id := uuid.MustParse("6f1c2b1e-8a4d-4c55-9d61-0f4bb7e0e7a1")
	results := []batch.FileResult{
		{
			Path: "inv/a.txt",
			Result: entity.Result{
				DocumentID: id,
				Totals:     entity.InvoiceTotals{Subtotal: 10000, Tax: 800, Total: 11300, AdjustmentsNet: 1300, TotalSource: "labelAdjacency"},
				Adjustments: []entity.Adjustment{
					{Category: constants.Tax, Label: "SALES TAX", Amount: 800},
					{Category: constants.Fee, Label: "UNEXPLAINED DIFFERENCE", Amount: 500, IsSynthetic: true},
				},
				Confidence: entity.Confidence{
					Score:    77,
					Warnings: []entity.Finding{{Code: "SUM_SUBTOTAL_MISMATCH"}},
				},
				Debug: entity.Debug{State: constants.StateValid},
			},
		},
		{Path: "inv/b.txt", Err: errors.New("read failed")},
		{},
	}

	b, err := NewService(nil).ExportResultsXLSX(context.Background(), results)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetInvoices)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, invoiceHeaders, rows[0])
	assert.Equal(t, id.String(), rows[1][0])
	assert.Equal(t, "VALID", rows[1][2])
	assert.Equal(t, "113", rows[1][6])
	assert.Equal(t, "77", rows[1][9])
	assert.Equal(t, "SUM_SUBTOTAL_MISMATCH", rows[1][11])
	assert.Equal(t, "inv/b.txt", rows[2][1])
	assert.Equal(t, "read failed", rows[2][12])

	adj, err := f.GetRows(SheetAdjustments)
	require.NoError(t, err)
	require.Len(t, adj, 3)
	assert.Equal(t, "fee", adj[2][1])
	assert.Equal(t, "5", adj[2][3])
	assert.Equal(t, "TRUE", adj[2][4])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
