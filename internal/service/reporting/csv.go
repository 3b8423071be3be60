package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/hjmsindangan/stockbook/internal/domain/models"
	"github.com/hjmsindangan/stockbook/internal/ledger"
)

// CategoryCSV serializes a category view for download.
func CategoryCSV(items []models.StockItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{"PRODUCT", "SPECIFICATION", "QUANTITY(PCS/METER)", "QUANTITY(BOX/ROLL)"}}
	for _, item := range items {
		records = append(records, []string{
			item.Product,
			item.Specification,
			fmt.Sprintf("%g", item.QtyPrimary),
			fmt.Sprintf("%g", item.QtySecondary),
		})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("encode category csv: %w", err)
	}
	return buf.Bytes(), nil
}

// LedgerCSV serializes a computed ledger view for download, columns in the
// RECORDS schema order.
func LedgerCSV(schema ledger.Schema, entries []models.LedgerEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{
		schema.Date, schema.Product, schema.Size,
		schema.QtyPrimary, schema.QtySecondary,
		schema.Action, schema.Category,
		schema.TotalPrimary, schema.TotalSecondary,
	}}
	for _, entry := range entries {
		records = append(records, []string{
			entry.Date.Format(ledger.DateLayout),
			entry.Product,
			entry.Size,
			fmt.Sprintf("%g", entry.QtyPrimary),
			fmt.Sprintf("%g", entry.QtySecondary),
			string(entry.Action),
			entry.Category,
			fmt.Sprintf("%g", entry.TotalPrimary),
			fmt.Sprintf("%g", entry.TotalSecondary),
		})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("encode ledger csv: %w", err)
	}
	return buf.Bytes(), nil
}
