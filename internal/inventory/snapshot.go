package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hjmsindangan/stockbook/internal/domain/models"
	"github.com/hjmsindangan/stockbook/internal/ledger"
)

// Category sheet headers. Unlike the RECORDS schema these have stayed stable
// across sheet revisions.
const (
	colProduct       = "PRODUCT"
	colSpecification = "SPECIFICATION"
	colQtyPrimary    = "QUANTITY(PCS/METER)"
	colQtySecondary  = "QUANTITY(BOX/ROLL)"
)

// parseSnapshot converts a raw category sheet (header row included) into
// stock items. Quantities are coerced leniently, junk becoming 0, matching
// how the sheets are maintained by hand.
func parseSnapshot(raw [][]interface{}) ([]models.StockItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(raw[0]))
	for i, cell := range raw[0] {
		if cell == nil {
			continue
		}
		name := strings.TrimSpace(fmt.Sprint(cell))
		if name == "" || strings.HasPrefix(name, "Unnamed") {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range []string{colProduct, colSpecification, colQtyPrimary, colQtySecondary} {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ledger.ErrSchema, strings.Join(missing, ", "))
	}

	items := make([]models.StockItem, 0, len(raw)-1)
	for _, row := range raw[1:] {
		product := cell(row, cols[colProduct])
		spec := cell(row, cols[colSpecification])
		if product == "" && spec == "" {
			continue
		}
		items = append(items, models.StockItem{
			Product:       product,
			Specification: spec,
			QtyPrimary:    number(cell(row, cols[colQtyPrimary])),
			QtySecondary:  number(cell(row, cols[colQtySecondary])),
		})
	}

	return items, nil
}

// snapshotRows serializes stock items back into sheet rows for a full
// overwrite.
func snapshotRows(items []models.StockItem) [][]interface{} {
	rows := make([][]interface{}, 0, len(items)+1)
	rows = append(rows, []interface{}{colProduct, colSpecification, colQtyPrimary, colQtySecondary})
	for _, item := range items {
		rows = append(rows, []interface{}{item.Product, item.Specification, item.QtyPrimary, item.QtySecondary})
	}
	return rows
}

func cell(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

func number(value string) float64 {
	if value == "" {
		return 0
	}
	value = strings.ReplaceAll(value, ",", "")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
