package ledger

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hjmsindangan/stockbook/internal/domain/models"
)

// Engine turns the raw RECORDS table into a chronologically ordered ledger
// with per-group running balances. It holds no state between calls.
type Engine struct {
	schema Schema
	policy CoercionPolicy
	loc    *time.Location
	logger *zap.Logger
}

// NewEngine builds a ledger engine for the given schema and coercion policy.
func NewEngine(schema Schema, policy CoercionPolicy, loc *time.Location, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{schema: schema, policy: policy, loc: loc, logger: logger}
}

// Schema exposes the engine's column naming for callers serializing rows.
func (e *Engine) Schema() Schema {
	return e.schema
}

// Normalize validates and parses the raw sheet table (header row included)
// into ledger entries. Fully-empty rows are dropped; quantity cells are
// coerced to numbers and date cells parsed under the primary layout with one
// fallback. Malformed cells follow the engine's coercion policy: lenient
// zero-fills quantities and drops undateable rows, strict fails the table.
func (e *Engine) Normalize(raw [][]interface{}) ([]models.LedgerEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	cols := columns(raw[0])
	var missing []string
	for _, name := range e.schema.required() {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSchema, strings.Join(missing, ", "))
	}

	entries := make([]models.LedgerEntry, 0, len(raw)-1)
	for i, row := range raw[1:] {
		if emptyRow(row) {
			continue
		}

		date, err := parseDate(cellString(row, cols[e.schema.Date]), e.loc)
		if err != nil {
			if e.policy == Strict {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
			e.logger.Debug("dropping ledger row with unparseable date",
				zap.Int("row", i+2), zap.Error(err))
			continue
		}

		qtyPrimary, err := e.coerceQuantity(row, cols[e.schema.QtyPrimary], i+2)
		if err != nil {
			return nil, err
		}
		qtySecondary, err := e.coerceQuantity(row, cols[e.schema.QtySecondary], i+2)
		if err != nil {
			return nil, err
		}

		action, err := models.ParseAction(cellString(row, cols[e.schema.Action]))
		if err != nil {
			if e.policy == Strict {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
			e.logger.Debug("dropping ledger row with unknown action",
				zap.Int("row", i+2), zap.Error(err))
			continue
		}

		entries = append(entries, models.LedgerEntry{
			Date:         date,
			Product:      cellString(row, cols[e.schema.Product]),
			Size:         cellString(row, cols[e.schema.Size]),
			QtyPrimary:   qtyPrimary,
			QtySecondary: qtySecondary,
			Action:       action,
			Category:     cellString(row, cols[e.schema.Category]),
		})
	}

	return entries, nil
}

// ComputeRunningTotals sorts the entries by date ascending (stable, original
// order breaking ties) and walks each (product, size) group once, keeping two
// independent signed accumulators. Add entries raise the balance, Remove
// entries lower it; both totals are rounded to 3 decimals after every update
// because Pcs/Meter quantities may be fractional metered lengths. The input
// slice is not modified. Running the result through again reproduces the
// same totals.
func (e *Engine) ComputeRunningTotals(entries []models.LedgerEntry) []models.LedgerEntry {
	if len(entries) == 0 {
		return entries
	}

	out := make([]models.LedgerEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	balances := make(map[models.GroupKey]models.Balance)
	for i := range out {
		bal := balances[out[i].Key()]
		sign := out[i].Action.Sign()
		bal.Primary = Round3(bal.Primary + sign*out[i].QtyPrimary)
		bal.Secondary = Round3(bal.Secondary + sign*out[i].QtySecondary)
		balances[out[i].Key()] = bal
		out[i].TotalPrimary = bal.Primary
		out[i].TotalSecondary = bal.Secondary
	}

	return out
}

// LatestBalances filters the computed ledger to one product and returns the
// chronologically last balance per size, the "current stock level" view.
func (e *Engine) LatestBalances(entries []models.LedgerEntry, product string) map[string]models.Balance {
	computed := e.ComputeRunningTotals(entries)

	out := make(map[string]models.Balance)
	for _, entry := range computed {
		if entry.Product != product {
			continue
		}
		out[entry.Size] = models.Balance{Primary: entry.TotalPrimary, Secondary: entry.TotalSecondary}
	}
	return out
}

// Rows serializes a computed ledger back into sheet rows, header included,
// ready for a full-table overwrite.
func (e *Engine) Rows(entries []models.LedgerEntry) [][]interface{} {
	rows := make([][]interface{}, 0, len(entries)+1)
	rows = append(rows, e.schema.Header())
	for _, entry := range entries {
		rows = append(rows, e.Row(entry))
	}
	return rows
}

// Row serializes a single entry in the schema's column order.
func (e *Engine) Row(entry models.LedgerEntry) []interface{} {
	return []interface{}{
		entry.Date.In(e.loc).Format(DateLayout),
		entry.Product,
		entry.Size,
		entry.QtyPrimary,
		entry.QtySecondary,
		string(entry.Action),
		entry.Category,
		entry.TotalPrimary,
		entry.TotalSecondary,
	}
}

func (e *Engine) coerceQuantity(row []interface{}, idx, rowNum int) (float64, error) {
	value, ok := coerceFloat(cellString(row, idx))
	if ok {
		return value, nil
	}
	if e.policy == Strict {
		return 0, fmt.Errorf("row %d column %d: %w", rowNum, idx+1, ErrCoercion)
	}
	return 0, nil
}

func cellString(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

func coerceFloat(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	// Hand-entered quantities sometimes carry thousands separators.
	value = strings.ReplaceAll(value, ",", "")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func emptyRow(row []interface{}) bool {
	for _, cell := range row {
		if cell == nil {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(cell)) != "" {
			return false
		}
	}
	return true
}

// Round3 rounds to 3 decimals, the precision every stored balance carries.
// Both writes of a mutation must round the same way or the snapshot and the
// ledger drift apart on fractional quantities.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
