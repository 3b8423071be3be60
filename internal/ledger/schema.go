package ledger

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the format mutations are written with, local to the
	// configured timezone (Asia/Manila by default).
	DateLayout = "2006-01-02 03:04 PM"
	// DateLayoutFallback covers rows entered by hand without a time of day.
	DateLayoutFallback = "2006-01-02"
)

// CoercionPolicy controls how malformed quantity and date cells are handled
// during normalization.
type CoercionPolicy string

const (
	// Lenient substitutes 0 for junk quantities and drops rows whose date
	// cannot be parsed. This mirrors how the sheets have historically been
	// maintained by hand.
	Lenient CoercionPolicy = "lenient"
	// Strict rejects the whole table on the first malformed cell.
	Strict CoercionPolicy = "strict"
)

// ParsePolicy converts configuration text into a CoercionPolicy.
func ParsePolicy(value string) (CoercionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(Lenient):
		return Lenient, nil
	case string(Strict):
		return Strict, nil
	default:
		return "", fmt.Errorf("unknown coercion policy %q", value)
	}
}

// Schema names the RECORDS sheet columns. Header names drifted between
// sheet revisions, so they are configurable rather than hard-coded.
type Schema struct {
	Date           string
	Product        string
	Size           string
	QtyPrimary     string
	QtySecondary   string
	Action         string
	Category       string
	TotalPrimary   string
	TotalSecondary string
}

// DefaultSchema matches the current RECORDS sheet headers.
func DefaultSchema() Schema {
	return Schema{
		Date:           "Date",
		Product:        "Product",
		Size:           "Size",
		QtyPrimary:     "Quantity(Pcs/Meter)",
		QtySecondary:   "Quantity(Box/Roll)",
		Action:         "Action",
		Category:       "Category",
		TotalPrimary:   "Total(Pcs/Meter)",
		TotalSecondary: "Total(Box/Roll)",
	}
}

// Header returns the full column ordering used when the ledger is written
// back to the sheet.
func (s Schema) Header() []interface{} {
	return []interface{}{s.Date, s.Product, s.Size, s.QtyPrimary, s.QtySecondary, s.Action, s.Category, s.TotalPrimary, s.TotalSecondary}
}

// required lists the columns Normalize refuses to proceed without. The Total
// columns are derived and therefore optional on input.
func (s Schema) required() []string {
	return []string{s.Date, s.Product, s.Size, s.QtyPrimary, s.QtySecondary, s.Action, s.Category}
}

// columns maps header names to their cell index, skipping placeholder
// columns the sheet UI leaves behind ("Unnamed: 3" and the like).
func columns(header []interface{}) map[string]int {
	cols := make(map[string]int, len(header))
	for i, cell := range header {
		if cell == nil {
			continue
		}
		name := strings.TrimSpace(fmt.Sprint(cell))
		if name == "" || strings.HasPrefix(name, "Unnamed") {
			continue
		}
		if _, dup := cols[name]; dup {
			continue
		}
		cols[name] = i
	}
	return cols
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date: %w", ErrDateParse)
	}
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(DateLayoutFallback, value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date %q: %w", value, ErrDateParse)
}
