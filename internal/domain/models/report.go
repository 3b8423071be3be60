package models

import "time"

// StockReport is the nightly per-category totals snapshot archived to MongoDB.
type StockReport struct {
	Date       time.Time        `bson:"date" json:"date"`
	Categories []CategoryTotals `bson:"categories" json:"categories"`
	CreatedAt  time.Time        `bson:"created_at" json:"created_at"`
}

// CategoryTotals aggregates one category sheet's snapshot quantities.
type CategoryTotals struct {
	Category       string  `bson:"category" json:"category"`
	Items          int     `bson:"items" json:"items"`
	TotalPrimary   float64 `bson:"total_pcs_meter" json:"total_pcs_meter"`
	TotalSecondary float64 `bson:"total_box_roll" json:"total_box_roll"`
}

// SizeTotals is one size's latest ledger balance for a product.
type SizeTotals struct {
	Size    string  `bson:"size" json:"size"`
	Balance Balance `bson:"balance" json:"balance"`
}

// DriftRecord reports one snapshot row whose quantities diverged from the
// ledger's latest balance for the same (product, size) group.
type DriftRecord struct {
	Category      string  `json:"category"`
	Product       string  `json:"product"`
	Size          string  `json:"size"`
	Snapshot      Balance `json:"snapshot"`
	LedgerBalance Balance `json:"ledger_balance"`
}
