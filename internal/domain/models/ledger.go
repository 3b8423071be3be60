package models

import "time"

// LedgerEntry is one immutable row of the RECORDS sheet. Entries are appended
// on every stock mutation and never updated or deleted; the Total fields are
// derived from the entry's (Product, Size) group history.
type LedgerEntry struct {
	Date           time.Time `json:"date"`
	Product        string    `json:"product"`
	Size           string    `json:"size"`
	QtyPrimary     float64   `json:"quantity_pcs_meter"`
	QtySecondary   float64   `json:"quantity_box_roll"`
	Action         Action    `json:"action"`
	Category       string    `json:"category"`
	TotalPrimary   float64   `json:"total_pcs_meter"`
	TotalSecondary float64   `json:"total_box_roll"`
}

// GroupKey identifies the ledger group a balance is computed over. Balances
// net adds against removes, so the key is date-independent and action-independent.
type GroupKey struct {
	Product string
	Size    string
}

// Key returns the entry's group identity.
func (e LedgerEntry) Key() GroupKey {
	return GroupKey{Product: e.Product, Size: e.Size}
}

// Balance holds the running stock level of one (product, size) group across
// both unit dimensions.
type Balance struct {
	Primary   float64 `json:"pcs_meter"`
	Secondary float64 `json:"box_roll"`
}
