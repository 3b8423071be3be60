package models

// StockItem is one snapshot row of a category sheet: the authoritative
// current quantity for a (product, specification) pair. The pair is assumed
// unique within a sheet; duplicates are a data-integrity violation reported
// by the inventory service.
type StockItem struct {
	Product       string  `json:"product"`
	Specification string  `json:"specification"`
	QtyPrimary    float64 `json:"quantity_pcs_meter"`
	QtySecondary  float64 `json:"quantity_box_roll"`
}

// Adjustment captures a requested stock mutation before validation.
type Adjustment struct {
	Product      string  `json:"product" binding:"required"`
	Size         string  `json:"size" binding:"required"`
	Action       string  `json:"action" binding:"required"`
	DeltaPrimary float64 `json:"quantity_pcs_meter"`
	DeltaSecond  float64 `json:"quantity_box_roll"`
}

// AdjustmentResult is returned to the caller after a successful mutation.
type AdjustmentResult struct {
	Product       string  `json:"product"`
	Size          string  `json:"size"`
	Category      string  `json:"category"`
	Action        Action  `json:"action"`
	NewQuantities Balance `json:"new_quantities"`
	Message       string  `json:"message"`
}
