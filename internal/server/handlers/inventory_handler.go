package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hjmsindangan/stockbook/internal/domain/models"
	"github.com/hjmsindangan/stockbook/internal/inventory"
	"github.com/hjmsindangan/stockbook/internal/ledger"
	"github.com/hjmsindangan/stockbook/internal/service/reporting"
)

// InventoryHandler exposes the category, ledger and adjustment operations
// over HTTP.
type InventoryHandler struct {
	inv    *inventory.Service
	views  *reporting.Service
	schema ledger.Schema
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(inv *inventory.Service, views *reporting.Service, schema ledger.Schema, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{inv: inv, views: views, schema: schema, logger: logger}
}

// ListCategories returns the configured category sheet names.
func (h *InventoryHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.inv.Categories()})
}

// GetCategory renders one category snapshot, optionally filtered by product
// and size, as JSON or CSV.
func (h *InventoryHandler) GetCategory(c *gin.Context) {
	category := c.Param("name")
	items, err := h.views.CategoryView(c.Request.Context(), category, c.Query("product"), c.Query("size"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if c.Query("format") == "csv" {
		data, err := reporting.CategoryCSV(items)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+category+`.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category, "items": items})
}

// ApplyAdjustment performs one Add/Remove mutation against a category sheet.
func (h *InventoryHandler) ApplyAdjustment(c *gin.Context) {
	var adj models.Adjustment
	if err := c.ShouldBindJSON(&adj); err != nil {
		h.logger.Warn("invalid adjustment payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.inv.ApplyAdjustment(c.Request.Context(), c.Param("name"), adj)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLedger renders the computed RECORDS ledger, optionally filtered by
// product and category, as JSON or CSV.
func (h *InventoryHandler) GetLedger(c *gin.Context) {
	entries, err := h.views.LedgerView(c.Request.Context(), c.Query("product"), c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if c.Query("format") == "csv" {
		data, err := reporting.LedgerCSV(h.schema, entries)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="records.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GetSummary renders the current stock level per size for one product,
// derived from the ledger.
func (h *InventoryHandler) GetSummary(c *gin.Context) {
	product := c.Query("product")
	if product == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product query parameter is required"})
		return
	}

	summary, err := h.views.StockSummary(c.Request.Context(), product)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product, "sizes": summary})
}

// RebuildLedger recomputes every running total and rewrites the RECORDS
// sheet.
func (h *InventoryHandler) RebuildLedger(c *gin.Context) {
	count, err := h.inv.RebuildLedger(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": count})
}

// Refresh clears the read cache so the next reads hit the spreadsheet.
func (h *InventoryHandler) Refresh(c *gin.Context) {
	h.inv.Refresh()
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

// GetRecentReports returns the newest archived daily stock reports.
func (h *InventoryHandler) GetRecentReports(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "7"), 10, 64)

	reports, err := h.views.RecentReports(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetDrift reports snapshot rows that diverged from the ledger.
func (h *InventoryHandler) GetDrift(c *gin.Context) {
	drift, err := h.views.DriftReport(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drift": drift})
}

func (h *InventoryHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inventory.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrNotFound), errors.Is(err, inventory.ErrUnknownCategory):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrSchema), errors.Is(err, ledger.ErrDateParse), errors.Is(err, ledger.ErrCoercion):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, reporting.ErrNoArchive):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("store operation failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
