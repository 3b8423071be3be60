package reporting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hjmsindangan/stockbook/internal/domain/models"
)

// InventoryReader is the read surface of the inventory service the reports
// are built from.
type InventoryReader interface {
	Categories() []string
	LoadCategory(ctx context.Context, category string) ([]models.StockItem, error)
	LoadLedger(ctx context.Context) ([]models.LedgerEntry, error)
	LatestBalances(ctx context.Context, product string) (map[string]models.Balance, error)
}

// Archive persists generated stock reports and serves them back for the
// history view.
type Archive interface {
	SaveStockReport(ctx context.Context, report models.StockReport) error
	RecentStockReports(ctx context.Context, limit int64) ([]models.StockReport, error)
}

// Service renders the category, ledger and summary views and produces the
// scheduled reports.
type Service struct {
	inv     InventoryReader
	archive Archive
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new reporting service instance. The archive may be nil
// when report persistence is disabled.
func NewService(inv InventoryReader, archive Archive, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{inv: inv, archive: archive, logger: logger, now: time.Now}
}

// CategoryView returns the category snapshot filtered by optional product and
// size. Empty filters match everything.
func (s *Service) CategoryView(ctx context.Context, category, product, size string) ([]models.StockItem, error) {
	items, err := s.inv.LoadCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.StockItem, 0, len(items))
	for _, item := range items {
		if product != "" && item.Product != product {
			continue
		}
		if size != "" && item.Specification != size {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

// LedgerView returns the computed ledger filtered by optional product and
// category, ordered by date ascending.
func (s *Service) LedgerView(ctx context.Context, product, category string) ([]models.LedgerEntry, error) {
	entries, err := s.inv.LoadLedger(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if product != "" && entry.Product != product {
			continue
		}
		if category != "" && entry.Category != category {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}

// StockSummary returns the current stock level per size for one product,
// derived purely from the ledger, sorted by size for stable rendering.
func (s *Service) StockSummary(ctx context.Context, product string) ([]models.SizeTotals, error) {
	balances, err := s.inv.LatestBalances(ctx, product)
	if err != nil {
		return nil, err
	}

	out := make([]models.SizeTotals, 0, len(balances))
	for size, bal := range balances {
		out = append(out, models.SizeTotals{Size: size, Balance: bal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Size < out[j].Size })
	return out, nil
}

// DailyStockReport aggregates every category sheet into per-category totals
// and archives the result when an archive is configured.
func (s *Service) DailyStockReport(ctx context.Context) (models.StockReport, error) {
	report := models.StockReport{
		Date:      s.now().Truncate(24 * time.Hour),
		CreatedAt: s.now(),
	}

	for _, category := range s.inv.Categories() {
		items, err := s.inv.LoadCategory(ctx, category)
		if err != nil {
			return models.StockReport{}, fmt.Errorf("report category %s: %w", category, err)
		}

		totals := models.CategoryTotals{Category: category, Items: len(items)}
		for _, item := range items {
			totals.TotalPrimary += item.QtyPrimary
			totals.TotalSecondary += item.QtySecondary
		}
		report.Categories = append(report.Categories, totals)
	}

	if s.archive != nil {
		if err := s.archive.SaveStockReport(ctx, report); err != nil {
			return models.StockReport{}, fmt.Errorf("archive stock report: %w", err)
		}
		s.logger.Info("stock report archived", zap.Time("date", report.Date), zap.Int("categories", len(report.Categories)))
	}

	return report, nil
}

// RecentReports returns the newest archived stock reports. Errors with no
// archive configured.
func (s *Service) RecentReports(ctx context.Context, limit int64) ([]models.StockReport, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	if limit <= 0 {
		limit = 7
	}
	return s.archive.RecentStockReports(ctx, limit)
}

// DriftReport compares every snapshot row against the ledger's latest balance
// for the same (product, size) group. The snapshot is authoritative for
// day-to-day operation; drift means the two writes of some past mutation did
// not both land. Divergence is reported, never auto-healed.
func (s *Service) DriftReport(ctx context.Context) ([]models.DriftRecord, error) {
	entries, err := s.inv.LoadLedger(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[models.GroupKey]models.Balance)
	for _, entry := range entries {
		latest[entry.Key()] = models.Balance{Primary: entry.TotalPrimary, Secondary: entry.TotalSecondary}
	}

	var drift []models.DriftRecord
	for _, category := range s.inv.Categories() {
		items, err := s.inv.LoadCategory(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("drift check %s: %w", category, err)
		}

		for _, item := range items {
			bal, ok := latest[models.GroupKey{Product: item.Product, Size: item.Specification}]
			if !ok {
				// No ledger history for the group yet; nothing to compare.
				continue
			}
			if closeEnough(item.QtyPrimary, bal.Primary) && closeEnough(item.QtySecondary, bal.Secondary) {
				continue
			}
			drift = append(drift, models.DriftRecord{
				Category:      category,
				Product:       item.Product,
				Size:          item.Specification,
				Snapshot:      models.Balance{Primary: item.QtyPrimary, Secondary: item.QtySecondary},
				LedgerBalance: bal,
			})
		}
	}

	if len(drift) > 0 {
		s.logger.Warn("snapshot and ledger have diverged", zap.Int("rows", len(drift)))
	}
	return drift, nil
}

// LowStock scans the ledger's latest balances and returns groups at or below
// the threshold in the primary dimension.
func (s *Service) LowStock(ctx context.Context, threshold float64) ([]models.DriftRecord, error) {
	entries, err := s.inv.LoadLedger(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[models.GroupKey]models.LedgerEntry)
	for _, entry := range entries {
		latest[entry.Key()] = entry
	}

	var low []models.DriftRecord
	for key, entry := range latest {
		if entry.TotalPrimary > threshold {
			continue
		}
		low = append(low, models.DriftRecord{
			Category:      entry.Category,
			Product:       key.Product,
			Size:          key.Size,
			LedgerBalance: models.Balance{Primary: entry.TotalPrimary, Secondary: entry.TotalSecondary},
		})
	}

	sort.Slice(low, func(i, j int) bool {
		if low[i].Product != low[j].Product {
			return low[i].Product < low[j].Product
		}
		return low[i].Size < low[j].Size
	})
	return low, nil
}

// Balances are rounded to 3 decimals by the engine; compare within half a
// rounding step.
func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 0.0005
}
