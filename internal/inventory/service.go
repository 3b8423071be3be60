package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hjmsindangan/stockbook/internal/domain/models"
	"github.com/hjmsindangan/stockbook/internal/ledger"
	"github.com/hjmsindangan/stockbook/internal/repository/sheets"
)

// Store is the sheet access the inventory service needs: the backend
// operations plus cache invalidation so a mutation's follow-up reads see the
// write.
type Store interface {
	sheets.Store
	Invalidate(sheet string)
	InvalidateAll()
}

// Service is the store adapter: it keeps the per-category snapshot sheets and
// the RECORDS ledger in step. A mutation is two independent writes (snapshot,
// then ledger) with no transaction between them; if the process dies in the
// gap the stores diverge until the drift report catches it.
type Service struct {
	store      Store
	engine     *ledger.Engine
	index      *ledger.Index
	records    string
	categories []string
	loc        *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the inventory service.
func NewService(store Store, engine *ledger.Engine, records string, categories []string, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:      store,
		engine:     engine,
		index:      ledger.NewIndex(),
		records:    records,
		categories: categories,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}
}

// Categories returns the configured category sheet names.
func (s *Service) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// LoadCategory reads and parses one category snapshot sheet.
func (s *Service) LoadCategory(ctx context.Context, category string) ([]models.StockItem, error) {
	if !s.knownCategory(category) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	raw, err := s.store.Read(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("load category %s: %w", category, err)
	}
	return parseSnapshot(raw)
}

// CurrentQuantity locates the unique snapshot row for (product, size). Zero
// matches is ErrNotFound. More than one match is a data-integrity violation
// upstream; it is logged and the first row wins, deterministically.
func (s *Service) CurrentQuantity(ctx context.Context, category, product, size string) (models.Balance, error) {
	items, err := s.LoadCategory(ctx, category)
	if err != nil {
		return models.Balance{}, err
	}

	item, _, err := s.findItem(items, category, product, size)
	if err != nil {
		return models.Balance{}, err
	}
	return models.Balance{Primary: item.QtyPrimary, Secondary: item.QtySecondary}, nil
}

// ApplyAdjustment validates and applies one Add/Remove mutation: rewrite the
// snapshot row, then append the ledger entry carrying the same delta. Removing
// down to exactly zero is allowed; removing past the current quantity is
// rejected before anything is written.
func (s *Service) ApplyAdjustment(ctx context.Context, category string, adj models.Adjustment) (models.AdjustmentResult, error) {
	action, err := models.ParseAction(adj.Action)
	if err != nil {
		return models.AdjustmentResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if adj.DeltaPrimary < 0 || adj.DeltaSecond < 0 {
		return models.AdjustmentResult{}, fmt.Errorf("%w: quantities must not be negative", ErrValidation)
	}
	if adj.DeltaPrimary == 0 && adj.DeltaSecond == 0 {
		return models.AdjustmentResult{}, fmt.Errorf("%w: enter a quantity greater than 0", ErrValidation)
	}

	items, err := s.LoadCategory(ctx, category)
	if err != nil {
		return models.AdjustmentResult{}, err
	}

	item, idx, err := s.findItem(items, category, adj.Product, adj.Size)
	if err != nil {
		return models.AdjustmentResult{}, err
	}

	if action == models.ActionRemove {
		if adj.DeltaPrimary > item.QtyPrimary {
			return models.AdjustmentResult{}, fmt.Errorf("%w: cannot remove %s pcs/meter, only %s in stock",
				ErrValidation, formatQty(adj.DeltaPrimary), formatQty(item.QtyPrimary))
		}
		if adj.DeltaSecond > item.QtySecondary {
			return models.AdjustmentResult{}, fmt.Errorf("%w: cannot remove %s box/roll, only %s in stock",
				ErrValidation, formatQty(adj.DeltaSecond), formatQty(item.QtySecondary))
		}
	}

	entry := models.LedgerEntry{
		Date:         s.now().In(s.loc),
		Product:      adj.Product,
		Size:         adj.Size,
		QtyPrimary:   adj.DeltaPrimary,
		QtySecondary: adj.DeltaSecond,
		Action:       action,
		Category:     category,
	}

	// Pre-flight the ledger append before touching the snapshot so a
	// malformed RECORDS sheet aborts the mutation with nothing written.
	commitLedger, err := s.planLedgerAppend(ctx, entry)
	if err != nil {
		return models.AdjustmentResult{}, err
	}

	// Round exactly like the ledger's running totals do, so both writes of
	// this mutation land on the same balance for fractional deltas.
	sign := action.Sign()
	items[idx].QtyPrimary = ledger.Round3(item.QtyPrimary + sign*adj.DeltaPrimary)
	items[idx].QtySecondary = ledger.Round3(item.QtySecondary + sign*adj.DeltaSecond)

	if err := s.store.Overwrite(ctx, category, snapshotRows(items)); err != nil {
		return models.AdjustmentResult{}, fmt.Errorf("write category %s: %w", category, err)
	}

	// The snapshot write above is already visible; a failure from here on
	// leaves the two sheets diverged until the next rebuild or drift check.
	if err := commitLedger(ctx); err != nil {
		s.logger.Error("snapshot updated but ledger append failed, sheets have diverged",
			zap.String("category", category), zap.String("product", adj.Product),
			zap.String("size", adj.Size), zap.Error(err))
		return models.AdjustmentResult{}, fmt.Errorf("record ledger entry: %w", err)
	}

	newBal := models.Balance{Primary: items[idx].QtyPrimary, Secondary: items[idx].QtySecondary}
	verb := "Added"
	prep := "to"
	if action == models.ActionRemove {
		verb = "Removed"
		prep = "from"
	}
	message := fmt.Sprintf("%s %s pcs/meter and %s box/roll %s %s (Size: %s). New quantity: %s pcs/meter, %s box/roll",
		verb, formatQty(adj.DeltaPrimary), formatQty(adj.DeltaSecond), prep, adj.Product, adj.Size,
		formatQty(newBal.Primary), formatQty(newBal.Secondary))

	s.logger.Info("inventory adjusted",
		zap.String("category", category), zap.String("product", adj.Product),
		zap.String("size", adj.Size), zap.String("action", string(action)),
		zap.Float64("delta_pcs_meter", adj.DeltaPrimary), zap.Float64("delta_box_roll", adj.DeltaSecond))

	return models.AdjustmentResult{
		Product:       adj.Product,
		Size:          adj.Size,
		Category:      category,
		Action:        action,
		NewQuantities: newBal,
		Message:       message,
	}, nil
}

// LoadLedger reads the RECORDS sheet and returns the normalized ledger with
// running totals computed.
func (s *Service) LoadLedger(ctx context.Context) ([]models.LedgerEntry, error) {
	raw, err := s.store.Read(ctx, s.records)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	entries, err := s.engine.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return s.engine.ComputeRunningTotals(entries), nil
}

// LatestBalances returns the chronologically last ledger balance per size for
// one product.
func (s *Service) LatestBalances(ctx context.Context, product string) (map[string]models.Balance, error) {
	entries, err := s.LoadLedger(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.LatestBalances(entries, product), nil
}

// RebuildLedger recomputes every running total from scratch and rewrites the
// whole RECORDS sheet, then re-primes the balance index. This is the
// compatibility path for ledgers edited out-of-band or appended out of order.
func (s *Service) RebuildLedger(ctx context.Context) (int, error) {
	computed, err := s.LoadLedger(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.store.Overwrite(ctx, s.records, s.engine.Rows(computed)); err != nil {
		return 0, fmt.Errorf("rewrite ledger: %w", err)
	}

	s.index.Prime(computed)
	s.logger.Info("ledger rebuilt", zap.Int("entries", len(computed)))
	return len(computed), nil
}

// Refresh clears the read cache and drops the balance index, the manual
// recovery path for observing out-of-band sheet edits.
func (s *Service) Refresh() {
	s.store.InvalidateAll()
	s.index.Invalidate()
	s.logger.Info("caches cleared")
}

// planLedgerAppend prepares the RECORDS write for one mutation and returns
// the commit step. With a primed balance index the commit appends a single
// row with totals from the cached group balance; otherwise the existing
// ledger is read and normalized up front (surfacing schema problems before
// the caller writes anything) and the commit recomputes and rewrites the
// whole table, priming the index for next time.
func (s *Service) planLedgerAppend(ctx context.Context, entry models.LedgerEntry) (func(context.Context) error, error) {
	if s.index.Primed() {
		return func(ctx context.Context) error {
			totalled, ok := s.index.Apply(entry)
			if !ok {
				// Index went stale between plan and commit; fall back.
				return s.recomputeAndRewrite(ctx, entry)
			}
			if err := s.store.Append(ctx, s.records, s.engine.Row(totalled)); err != nil {
				s.index.Invalidate()
				return err
			}
			return nil
		}, nil
	}

	raw, err := s.store.Read(ctx, s.records)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	entries, err := s.engine.Normalize(raw)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		computed := s.engine.ComputeRunningTotals(append(entries, entry))
		if err := s.store.Overwrite(ctx, s.records, s.engine.Rows(computed)); err != nil {
			return fmt.Errorf("rewrite ledger: %w", err)
		}
		s.index.Prime(computed)
		return nil
	}, nil
}

func (s *Service) recomputeAndRewrite(ctx context.Context, entry models.LedgerEntry) error {
	raw, err := s.store.Read(ctx, s.records)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	entries, err := s.engine.Normalize(raw)
	if err != nil {
		return err
	}

	computed := s.engine.ComputeRunningTotals(append(entries, entry))
	if err := s.store.Overwrite(ctx, s.records, s.engine.Rows(computed)); err != nil {
		return fmt.Errorf("rewrite ledger: %w", err)
	}
	s.index.Prime(computed)
	return nil
}

func (s *Service) findItem(items []models.StockItem, category, product, size string) (models.StockItem, int, error) {
	matches := make([]int, 0, 1)
	for i, item := range items {
		if item.Product == product && item.Specification == size {
			matches = append(matches, i)
		}
	}

	switch {
	case len(matches) == 0:
		return models.StockItem{}, -1, fmt.Errorf("%w: %s / %s in %s", ErrNotFound, product, size, category)
	case len(matches) > 1:
		s.logger.Warn("duplicate stock rows for product and size, using first match",
			zap.String("category", category), zap.String("product", product),
			zap.String("size", size), zap.Int("matches", len(matches)))
	}

	return items[matches[0]], matches[0], nil
}

func (s *Service) knownCategory(category string) bool {
	for _, name := range s.categories {
		if name == category {
			return true
		}
	}
	return false
}
