package ledger

import (
	"testing"
	"time"

	"github.com/hjmsindangan/stockbook/internal/domain/models"
)

func TestIndexMatchesFullRecompute(t *testing.T) {
	e := testEngine(Lenient)

	history := []models.LedgerEntry{
		entry(day(1), "Nails", "2in", 10, models.ActionAdd),
		entry(day(2), "Nails", "2in", 4, models.ActionRemove),
		entry(day(1), "Wire", "12ga", 30.5, models.ActionAdd),
	}
	computed := e.ComputeRunningTotals(history)

	ix := NewIndex()
	ix.Prime(computed)

	next := entry(day(3), "Nails", "2in", 2, models.ActionAdd)

	applied, ok := ix.Apply(next)
	if !ok {
		t.Fatal("Apply refused an in-order entry")
	}

	full := e.ComputeRunningTotals(append(history, next))
	last := full[len(full)-1]
	if applied.TotalPrimary != last.TotalPrimary || applied.TotalSecondary != last.TotalSecondary {
		t.Errorf("index totals %v/%v, full recompute %v/%v",
			applied.TotalPrimary, applied.TotalSecondary, last.TotalPrimary, last.TotalSecondary)
	}
}

func TestIndexRejectsOutOfOrderEntry(t *testing.T) {
	e := testEngine(Lenient)

	computed := e.ComputeRunningTotals([]models.LedgerEntry{
		entry(day(5), "Nails", "2in", 10, models.ActionAdd),
	})

	ix := NewIndex()
	ix.Prime(computed)

	backdated := entry(day(2), "Nails", "2in", 3, models.ActionAdd)
	if _, ok := ix.Apply(backdated); ok {
		t.Fatal("Apply accepted a backdated entry; caller must recompute instead")
	}
}

func TestIndexUnprimedRefusesApply(t *testing.T) {
	ix := NewIndex()

	if _, ok := ix.Apply(entry(day(1), "Nails", "2in", 1, models.ActionAdd)); ok {
		t.Fatal("unprimed index must refuse Apply")
	}
}

func TestIndexNewGroupStartsFromZero(t *testing.T) {
	ix := NewIndex()
	ix.Prime(nil)

	applied, ok := ix.Apply(entry(day(1), "Rope", "10mm", 5, models.ActionAdd))
	if !ok {
		t.Fatal("Apply refused the first entry of a new group")
	}
	if applied.TotalPrimary != 5 {
		t.Errorf("TotalPrimary = %v, want 5", applied.TotalPrimary)
	}
}

func TestIndexDateTieAccepted(t *testing.T) {
	ix := NewIndex()
	ix.Prime(nil)

	tie := day(4)
	if _, ok := ix.Apply(entry(tie, "Nails", "2in", 10, models.ActionAdd)); !ok {
		t.Fatal("first entry refused")
	}
	applied, ok := ix.Apply(entry(tie, "Nails", "2in", 4, models.ActionRemove))
	if !ok {
		t.Fatal("same-date entry refused; ties keep append order")
	}
	if applied.TotalPrimary != 6 {
		t.Errorf("TotalPrimary = %v, want 6", applied.TotalPrimary)
	}
}

func TestIndexInvalidate(t *testing.T) {
	ix := NewIndex()
	ix.Prime([]models.LedgerEntry{
		{Date: day(1), Product: "Nails", Size: "2in", TotalPrimary: 10},
	})

	ix.Invalidate()

	if ix.Primed() {
		t.Fatal("index still primed after Invalidate")
	}
	if _, ok := ix.Balance(models.GroupKey{Product: "Nails", Size: "2in"}); ok {
		t.Fatal("balance survived Invalidate")
	}
}

func TestIndexBalanceTracksLastSeen(t *testing.T) {
	ix := NewIndex()
	ix.Prime(nil)

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, ok := ix.Apply(entry(base.Add(time.Duration(i)*time.Hour), "Wire", "12ga", 1.5, models.ActionAdd)); !ok {
			t.Fatalf("Apply %d refused", i)
		}
	}

	bal, ok := ix.Balance(models.GroupKey{Product: "Wire", Size: "12ga"})
	if !ok || bal.Primary != 4.5 {
		t.Errorf("balance = %v ok=%v, want 4.5", bal.Primary, ok)
	}
}
