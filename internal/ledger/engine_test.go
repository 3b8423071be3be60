package ledger

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hjmsindangan/stockbook/internal/domain/models"
)

func testEngine(policy CoercionPolicy) *Engine {
	return NewEngine(DefaultSchema(), policy, time.UTC, zap.NewNop())
}

func day(n int) time.Time {
	return time.Date(2024, 3, n, 9, 0, 0, 0, time.UTC)
}

func entry(d time.Time, product, size string, qty float64, action models.Action) models.LedgerEntry {
	return models.LedgerEntry{
		Date:       d,
		Product:    product,
		Size:       size,
		QtyPrimary: qty,
		Action:     action,
		Category:   "HARDWARE",
	}
}

func TestComputeRunningTotalsSingleGroup(t *testing.T) {
	e := testEngine(Lenient)

	entries := []models.LedgerEntry{
		entry(day(1), "Nails", "2in", 10, models.ActionAdd),
		entry(day(2), "Nails", "2in", 4, models.ActionRemove),
		entry(day(3), "Nails", "2in", 2, models.ActionAdd),
	}

	got := e.ComputeRunningTotals(entries)

	want := []float64{10, 6, 8}
	for i, total := range want {
		if got[i].TotalPrimary != total {
			t.Errorf("entry %d: TotalPrimary = %v, want %v", i, got[i].TotalPrimary, total)
		}
	}
}

func TestComputeRunningTotalsRecurrence(t *testing.T) {
	e := testEngine(Lenient)

	entries := []models.LedgerEntry{
		entry(day(1), "Wire", "12ga", 30, models.ActionAdd),
		entry(day(2), "Wire", "12ga", 12.5, models.ActionRemove),
		entry(day(3), "Wire", "12ga", 7.25, models.ActionAdd),
		entry(day(4), "Wire", "12ga", 3, models.ActionRemove),
	}

	got := e.ComputeRunningTotals(entries)

	prev := 0.0
	for i, g := range got {
		want := prev + g.Action.Sign()*g.QtyPrimary
		if g.TotalPrimary != want {
			t.Errorf("entry %d: TotalPrimary = %v, want %v", i, g.TotalPrimary, want)
		}
		prev = g.TotalPrimary
	}
}

func TestComputeRunningTotalsTwoDimensions(t *testing.T) {
	e := testEngine(Lenient)

	entries := []models.LedgerEntry{
		{Date: day(1), Product: "Rope", Size: "10mm", QtyPrimary: 5, QtySecondary: 1, Action: models.ActionAdd},
		{Date: day(2), Product: "Rope", Size: "10mm", QtyPrimary: 2, QtySecondary: 0, Action: models.ActionRemove},
	}

	got := e.ComputeRunningTotals(entries)

	if got[0].TotalPrimary != 5 || got[0].TotalSecondary != 1 {
		t.Errorf("first entry totals = %v/%v, want 5/1", got[0].TotalPrimary, got[0].TotalSecondary)
	}
	if got[1].TotalPrimary != 3 || got[1].TotalSecondary != 1 {
		t.Errorf("second entry totals = %v/%v, want 3/1", got[1].TotalPrimary, got[1].TotalSecondary)
	}
}

func TestComputeRunningTotalsGroupsAreIndependent(t *testing.T) {
	e := testEngine(Lenient)

	entries := []models.LedgerEntry{
		entry(day(1), "Nails", "2in", 10, models.ActionAdd),
		entry(day(1), "Nails", "3in", 7, models.ActionAdd),
		entry(day(2), "Screws", "2in", 4, models.ActionAdd),
		entry(day(3), "Nails", "2in", 5, models.ActionRemove),
	}

	got := e.ComputeRunningTotals(entries)

	byKey := make(map[models.GroupKey]float64)
	for _, g := range got {
		byKey[g.Key()] = g.TotalPrimary
	}

	if byKey[models.GroupKey{Product: "Nails", Size: "2in"}] != 5 {
		t.Errorf("Nails/2in final balance = %v, want 5", byKey[models.GroupKey{Product: "Nails", Size: "2in"}])
	}
	if byKey[models.GroupKey{Product: "Nails", Size: "3in"}] != 7 {
		t.Errorf("Nails/3in final balance = %v, want 7", byKey[models.GroupKey{Product: "Nails", Size: "3in"}])
	}
	if byKey[models.GroupKey{Product: "Screws", Size: "2in"}] != 4 {
		t.Errorf("Screws/2in final balance = %v, want 4", byKey[models.GroupKey{Product: "Screws", Size: "2in"}])
	}
}

func TestComputeRunningTotalsSortsByDate(t *testing.T) {
	e := testEngine(Lenient)

	entries := []models.LedgerEntry{
		entry(day(3), "Nails", "2in", 2, models.ActionAdd),
		entry(day(1), "Nails", "2in", 10, models.ActionAdd),
		entry(day(2), "Nails", "2in", 4, models.ActionRemove),
	}

	got := e.ComputeRunningTotals(entries)

	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date) {
			t.Fatalf("output not ordered by date at index %d", i)
		}
	}
	if got[2].TotalPrimary != 8 {
		t.Errorf("final balance = %v, want 8", got[2].TotalPrimary)
	}
}

func TestComputeRunningTotalsStableOnDateTies(t *testing.T) {
	e := testEngine(Lenient)

	tie := day(5)
	entries := []models.LedgerEntry{
		entry(tie, "Nails", "2in", 10, models.ActionAdd),
		entry(tie, "Nails", "2in", 4, models.ActionRemove),
	}

	got := e.ComputeRunningTotals(entries)

	if got[0].Action != models.ActionAdd || got[1].Action != models.ActionRemove {
		t.Fatal("date ties must keep original row order")
	}
	if got[0].TotalPrimary != 10 || got[1].TotalPrimary != 6 {
		t.Errorf("totals = %v, %v, want 10, 6", got[0].TotalPrimary, got[1].TotalPrimary)
	}
}

func TestComputeRunningTotalsIdempotent(t *testing.T) {
	e := testEngine(Lenient)

	entries := []models.LedgerEntry{
		entry(day(2), "Wire", "12ga", 3.125, models.ActionAdd),
		entry(day(1), "Wire", "12ga", 10, models.ActionAdd),
		entry(day(3), "Wire", "12ga", 2.5, models.ActionRemove),
	}

	once := e.ComputeRunningTotals(entries)
	twice := e.ComputeRunningTotals(once)

	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("entry %d changed on recompute: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestComputeRunningTotalsEmptyInput(t *testing.T) {
	e := testEngine(Lenient)

	if got := e.ComputeRunningTotals(nil); len(got) != 0 {
		t.Errorf("expected empty output, got %d entries", len(got))
	}
}

func TestComputeRunningTotalsRoundsToThreeDecimals(t *testing.T) {
	e := testEngine(Lenient)

	entries := []models.LedgerEntry{
		entry(day(1), "Cable", "2.5mm", 0.1, models.ActionAdd),
		entry(day(2), "Cable", "2.5mm", 0.2, models.ActionAdd),
	}

	got := e.ComputeRunningTotals(entries)

	if got[1].TotalPrimary != 0.3 {
		t.Errorf("TotalPrimary = %v, want exactly 0.3", got[1].TotalPrimary)
	}
}

func TestComputeRunningTotalsRemoveToZero(t *testing.T) {
	e := testEngine(Lenient)

	entries := []models.LedgerEntry{
		entry(day(1), "Nails", "2in", 10, models.ActionAdd),
		entry(day(2), "Nails", "2in", 10, models.ActionRemove),
	}

	got := e.ComputeRunningTotals(entries)

	if got[1].TotalPrimary != 0 {
		t.Errorf("balance after full removal = %v, want exactly 0", got[1].TotalPrimary)
	}
}

func rawHeader() []interface{} {
	s := DefaultSchema()
	return []interface{}{s.Date, s.Product, s.Size, s.QtyPrimary, s.QtySecondary, s.Action, s.Category}
}

func TestNormalizeParsesRows(t *testing.T) {
	e := testEngine(Lenient)

	raw := [][]interface{}{
		rawHeader(),
		{"2024-03-01 09:00 AM", "Nails", "2in", "10", "1", "Add", "HARDWARE"},
		{"2024-03-02", "Nails", "2in", "4.5", "0", "Remove", "HARDWARE"},
	}

	got, err := e.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].QtyPrimary != 10 || got[0].QtySecondary != 1 || got[0].Action != models.ActionAdd {
		t.Errorf("first entry parsed wrong: %+v", got[0])
	}
	if got[1].Date.Day() != 2 {
		t.Errorf("fallback date layout not applied: %v", got[1].Date)
	}
}

func TestNormalizeMissingColumnIsSchemaError(t *testing.T) {
	e := testEngine(Lenient)

	s := DefaultSchema()
	raw := [][]interface{}{
		{s.Date, s.Product, s.Size, s.QtyPrimary, s.QtySecondary, s.Category}, // no Action
		{"2024-03-01", "Nails", "2in", "10", "1", "HARDWARE"},
	}

	_, err := e.Normalize(raw)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}
}

func TestNormalizeDropsEmptyRowsAndUnnamedColumns(t *testing.T) {
	e := testEngine(Lenient)

	header := append(rawHeader(), "Unnamed: 7")
	raw := [][]interface{}{
		header,
		{"", "", "", "", "", "", ""},
		{"2024-03-01", "Nails", "2in", "10", "1", "Add", "HARDWARE", "junk"},
		{nil, nil, nil},
	}

	got, err := e.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
}

func TestNormalizeLenientCoercesJunkQuantityToZero(t *testing.T) {
	e := testEngine(Lenient)

	raw := [][]interface{}{
		rawHeader(),
		{"2024-03-01", "Nails", "2in", "n/a", "", "Add", "HARDWARE"},
	}

	got, err := e.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if got[0].QtyPrimary != 0 || got[0].QtySecondary != 0 {
		t.Errorf("junk quantities not zeroed: %+v", got[0])
	}
}

func TestNormalizeLenientDropsUndateableRow(t *testing.T) {
	e := testEngine(Lenient)

	raw := [][]interface{}{
		rawHeader(),
		{"not a date", "Nails", "2in", "10", "1", "Add", "HARDWARE"},
		{"2024-03-01", "Nails", "2in", "5", "0", "Add", "HARDWARE"},
	}

	got, err := e.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want the undateable row dropped", len(got))
	}
}

func TestNormalizeStrictRejectsUndateableRow(t *testing.T) {
	e := testEngine(Strict)

	raw := [][]interface{}{
		rawHeader(),
		{"not a date", "Nails", "2in", "10", "1", "Add", "HARDWARE"},
	}

	_, err := e.Normalize(raw)
	if !errors.Is(err, ErrDateParse) {
		t.Fatalf("err = %v, want ErrDateParse", err)
	}
}

func TestNormalizeStrictRejectsJunkQuantity(t *testing.T) {
	e := testEngine(Strict)

	raw := [][]interface{}{
		rawHeader(),
		{"2024-03-01", "Nails", "2in", "lots", "1", "Add", "HARDWARE"},
	}

	_, err := e.Normalize(raw)
	if !errors.Is(err, ErrCoercion) {
		t.Fatalf("err = %v, want ErrCoercion", err)
	}
}

func TestNormalizeEmptyTable(t *testing.T) {
	e := testEngine(Lenient)

	got, err := e.Normalize(nil)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
}

func TestLatestBalances(t *testing.T) {
	e := testEngine(Lenient)

	entries := []models.LedgerEntry{
		entry(day(1), "Nails", "2in", 10, models.ActionAdd),
		entry(day(2), "Nails", "2in", 4, models.ActionRemove),
		entry(day(1), "Nails", "3in", 7, models.ActionAdd),
		entry(day(3), "Screws", "2in", 9, models.ActionAdd),
	}

	got := e.LatestBalances(entries, "Nails")

	if len(got) != 2 {
		t.Fatalf("got %d sizes, want 2", len(got))
	}
	if got["2in"].Primary != 6 {
		t.Errorf("2in balance = %v, want 6", got["2in"].Primary)
	}
	if got["3in"].Primary != 7 {
		t.Errorf("3in balance = %v, want 7", got["3in"].Primary)
	}
}

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    CoercionPolicy
		wantErr bool
	}{
		{"", Lenient, false},
		{"lenient", Lenient, false},
		{"STRICT", Strict, false},
		{"whatever", "", true},
	}

	for _, tc := range cases {
		got, err := ParsePolicy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParsePolicy(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
