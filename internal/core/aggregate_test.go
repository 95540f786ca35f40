package core_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fakturabg/internal/core"
)

func occ(supplier, name string, price, qty float64, day int) core.ItemOccurrence {
	return core.ItemOccurrence{
		Supplier:    supplier,
		ItemName:    name,
		ItemKey:     core.NormalizeItemKey(name),
		UnitPrice:   decimal.NewFromFloat(price),
		Quantity:    decimal.NewFromFloat(qty),
		Unit:        "бр.",
		InvoiceDate: time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestAggregateItems_CaseFoldGrouping(t *testing.T) {
	occurrences := []core.ItemOccurrence{
		occ("Метро", "Олио", 3.20, 2, 1),
		occ("Метро", "олио", 3.20, 1, 2),
		occ("Билла", "ОЛИО", 3.40, 3, 3),
	}

	stats := core.AggregateItems(occurrences, nil, 0)

	if stats.Totals.GroupCount != 1 {
		t.Fatalf("expected one group for case variants, got %d", stats.Totals.GroupCount)
	}
	b := stats.TopByQuantity[0]
	if b.Key != "олио" {
		t.Errorf("group key = %q, want %q", b.Key, "олио")
	}
	if b.Count != 3 {
		t.Errorf("group count = %d, want 3", b.Count)
	}
	if want := decimal.NewFromInt(6); !b.TotalQuantity.Equal(want) {
		t.Errorf("total quantity = %s, want %s", b.TotalQuantity, want)
	}
	if len(b.Suppliers) != 2 {
		t.Errorf("suppliers = %v, want two distinct", b.Suppliers)
	}
	if len(b.OriginalNames) != 3 {
		t.Errorf("original names = %v, want all three spellings", b.OriginalNames)
	}
}

func TestAggregateItems_TotalValueIsExactSum(t *testing.T) {
	occurrences := []core.ItemOccurrence{
		occ("Метро", "захар", 1.10, 3, 1),
		occ("Метро", "олио", 3.33, 2, 2),
		occ("Билла", "брашно", 0.95, 7, 3),
	}

	stats := core.AggregateItems(occurrences, nil, 0)

	want := decimal.Zero
	for _, o := range occurrences {
		want = want.Add(o.UnitPrice.Mul(o.Quantity))
	}
	if !stats.Totals.TotalValue.Equal(want) {
		t.Errorf("total value = %s, want exact sum %s", stats.Totals.TotalValue, want)
	}
	if stats.MergeApplied {
		t.Error("merge_applied should be false without an index")
	}
}

func TestAggregateItems_MergeFoldsVariants(t *testing.T) {
	occurrences := []core.ItemOccurrence{
		occ("Метро", "Кока Кола 1.5л", 2.50, 1, 1),
		occ("Билла", "Coca-Cola 1.5L", 2.60, 2, 2),
		occ("Метро", "кока-кола", 2.55, 1, 3),
	}
	index := core.VariantIndex{
		"кока кола 1.5л": {CanonicalKey: "кока кола", DisplayName: "Кока Кола"},
		"coca-cola 1.5l": {CanonicalKey: "кока кола", DisplayName: "Кока Кола"},
		"кока-кола":      {CanonicalKey: "кока кола", DisplayName: "Кока Кола"},
	}

	stats := core.AggregateItems(occurrences, index, 0)

	if stats.Totals.GroupCount != 1 {
		t.Fatalf("expected variants to fold into one group, got %d", stats.Totals.GroupCount)
	}
	b := stats.TopByValue[0]
	if b.Name != "Кока Кола" {
		t.Errorf("display name = %q, want canonical %q", b.Name, "Кока Кола")
	}
	if stats.MergedRecordCount != 3 {
		t.Errorf("merged record count = %d, want 3", stats.MergedRecordCount)
	}
	if got := len(b.OriginalNames); got != 3 {
		t.Errorf("original names kept = %d, want 3", got)
	}
}

func TestAggregateItems_WithoutIndexKeepsGroupsApart(t *testing.T) {
	occurrences := []core.ItemOccurrence{
		occ("Метро", "Кока Кола 1.5л", 2.50, 1, 1),
		occ("Билла", "Coca-Cola 1.5L", 2.60, 2, 2),
	}

	merged := core.AggregateItems(occurrences, core.VariantIndex{
		"кока кола 1.5л": {CanonicalKey: "кока кола", DisplayName: "Кока Кола"},
		"coca-cola 1.5l": {CanonicalKey: "кока кола", DisplayName: "Кока Кола"},
	}, 0)
	plain := core.AggregateItems(occurrences, nil, 0)

	if merged.Totals.GroupCount != 1 || plain.Totals.GroupCount != 2 {
		t.Errorf("group counts = %d merged / %d plain, want 1 / 2",
			merged.Totals.GroupCount, plain.Totals.GroupCount)
	}
	if !merged.Totals.TotalValue.Equal(plain.Totals.TotalValue) {
		t.Errorf("totals diverge under merge: %s vs %s",
			merged.Totals.TotalValue, plain.Totals.TotalValue)
	}
}

func TestAggregateItems_TopByValueSortedAndBounded(t *testing.T) {
	var occurrences []core.ItemOccurrence
	names := []string{"олио", "захар", "брашно", "ориз", "сол"}
	for i, n := range names {
		occurrences = append(occurrences, occ("Метро", n, float64(i+1), 1, i+1))
	}

	stats := core.AggregateItems(occurrences, nil, 3)

	if len(stats.TopByValue) != 3 {
		t.Fatalf("top_by_value length = %d, want 3", len(stats.TopByValue))
	}
	for i := 1; i < len(stats.TopByValue); i++ {
		if stats.TopByValue[i].TotalValue.GreaterThan(stats.TopByValue[i-1].TotalValue) {
			t.Errorf("top_by_value not descending at %d: %s > %s",
				i, stats.TopByValue[i].TotalValue, stats.TopByValue[i-1].TotalValue)
		}
	}
	if stats.TopByValue[0].Key != "сол" {
		t.Errorf("top item = %q, want %q", stats.TopByValue[0].Key, "сол")
	}
	// full list still counted in totals
	if stats.Totals.GroupCount != 5 {
		t.Errorf("group count = %d, want 5", stats.Totals.GroupCount)
	}
}

func TestAggregateItems_Empty(t *testing.T) {
	stats := core.AggregateItems(nil, nil, 0)
	if stats.Totals.GroupCount != 0 || !stats.Totals.TotalValue.IsZero() {
		t.Errorf("empty input should yield zero totals, got %+v", stats.Totals)
	}
	if len(stats.TopByQuantity) != 0 || len(stats.TopByValue) != 0 || len(stats.TopByFrequency) != 0 {
		t.Error("empty input should yield empty ranked views")
	}
}

func TestPriceTrendPercent(t *testing.T) {
	d := func(xs ...float64) []decimal.Decimal {
		out := make([]decimal.Decimal, len(xs))
		for i, x := range xs {
			out[i] = decimal.NewFromFloat(x)
		}
		return out
	}

	tests := []struct {
		name   string
		prices []decimal.Decimal
		want   string
	}{
		{"too short", d(1, 2, 3), "0"},
		{"flat", d(2, 2, 2, 2), "0"},
		{"rising", d(1, 1, 2, 2), "100"},
		{"falling", d(2, 2, 1, 1), "-50"},
		{"zero first half", d(0, 0, 1, 1), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.PriceTrendPercent(tt.prices)
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("PriceTrendPercent = %s, want %s", got, want)
			}
		})
	}
}
