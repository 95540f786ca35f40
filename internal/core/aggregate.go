package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultTopN bounds the ranked views when the caller does not ask for a size.
const DefaultTopN = 10

// ItemBucket is one aggregated product group across a tenant's purchase lines.
type ItemBucket struct {
	Name          string          `json:"name"`
	Key           string          `json:"key"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Count         int             `json:"count"`
	Suppliers     []string        `json:"suppliers"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	MinPrice      decimal.Decimal `json:"min_price"`
	MaxPrice      decimal.Decimal `json:"max_price"`
	TrendPercent  decimal.Decimal `json:"trend_percent"`
	OriginalNames []string        `json:"original_names"`
}

// ItemTotals are the window-wide sums across all groups.
type ItemTotals struct {
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	GroupCount    int             `json:"group_count"`
}

// ItemStatistics is the full aggregation result for one tenant and window.
type ItemStatistics struct {
	Totals            ItemTotals   `json:"totals"`
	TopByQuantity     []ItemBucket `json:"top_by_quantity"`
	TopByValue        []ItemBucket `json:"top_by_value"`
	TopByFrequency    []ItemBucket `json:"top_by_frequency"`
	MergeApplied      bool         `json:"merge_applied"`
	MergeGroupsCount  int          `json:"merge_groups_count"`
	MergedRecordCount int          `json:"merged_record_count"`
}

// AggregateItems folds occurrences into buckets and computes the ranked
// views. Grouping always uses the normalized item key; when index is non-nil
// each key is first resolved through the merge mapping and the result is
// marked merge-applied. Occurrences must be in chronological order for the
// trend figures to be meaningful.
func AggregateItems(occurrences []ItemOccurrence, index VariantIndex, topN int) *ItemStatistics {
	if topN <= 0 {
		topN = DefaultTopN
	}

	type acc struct {
		bucket ItemBucket
		prices []decimal.Decimal
		seen   map[string]bool // suppliers and original spellings already added
	}

	byKey := make(map[string]*acc)
	var order []string // first-seen key order, the tie-break for ranked views
	merged := 0

	for _, occ := range occurrences {
		key := occ.ItemKey
		if key == "" {
			key = NormalizeItemKey(occ.ItemName)
		}
		display := occ.ItemName
		if index != nil {
			if entry, ok := index[key]; ok {
				if entry.CanonicalKey != key {
					merged++
				}
				key = entry.CanonicalKey
				display = entry.DisplayName
			}
		}

		a, ok := byKey[key]
		if !ok {
			a = &acc{
				bucket: ItemBucket{Name: display, Key: key},
				seen:   make(map[string]bool),
			}
			byKey[key] = a
			order = append(order, key)
		}

		a.bucket.TotalQuantity = a.bucket.TotalQuantity.Add(occ.Quantity)
		a.bucket.TotalValue = a.bucket.TotalValue.Add(occ.UnitPrice.Mul(occ.Quantity))
		a.bucket.Count++
		a.prices = append(a.prices, occ.UnitPrice)
		if !a.seen["s:"+occ.Supplier] {
			a.seen["s:"+occ.Supplier] = true
			a.bucket.Suppliers = append(a.bucket.Suppliers, occ.Supplier)
		}
		if !a.seen["n:"+occ.ItemName] {
			a.seen["n:"+occ.ItemName] = true
			a.bucket.OriginalNames = append(a.bucket.OriginalNames, occ.ItemName)
		}
	}

	stats := &ItemStatistics{MergedRecordCount: merged}
	buckets := make([]ItemBucket, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		a.bucket.AvgPrice = meanPrice(a.prices)
		a.bucket.MinPrice, a.bucket.MaxPrice = minMaxPrice(a.prices)
		a.bucket.TrendPercent = PriceTrendPercent(a.prices)
		buckets = append(buckets, a.bucket)

		stats.Totals.TotalQuantity = stats.Totals.TotalQuantity.Add(a.bucket.TotalQuantity)
		stats.Totals.TotalValue = stats.Totals.TotalValue.Add(a.bucket.TotalValue)
	}
	stats.Totals.GroupCount = len(buckets)

	stats.TopByQuantity = rankBuckets(buckets, topN, func(a, b ItemBucket) bool {
		return a.TotalQuantity.GreaterThan(b.TotalQuantity)
	})
	stats.TopByValue = rankBuckets(buckets, topN, func(a, b ItemBucket) bool {
		return a.TotalValue.GreaterThan(b.TotalValue)
	})
	stats.TopByFrequency = rankBuckets(buckets, topN, func(a, b ItemBucket) bool {
		return a.Count > b.Count
	})

	return stats
}

// rankBuckets returns the top n buckets under the given ordering. The sort is
// stable, so ties keep first-seen order.
func rankBuckets(buckets []ItemBucket, n int, less func(a, b ItemBucket) bool) []ItemBucket {
	ranked := make([]ItemBucket, len(buckets))
	copy(ranked, buckets)
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// PriceTrendPercent compares the mean of the first half of the price series
// against the mean of the second half (split by index) and returns the
// percentage change. Series with fewer than four points, or a zero
// first-half mean, report zero.
func PriceTrendPercent(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) < 4 {
		return decimal.Zero
	}
	mid := len(prices) / 2
	first := meanPrice(prices[:mid])
	second := meanPrice(prices[mid:])
	if first.IsZero() {
		return decimal.Zero
	}
	return second.Sub(first).Div(first).Mul(decimal.NewFromInt(100))
}

func meanPrice(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices))))
}

func minMaxPrice(prices []decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if len(prices) == 0 {
		return decimal.Zero, decimal.Zero
	}
	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p.LessThan(min) {
			min = p
		}
		if p.GreaterThan(max) {
			max = p
		}
	}
	return min, max
}
