package core

import "strings"

// NormalizeItemKey maps a raw item name to its grouping key: surrounding
// whitespace trimmed, runs of inner whitespace collapsed to one space, and
// the result case-folded. Pure and total; an empty or whitespace-only input
// yields "" and callers reject such names before persistence.
func NormalizeItemKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// legalSuffixes are trailing Bulgarian legal-entity designators stripped when
// comparing supplier names, so "Метро ЕООД" and "Метро" match.
var legalSuffixes = []string{"еоод", "оод", "ад", "еад", "ет", "ltd", "eood", "ood"}

// NormalizeSupplierKey maps a supplier name to its comparison key. Matching
// is case-insensitive with the legal-entity suffix removed.
func NormalizeSupplierKey(supplier string) string {
	key := strings.ToLower(strings.Join(strings.Fields(supplier), " "))
	for _, suf := range legalSuffixes {
		if trimmed, ok := strings.CutSuffix(key, " "+suf); ok {
			return trimmed
		}
	}
	return key
}
