package core_test

import (
	"testing"

	"fakturabg/internal/core"
)

func TestNormalizeItemKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase unchanged", "олио", "олио"},
		{"case folded", "ОЛИО", "олио"},
		{"mixed case", "Олио Слънчогледово", "олио слънчогледово"},
		{"surrounding whitespace", "  захар  ", "захар"},
		{"inner whitespace collapsed", "захар   кристална", "захар кристална"},
		{"tabs and newlines", "\tмляко\n прясно ", "мляко прясно"},
		{"latin case folded", "Coca-Cola 1.5L", "coca-cola 1.5l"},
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.NormalizeItemKey(tt.in); got != tt.want {
				t.Errorf("NormalizeItemKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeItemKey_EquivalenceUnderCaseAndWhitespace(t *testing.T) {
	variants := []string{"Олио", "олио", "ОЛИО", " олио ", "олио\t"}
	want := core.NormalizeItemKey(variants[0])
	for _, v := range variants[1:] {
		if got := core.NormalizeItemKey(v); got != want {
			t.Errorf("NormalizeItemKey(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestNormalizeSupplierKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Метро ЕООД", "метро"},
		{"Метро", "метро"},
		{"МЕТРО ООД", "метро"},
		{"Хранителни стоки АД", "хранителни стоки"},
		{"Billa Ltd", "billa"},
		{"ЕООД", "еоод"}, // a bare designator is not a suffix
	}
	for _, tt := range tests {
		if got := core.NormalizeSupplierKey(tt.in); got != tt.want {
			t.Errorf("NormalizeSupplierKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
