package ai

import (
	"testing"

	"fakturabg/internal/core"
)

func TestValidateGroups(t *testing.T) {
	names := []string{"Кока Кола", "кока кола 1.5л", "Coca-Cola", "Олио"}

	tests := []struct {
		name      string
		groups    []core.MergeGroup
		expectErr bool
	}{
		{
			name: "valid group",
			groups: []core.MergeGroup{
				{CanonicalName: "Кока Кола", Variants: []string{"Кока Кола", "кока кола 1.5л", "Coca-Cola"}},
			},
		},
		{
			name: "empty canonical",
			groups: []core.MergeGroup{
				{CanonicalName: "  ", Variants: []string{"Кока Кола", "Coca-Cola"}},
			},
			expectErr: true,
		},
		{
			name: "single variant group",
			groups: []core.MergeGroup{
				{CanonicalName: "Олио", Variants: []string{"Олио"}},
			},
			expectErr: true,
		},
		{
			name: "invented canonical",
			groups: []core.MergeGroup{
				{CanonicalName: "Пепси", Variants: []string{"Кока Кола", "Coca-Cola"}},
			},
			expectErr: true,
		},
		{
			name: "invented variant",
			groups: []core.MergeGroup{
				{CanonicalName: "Кока Кола", Variants: []string{"Кока Кола", "Фанта"}},
			},
			expectErr: true,
		},
		{
			name: "variant claimed twice",
			groups: []core.MergeGroup{
				{CanonicalName: "Кока Кола", Variants: []string{"Кока Кола", "Coca-Cola"}},
				{CanonicalName: "Олио", Variants: []string{"Олио", "Coca-Cola"}},
			},
			expectErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateGroups(tt.groups, names)
			if tt.expectErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDedupeSorted(t *testing.T) {
	got := dedupeSorted([]string{" Олио ", "Захар", "Олио", "", "Захар"})
	want := []string{"Захар", "Олио"}
	if len(got) != len(want) {
		t.Fatalf("dedupeSorted = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupeSorted[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
