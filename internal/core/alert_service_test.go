package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"fakturabg/internal/core"
)

func TestEvaluatePriceChange(t *testing.T) {
	enabled := core.AlertSettings{
		ThresholdPercent: decimal.NewFromInt(10),
		Enabled:          true,
	}
	disabled := enabled
	disabled.Enabled = false

	tests := []struct {
		name       string
		oldPrice   string
		newPrice   string
		settings   core.AlertSettings
		wantChange string
		wantFires  bool
	}{
		{"exactly at threshold", "10", "11", enabled, "10", true},
		{"just under threshold", "10", "10.99", enabled, "9.9", false},
		{"well over threshold", "2", "3", enabled, "50", true},
		{"decrease never fires", "10", "5", enabled, "-50", false},
		{"unchanged", "10", "10", enabled, "0", false},
		{"zero old price", "0", "5", enabled, "0", false},
		{"disabled", "10", "20", disabled, "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, fires := core.EvaluatePriceChange(
				decimal.RequireFromString(tt.oldPrice),
				decimal.RequireFromString(tt.newPrice),
				tt.settings,
			)
			if fires != tt.wantFires {
				t.Errorf("fires = %v, want %v", fires, tt.wantFires)
			}
			if want := decimal.RequireFromString(tt.wantChange); !change.Equal(want) {
				t.Errorf("change = %s, want %s", change, want)
			}
		})
	}
}

func TestEvaluatePriceChange_ThresholdComparesUnrounded(t *testing.T) {
	settings := core.AlertSettings{
		ThresholdPercent: decimal.NewFromInt(10),
		Enabled:          true,
	}
	// 3 -> 3.2999 is 9.9966...%: below threshold even though the stored
	// figure rounds up to 10.00.
	change, fires := core.EvaluatePriceChange(
		decimal.NewFromInt(3),
		decimal.RequireFromString("3.2999"),
		settings,
	)
	if fires {
		t.Errorf("change of 9.9966%% must not meet the 10%% threshold")
	}
	if want := decimal.NewFromInt(10); !change.Equal(want) {
		t.Errorf("stored change = %s, want rounded %s", change, want)
	}

	// 3 -> 3.3 is exactly 10% and fires.
	change, fires = core.EvaluatePriceChange(
		decimal.NewFromInt(3),
		decimal.RequireFromString("3.3"),
		settings,
	)
	if !fires {
		t.Errorf("change %s at the threshold must fire", change)
	}
}

func TestOccurrenceInput_Validate(t *testing.T) {
	valid := core.OccurrenceInput{
		Supplier:  "Метро",
		ItemName:  "Олио",
		UnitPrice: decimal.NewFromFloat(3.20),
		Quantity:  decimal.NewFromInt(2),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*core.OccurrenceInput)
	}{
		{"blank item name", func(in *core.OccurrenceInput) { in.ItemName = "   " }},
		{"blank supplier", func(in *core.OccurrenceInput) { in.Supplier = "" }},
		{"negative price", func(in *core.OccurrenceInput) { in.UnitPrice = decimal.NewFromInt(-1) }},
		{"negative quantity", func(in *core.OccurrenceInput) { in.Quantity = decimal.NewFromInt(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !core.IsValidation(err) {
				t.Errorf("error %v is not a validation error", err)
			}
		})
	}
}
