package core_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"fakturabg/internal/core"
)

func TestNotificationSettingsInput_Validate(t *testing.T) {
	valid := core.NotificationSettingsInput{
		VATThresholdEnabled: true,
		VATThresholdAmount:  decimal.NewFromInt(500),
		PeriodicEnabled:     true,
		PeriodicDates:       []int{1, 15, 31},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*core.NotificationSettingsInput)
	}{
		{"negative threshold amount", func(in *core.NotificationSettingsInput) {
			in.VATThresholdAmount = decimal.NewFromInt(-1)
		}},
		{"date zero", func(in *core.NotificationSettingsInput) { in.PeriodicDates = []int{0} }},
		{"date past month end", func(in *core.NotificationSettingsInput) { in.PeriodicDates = []int{32} }},
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

func TestNotificationService_DefaultsAndUpsert(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewNotificationService(pool)

	// A user who never wrote settings reads the defaults.
	settings, err := svc.GetSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings.VATThresholdEnabled || settings.PeriodicEnabled {
		t.Errorf("defaults must be disabled, got %+v", settings)
	}
	if !settings.VATThresholdAmount.IsZero() {
		t.Errorf("default threshold amount = %s, want 0", settings.VATThresholdAmount)
	}
	if len(settings.PeriodicDates) != 0 {
		t.Errorf("default periodic dates = %v, want none", settings.PeriodicDates)
	}

	// First write creates the row.
	written, err := svc.SetSettings(ctx, "u1", core.NotificationSettingsInput{
		VATThresholdEnabled: true,
		VATThresholdAmount:  decimal.NewFromInt(1000),
		PeriodicEnabled:     true,
		PeriodicDates:       []int{5, 20},
	})
	if err != nil {
		t.Fatalf("SetSettings: %v", err)
	}
	if !written.VATThresholdEnabled || !written.VATThresholdAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("written settings = %+v", written)
	}

	// Read-after-write sees the stored values.
	settings, err = svc.GetSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSettings after write: %v", err)
	}
	if len(settings.PeriodicDates) != 2 || settings.PeriodicDates[0] != 5 || settings.PeriodicDates[1] != 20 {
		t.Errorf("periodic dates = %v, want [5 20]", settings.PeriodicDates)
	}

	// A second write overwrites rather than duplicating.
	if _, err := svc.SetSettings(ctx, "u1", core.NotificationSettingsInput{}); err != nil {
		t.Fatalf("SetSettings overwrite: %v", err)
	}
	settings, err = svc.GetSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSettings after overwrite: %v", err)
	}
	if settings.VATThresholdEnabled || len(settings.PeriodicDates) != 0 {
		t.Errorf("overwrite did not clear settings: %+v", settings)
	}

	// Out-of-range reminder date is rejected before any write.
	if _, err := svc.SetSettings(ctx, "u1", core.NotificationSettingsInput{
		PeriodicDates: []int{40},
	}); !core.IsValidation(err) {
		t.Errorf("err = %v, want validation error", err)
	}
}
