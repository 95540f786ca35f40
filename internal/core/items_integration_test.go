package core_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"fakturabg/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE price_alerts, alert_settings, notification_settings, merge_mappings,
			item_occurrences, invoice_items, invoices, expenses, daily_revenues, budgets,
			audit_logs, invitations, users, companies CASCADE;

		INSERT INTO companies (id, name, eik) VALUES ('c1', 'Тест ЕООД', '123456789');
		INSERT INTO users (id, email, name, role, company_id, hashed_password)
		VALUES ('u1', 'test@example.com', 'Test User', 'owner', 'c1', 'x');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func recordOcc(t *testing.T, svc core.AlertService, name string, price float64, day int) *core.PriceAlert {
	t.Helper()
	_, alert, err := svc.RecordOccurrence(context.Background(), "c1", core.OccurrenceInput{
		Supplier:      "Метро ЕООД",
		ItemName:      name,
		UnitPrice:     decimal.NewFromFloat(price),
		Quantity:      decimal.NewFromInt(1),
		Unit:          "бр.",
		InvoiceID:     uuid.NewString(),
		InvoiceNumber: "INV-1",
		InvoiceDate:   time.Date(2025, 4, day, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RecordOccurrence(%s, %v): %v", name, price, err)
	}
	return alert
}

func TestMergeService_UpsertListDelete(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	svc := core.NewMergeService(pool)

	t.Run("Upsert_NormalizesKeys", func(t *testing.T) {
		m, err := svc.UpsertMapping(ctx, "c1", "Кока Кола", []string{"КОКА КОЛА 1.5Л", "coca-cola"})
		if err != nil {
			t.Fatalf("UpsertMapping: %v", err)
		}
		if m.CanonicalKey != "кока кола" {
			t.Errorf("canonical key = %q, want normalized %q", m.CanonicalKey, "кока кола")
		}
		if m.DisplayName != "Кока Кола" {
			t.Errorf("display name = %q, want raw spelling kept", m.DisplayName)
		}
		found := false
		for _, v := range m.Variants {
			if v == "кока кола 1.5л" {
				found = true
			}
		}
		if !found {
			t.Errorf("variants %v missing normalized variant key", m.Variants)
		}
	})

	t.Run("Upsert_EmptyCanonical_Fails", func(t *testing.T) {
		_, err := svc.UpsertMapping(ctx, "c1", "   ", []string{"нещо"})
		if !core.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("Upsert_CanonicalIsVariantElsewhere_Fails", func(t *testing.T) {
		// "coca-cola" is already a variant of "кока кола"
		_, err := svc.UpsertMapping(ctx, "c1", "Coca-Cola", []string{"кола"})
		if !core.IsValidation(err) {
			t.Errorf("expected validation error for stolen canonical, got %v", err)
		}
	})

	t.Run("BuildVariantIndex_ResolvesAllKeys", func(t *testing.T) {
		idx, err := svc.BuildVariantIndex(ctx, "c1")
		if err != nil {
			t.Fatalf("BuildVariantIndex: %v", err)
		}
		for _, key := range []string{"кока кола", "кока кола 1.5л", "coca-cola"} {
			entry, ok := idx[key]
			if !ok {
				t.Errorf("index missing key %q", key)
				continue
			}
			if entry.CanonicalKey != "кока кола" {
				t.Errorf("index[%q] = %q, want %q", key, entry.CanonicalKey, "кока кола")
			}
		}
	})

	t.Run("Delete_ThenStatisticsRoundTrip", func(t *testing.T) {
		if err := svc.DeleteMapping(ctx, "c1", "кока кола"); err != nil {
			t.Fatalf("DeleteMapping: %v", err)
		}
		idx, err := svc.BuildVariantIndex(ctx, "c1")
		if err != nil {
			t.Fatalf("BuildVariantIndex: %v", err)
		}
		if len(idx) != 0 {
			t.Errorf("index after delete = %v, want empty", idx)
		}
	})

	t.Run("Delete_Missing_NotFound", func(t *testing.T) {
		err := svc.DeleteMapping(ctx, "c1", "няма такова")
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAlertService_RecordAndThreshold(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	svc := core.NewAlertService(pool)

	t.Run("FirstPurchase_NoAlert", func(t *testing.T) {
		if alert := recordOcc(t, svc, "Олио", 3.00, 1); alert != nil {
			t.Errorf("first purchase raised alert %+v, want none", alert)
		}
	})

	t.Run("UnderThreshold_NoAlert", func(t *testing.T) {
		if alert := recordOcc(t, svc, "Олио", 3.20, 2); alert != nil {
			t.Errorf("6.67%% increase raised alert %+v, want none", alert)
		}
	})

	t.Run("OverThreshold_Alert", func(t *testing.T) {
		alert := recordOcc(t, svc, "олио", 3.60, 3) // case variant, same item key
		if alert == nil {
			t.Fatal("12.5% increase raised no alert")
		}
		if want := decimal.RequireFromString("12.5"); !alert.ChangePercent.Equal(want) {
			t.Errorf("change percent = %s, want %s", alert.ChangePercent, want)
		}
		if alert.Status != core.AlertUnread {
			t.Errorf("new alert status = %s, want unread", alert.Status)
		}
	})

	t.Run("Decrease_NoAlert", func(t *testing.T) {
		if alert := recordOcc(t, svc, "Олио", 1.00, 4); alert != nil {
			t.Errorf("price drop raised alert %+v, want none", alert)
		}
	})

	t.Run("ListAndTransition", func(t *testing.T) {
		alerts, err := svc.ListAlerts(ctx, "c1", core.AlertUnread, 0)
		if err != nil {
			t.Fatalf("ListAlerts: %v", err)
		}
		if len(alerts) != 1 {
			t.Fatalf("unread alerts = %d, want 1", len(alerts))
		}
		if err := svc.UpdateAlertStatus(ctx, "c1", alerts[0].ID, core.AlertRead); err != nil {
			t.Fatalf("UpdateAlertStatus: %v", err)
		}
		alerts, err = svc.ListAlerts(ctx, "c1", core.AlertUnread, 0)
		if err != nil {
			t.Fatalf("ListAlerts: %v", err)
		}
		if len(alerts) != 0 {
			t.Errorf("unread alerts after read = %d, want 0", len(alerts))
		}
	})

	t.Run("DisabledSettings_SuppressAlerts", func(t *testing.T) {
		if _, err := svc.SetSettings(ctx, "c1", decimal.NewFromInt(10), false); err != nil {
			t.Fatalf("SetSettings: %v", err)
		}
		if alert := recordOcc(t, svc, "Олио", 5.00, 5); alert != nil {
			t.Errorf("disabled alerting still raised %+v", alert)
		}
	})

	t.Run("Settings_DefaultsWhenUnset", func(t *testing.T) {
		s, err := svc.GetSettings(ctx, "c2-has-no-row")
		if err != nil {
			t.Fatalf("GetSettings: %v", err)
		}
		if !s.Enabled || !s.ThresholdPercent.Equal(decimal.NewFromInt(10)) {
			t.Errorf("defaults = %+v, want enabled with 10%% threshold", s)
		}
	})
}
