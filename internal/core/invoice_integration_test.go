package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fakturabg/internal/core"
)

func invoiceInput(number string, day int, items ...core.InvoiceItemInput) core.InvoiceInput {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(it.Quantity))
	}
	vat := total.Mul(decimal.NewFromFloat(0.2)).Round(2)
	return core.InvoiceInput{
		Supplier:         "Метро ЕООД",
		InvoiceNumber:    number,
		AmountWithoutVAT: total,
		VATAmount:        vat,
		TotalAmount:      total.Add(vat),
		Date:             time.Date(2025, 5, day, 0, 0, 0, 0, time.UTC),
		Items:            items,
	}
}

func TestInvoiceService_Lifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	alerts := core.NewAlertService(pool)
	svc := core.NewInvoiceService(pool, alerts)
	merge := core.NewMergeService(pool)
	stats := core.NewStatsService(pool, merge)

	var invoiceID string

	t.Run("Create_AppendsPriceHistory", func(t *testing.T) {
		inv, raised, err := svc.Create(ctx, "c1", "u1", invoiceInput("F-001", 1,
			core.InvoiceItemInput{Name: "Олио", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromFloat(3.20)},
			core.InvoiceItemInput{Name: "Захар", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromFloat(1.10)},
		))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if len(raised) != 0 {
			t.Errorf("first invoice raised %d alerts, want none", len(raised))
		}
		if len(inv.Items) != 2 {
			t.Errorf("invoice items = %d, want 2", len(inv.Items))
		}
		invoiceID = inv.ID

		res, err := stats.ItemStatistics(ctx, core.ItemStatsParams{CompanyID: "c1"})
		if err != nil {
			t.Fatalf("ItemStatistics: %v", err)
		}
		if res.Totals.GroupCount != 2 {
			t.Errorf("item groups after create = %d, want 2", res.Totals.GroupCount)
		}
	})

	t.Run("Create_PriceJumpRaisesAlert", func(t *testing.T) {
		_, raised, err := svc.Create(ctx, "c1", "u1", invoiceInput("F-002", 2,
			core.InvoiceItemInput{Name: "олио", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(4.00)},
		))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if len(raised) != 1 {
			t.Fatalf("25%% price jump raised %d alerts, want 1", len(raised))
		}
		if want := decimal.NewFromInt(25); !raised[0].ChangePercent.Equal(want) {
			t.Errorf("change percent = %s, want %s", raised[0].ChangePercent, want)
		}
	})

	t.Run("List_FiltersBySupplier", func(t *testing.T) {
		invoices, err := svc.List(ctx, "c1", core.InvoiceFilter{Supplier: "метро"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(invoices) != 2 {
			t.Errorf("filtered invoices = %d, want 2", len(invoices))
		}
	})

	t.Run("Get_OtherTenant_NotFound", func(t *testing.T) {
		_, err := svc.Get(ctx, "other-company", invoiceID)
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected ErrNotFound for cross-tenant read, got %v", err)
		}
	})

	t.Run("Delete_RemovesPriceHistory", func(t *testing.T) {
		before, err := stats.ItemStatistics(ctx, core.ItemStatsParams{CompanyID: "c1"})
		if err != nil {
			t.Fatalf("ItemStatistics: %v", err)
		}

		if err := svc.Delete(ctx, "c1", invoiceID); err != nil {
			t.Fatalf("Delete: %v", err)
		}

		after, err := stats.ItemStatistics(ctx, core.ItemStatsParams{CompanyID: "c1"})
		if err != nil {
			t.Fatalf("ItemStatistics: %v", err)
		}
		// F-001 carried захар and one олио line; only F-002's олио line remains.
		if after.Totals.GroupCount != 1 {
			t.Errorf("item groups after delete = %d, want 1 (was %d)",
				after.Totals.GroupCount, before.Totals.GroupCount)
		}

		if _, err := svc.Get(ctx, "c1", invoiceID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("deleted invoice still readable: %v", err)
		}
	})

	t.Run("Delete_KeepsAlerts", func(t *testing.T) {
		list, err := alerts.ListAlerts(ctx, "c1", "", 0)
		if err != nil {
			t.Fatalf("ListAlerts: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("alerts after invoice delete = %d, want 1 kept", len(list))
		}
	})
}

func TestStatsService_SummaryAndVAT(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	alerts := core.NewAlertService(pool)
	invoices := core.NewInvoiceService(pool, alerts)
	revenue := core.NewRevenueService(pool)
	stats := core.NewStatsService(pool, core.NewMergeService(pool))

	// One purchase invoice: 100 net, 20 VAT, 120 total.
	in := invoiceInput("F-100", 10)
	in.AmountWithoutVAT = decimal.NewFromInt(100)
	in.VATAmount = decimal.NewFromInt(20)
	in.TotalAmount = decimal.NewFromInt(120)
	if _, _, err := invoices.Create(ctx, "c1", "u1", in); err != nil {
		t.Fatalf("Create invoice: %v", err)
	}

	// Gross fiscal revenue 600: embedded VAT is 600 * 0.2 / 1.2 = 100.
	_, err := revenue.UpsertRevenue(ctx, "c1", "u1",
		time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC),
		decimal.NewFromInt(600), decimal.NewFromInt(50), "")
	if err != nil {
		t.Fatalf("UpsertRevenue: %v", err)
	}

	sum, err := stats.Summary(ctx, "c1", nil, nil)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if want := decimal.NewFromInt(100); !sum.FiscalVAT.Equal(want) {
		t.Errorf("fiscal VAT = %s, want %s", sum.FiscalVAT, want)
	}
	// 100 fiscal VAT minus 20 purchase VAT credit.
	if want := decimal.NewFromInt(80); !sum.VATToPay.Equal(want) {
		t.Errorf("VAT to pay = %s, want %s", sum.VATToPay, want)
	}
	if want := decimal.NewFromInt(650); !sum.TotalIncome.Equal(want) {
		t.Errorf("total income = %s, want %s", sum.TotalIncome, want)
	}
	if want := decimal.NewFromInt(530); !sum.Profit.Equal(want) {
		t.Errorf("profit = %s, want %s", sum.Profit, want)
	}
	if sum.InvoiceCount != 1 {
		t.Errorf("invoice count = %d, want 1", sum.InvoiceCount)
	}
}
