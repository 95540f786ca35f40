package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"fakturabg/internal/app"
	"fakturabg/internal/core"
)

// Run executes a one-shot admin command and exits.
// args is os.Args[1:] — the first element is the subcommand name, the second
// the company ID the command operates on.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	if len(args) < 2 {
		log.Fatal("Usage: fakturactl <summary|alerts|forecast|merge> <company-id> [args]")
	}
	companyID := args[1]

	switch args[0] {
	case "summary", "sum", "s":
		start, end := "", ""
		if len(args) > 2 {
			start = args[2]
		}
		if len(args) > 3 {
			end = args[3]
		}
		summary, err := svc.GetSummary(ctx, companyID, start, end)
		if err != nil {
			log.Fatalf("Failed to get summary: %v", err)
		}
		printSummary(summary)

	case "alerts", "al", "a":
		alerts, err := svc.ListPriceAlerts(ctx, companyID, core.AlertUnread, 0)
		if err != nil {
			log.Fatalf("Failed to list alerts: %v", err)
		}
		printAlerts(alerts)

	case "forecast", "fc", "f":
		months := 3
		if len(args) > 2 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				log.Fatalf("Invalid months %q", args[2])
			}
			months = n
		}
		forecast, err := svc.GetExpenseForecast(ctx, companyID, months)
		if err != nil {
			log.Fatalf("Failed to forecast: %v", err)
		}
		printForecast(forecast)

	case "merge", "m":
		result, err := svc.ProposeMergeGroups(ctx, app.AIMergeRequest{CompanyID: companyID})
		if err != nil {
			log.Fatalf("Failed to propose groups: %v", err)
		}
		if result.Message != "" {
			fmt.Fprintln(os.Stderr, result.Message)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result.Groups)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: summary, alerts, forecast, merge", args[0])
	}
}

func printSummary(s *core.Summary) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  %-48s\n", "MONEY SUMMARY")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  %-28s %15s\n", "Fiscal revenue", s.TotalFiscalRevenue.StringFixed(2))
	fmt.Printf("  %-28s %15s\n", "Pocket money", s.TotalPocketMoney.StringFixed(2))
	fmt.Printf("  %-28s %15s\n", "Invoice amount", s.TotalInvoiceAmount.StringFixed(2))
	fmt.Printf("  %-28s %15s\n", "Invoice VAT", s.TotalInvoiceVAT.StringFixed(2))
	fmt.Printf("  %-28s %15s\n", "Other expenses", s.TotalOtherExpenses.StringFixed(2))
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("  %-28s %15s\n", "Total income", s.TotalIncome.StringFixed(2))
	fmt.Printf("  %-28s %15s\n", "Total expense", s.TotalExpense.StringFixed(2))
	fmt.Printf("  %-28s %15s\n", "Profit", s.Profit.StringFixed(2))
	fmt.Printf("  %-28s %15s\n", "VAT to pay", s.VATToPay.StringFixed(2))
	fmt.Printf("  %-28s %15d\n", "Invoices", s.InvoiceCount)
	fmt.Println(strings.Repeat("=", 50))
}

func printAlerts(alerts []core.PriceAlert) {
	if len(alerts) == 0 {
		fmt.Println("No unread price alerts.")
		return
	}
	fmt.Printf("%-25s %-20s %10s %10s %8s\n", "ITEM", "SUPPLIER", "OLD", "NEW", "CHANGE")
	fmt.Println(strings.Repeat("-", 78))
	for _, a := range alerts {
		fmt.Printf("%-25s %-20s %10s %10s %7s%%\n",
			a.ItemName, a.Supplier,
			a.OldPrice.StringFixed(2), a.NewPrice.StringFixed(2),
			a.ChangePercent.StringFixed(1))
	}
}

func printForecast(f *core.Forecast) {
	fmt.Printf("Trend: %s (%.1f%%), avg monthly %.2f, confidence %.2f\n",
		f.Trend, f.TrendPercent, f.AvgMonthly, f.Confidence)
	fmt.Printf("%-10s %12s %12s %12s\n", "MONTH", "PREDICTED", "LOW", "HIGH")
	fmt.Println(strings.Repeat("-", 50))
	for _, p := range f.Forecast {
		fmt.Printf("%-10s %12.2f %12.2f %12.2f\n", p.Month, p.PredictedAmount, p.LowerBound, p.UpperBound)
	}
}
