package main

import (
	"context"
	"log"
	"os"

	"fakturabg/internal/adapters/cli"
	"fakturabg/internal/ai"
	"fakturabg/internal/app"
	"fakturabg/internal/core"
	"fakturabg/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("Usage: fakturactl <summary|alerts|forecast|merge> <company-id> [args]")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	userService := core.NewUserService(pool)
	companyService := core.NewCompanyService(pool)
	mergeService := core.NewMergeService(pool)
	alertService := core.NewAlertService(pool)
	invoiceService := core.NewInvoiceService(pool, alertService)
	revenueService := core.NewRevenueService(pool)
	statsService := core.NewStatsService(pool, mergeService)
	budgetService := core.NewBudgetService(pool)
	forecastService := core.NewForecastService(pool)
	notificationService := core.NewNotificationService(pool)
	auditService := core.NewAuditService(pool)

	var oracle ai.GroupingOracle
	var scanner ai.InvoiceScanner
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		o := ai.NewOracle(apiKey)
		oracle = o
		scanner = o
	}

	svc := app.NewAppService(pool,
		userService, companyService, invoiceService, revenueService,
		statsService, mergeService, alertService, budgetService,
		forecastService, notificationService, auditService, oracle, scanner)

	cli.Run(ctx, svc, os.Args[1:])
}
