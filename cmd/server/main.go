package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "fakturabg/internal/adapters/web"
	"fakturabg/internal/ai"
	"fakturabg/internal/app"
	"fakturabg/internal/core"
	"fakturabg/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

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
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set, AI features disabled")
	}

	svc := app.NewAppService(pool,
		userService, companyService, invoiceService, revenueService,
		statsService, mergeService, alertService, budgetService,
		forecastService, notificationService, auditService, oracle, scanner)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
