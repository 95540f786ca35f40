package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fakturabg/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// Health and auth are public.
	r.Get("/api/health", h.health)
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// OCR uploads carry a whole photographed invoice as base64.
		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(16 << 20)) // 16 MB
			r.Post("/api/ocr/scan", h.ocrScan)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20)) // 1 MB

			r.Get("/api/auth/me", h.me)

			// Company and membership
			r.Post("/api/company", h.createCompany)
			r.Get("/api/company", h.getCompany)
			r.Put("/api/company", h.updateCompany)
			r.Get("/api/company/members", h.listMembers)
			r.Put("/api/company/members/{id}/role", h.setMemberRole)
			r.Post("/api/company/invitations", h.createInvitation)
			r.Post("/api/company/join", h.joinCompany)
			r.Post("/api/company/leave", h.leaveCompany)

			// Invoices
			r.Post("/api/invoices", h.createInvoice)
			r.Get("/api/invoices", h.listInvoices)
			r.Get("/api/invoices/{id}", h.getInvoice)
			r.Put("/api/invoices/{id}", h.updateInvoice)
			r.Delete("/api/invoices/{id}", h.deleteInvoice)

			// Daily revenue and expenses
			r.Post("/api/daily-revenue", h.upsertRevenue)
			r.Get("/api/daily-revenue", h.listRevenues)
			r.Post("/api/expenses", h.createExpense)
			r.Get("/api/expenses", h.listExpenses)
			r.Delete("/api/expenses/{id}", h.deleteExpense)

			// Statistics
			r.Get("/api/statistics/summary", h.statsSummary)
			r.Get("/api/statistics/chart-data", h.statsChartData)
			r.Get("/api/statistics/suppliers", h.statsSuppliers)
			r.Get("/api/statistics/items/merged", h.statsItems)

			// Item merge mappings
			r.Get("/api/items/merge-mappings", h.listMergeMappings)
			r.Post("/api/items/merge-mappings", h.upsertMergeMapping)
			r.Delete("/api/items/merge-mappings/{canonical}", h.deleteMergeMapping)
			r.Post("/api/items/ai-merge", h.aiMerge)

			// Price alerts
			r.Get("/api/alerts", h.listAlerts)
			r.Put("/api/alerts/{id}/status", h.updateAlertStatus)
			r.Get("/api/notifications/settings", h.getNotificationSettings)
			r.Put("/api/notifications/settings", h.setNotificationSettings)

			r.Get("/api/alerts/settings", h.getAlertSettings)
			r.Put("/api/alerts/settings", h.setAlertSettings)

			// Budgets and forecasts
			r.Post("/api/budgets", h.upsertBudget)
			r.Get("/api/budgets", h.listBudgets)
			r.Delete("/api/budgets/{month}", h.deleteBudget)
			r.Get("/api/budgets/{month}/status", h.budgetStatus)
			r.Get("/api/forecast/expenses", h.forecastExpenses)
			r.Get("/api/forecast/revenue", h.forecastRevenue)

			// Audit trail
			r.Get("/api/audit-logs", h.listAuditLogs)

			// Exports
			r.Get("/api/export/excel", h.exportInvoices)
			r.Get("/api/export/statistics", h.exportStatistics)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v, writing the error response on
// failure. Returns HTTP 413 when the body exceeds the RequestBodyLimit;
// HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
