package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fakturabg/internal/app"
	"fakturabg/internal/core"
)

// upsertBudget handles POST /api/budgets.
func (h *Handler) upsertBudget(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req struct {
		Month          string          `json:"month"`
		ExpenseLimit   decimal.Decimal `json:"expense_limit"`
		AlertThreshold decimal.Decimal `json:"alert_threshold"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	budget, err := h.svc.UpsertBudget(r.Context(), app.BudgetRequest{
		CompanyID:      user.CompanyID,
		Month:          req.Month,
		ExpenseLimit:   req.ExpenseLimit,
		AlertThreshold: req.AlertThreshold,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "update",
		EntityType: "budget",
		EntityID:   budget.ID,
		Details:    map[string]any{"month": budget.Month},
		IPAddress:  clientIP(r),
	})
	writeJSON(w, budget)
}

// listBudgets handles GET /api/budgets.
func (h *Handler) listBudgets(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	budgets, err := h.svc.ListBudgets(r.Context(), user.CompanyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, budgets)
}

// deleteBudget handles DELETE /api/budgets/{month}.
func (h *Handler) deleteBudget(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	month := chi.URLParam(r, "month")
	if err := h.svc.DeleteBudget(r.Context(), user.CompanyID, month); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "delete",
		EntityType: "budget",
		Details:    map[string]any{"month": month},
		IPAddress:  clientIP(r),
	})
	w.WriteHeader(http.StatusNoContent)
}

// budgetStatus handles GET /api/budgets/{month}/status.
func (h *Handler) budgetStatus(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	status, err := h.svc.GetBudgetStatus(r.Context(), user.CompanyID, chi.URLParam(r, "month"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, status)
}

// forecastExpenses handles GET /api/forecast/expenses.
func (h *Handler) forecastExpenses(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	forecast, err := h.svc.GetExpenseForecast(r.Context(), user.CompanyID, intQuery(r.URL.Query().Get("months"), 3))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, forecast)
}

// forecastRevenue handles GET /api/forecast/revenue.
func (h *Handler) forecastRevenue(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	forecast, err := h.svc.GetRevenueForecast(r.Context(), user.CompanyID, intQuery(r.URL.Query().Get("months"), 3))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, forecast)
}

// listAuditLogs handles GET /api/audit-logs.
func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	q := r.URL.Query()
	logs, err := h.svc.ListAuditLogs(r.Context(), user.CompanyID, core.AuditFilter{
		UserID:     q.Get("user_id"),
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		Limit:      intQuery(q.Get("limit"), 0),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, logs)
}
