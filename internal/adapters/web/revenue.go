package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fakturabg/internal/app"
	"fakturabg/internal/core"
)

// upsertRevenue handles POST /api/revenues.
func (h *Handler) upsertRevenue(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req struct {
		Date          string          `json:"date"`
		FiscalRevenue decimal.Decimal `json:"fiscal_revenue"`
		PocketMoney   decimal.Decimal `json:"pocket_money"`
		Notes         string          `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	revenue, err := h.svc.UpsertDailyRevenue(r.Context(), app.RevenueRequest{
		CompanyID:     user.CompanyID,
		UserID:        user.ID,
		Date:          req.Date,
		FiscalRevenue: req.FiscalRevenue,
		PocketMoney:   req.PocketMoney,
		Notes:         req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "create",
		EntityType: "daily_revenue",
		EntityID:   revenue.ID,
		IPAddress:  clientIP(r),
	})
	writeJSON(w, revenue)
}

// listRevenues handles GET /api/revenues.
func (h *Handler) listRevenues(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	q := r.URL.Query()
	revenues, err := h.svc.ListDailyRevenues(r.Context(), user.CompanyID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, revenues)
}

// createExpense handles POST /api/expenses.
func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req struct {
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Date        string          `json:"date"`
		Category    string          `json:"category"`
		Notes       string          `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	expense, err := h.svc.CreateExpense(r.Context(), app.ExpenseRequest{
		CompanyID:   user.CompanyID,
		UserID:      user.ID,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        req.Date,
		Category:    req.Category,
		Notes:       req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "create",
		EntityType: "expense",
		EntityID:   expense.ID,
		IPAddress:  clientIP(r),
	})
	writeJSON(w, expense)
}

// listExpenses handles GET /api/expenses.
func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	q := r.URL.Query()
	expenses, err := h.svc.ListExpenses(r.Context(), user.CompanyID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, expenses)
}

// deleteExpense handles DELETE /api/expenses/{id}.
func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	expenseID := chi.URLParam(r, "id")
	if err := h.svc.DeleteExpense(r.Context(), user.CompanyID, expenseID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "delete",
		EntityType: "expense",
		EntityID:   expenseID,
		IPAddress:  clientIP(r),
	})
	w.WriteHeader(http.StatusNoContent)
}
