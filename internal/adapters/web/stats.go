package web

import (
	"net/http"
	"strconv"

	"fakturabg/internal/app"
)

// statsSummary handles GET /api/statistics/summary.
func (h *Handler) statsSummary(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	q := r.URL.Query()
	summary, err := h.svc.GetSummary(r.Context(), user.CompanyID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// statsChartData handles GET /api/statistics/chart-data.
func (h *Handler) statsChartData(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	points, err := h.svc.GetChartData(r.Context(), user.CompanyID, chartPeriod(r.URL.Query().Get("period")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, points)
}

// statsSuppliers handles GET /api/statistics/suppliers.
func (h *Handler) statsSuppliers(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	q := r.URL.Query()
	stats, err := h.svc.GetSupplierStatistics(r.Context(), user.CompanyID, q.Get("start_date"), q.Get("end_date"), intQuery(q.Get("top_n"), 0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stats)
}

// statsItems handles GET /api/statistics/items/merged.
func (h *Handler) statsItems(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	q := r.URL.Query()
	applyMerge := true
	if q.Get("apply_merge") == "false" {
		applyMerge = false
	}

	stats, err := h.svc.GetItemStatistics(r.Context(), app.ItemStatsRequest{
		CompanyID:  user.CompanyID,
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		TopN:       intQuery(q.Get("top_n"), 0),
		ApplyMerge: applyMerge,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stats)
}

// chartPeriod resolves the ?period= query parameter; an absent value means
// the trailing week.
func chartPeriod(raw string) string {
	if raw == "" {
		return "week"
	}
	return raw
}

// intQuery parses a query parameter as an int, falling back for empty or
// malformed values.
func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
