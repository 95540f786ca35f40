package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fakturabg/internal/app"
	"fakturabg/internal/core"
)

// listAlerts handles GET /api/alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	q := r.URL.Query()
	alerts, err := h.svc.ListPriceAlerts(r.Context(), user.CompanyID, core.AlertStatus(q.Get("status")), intQuery(q.Get("limit"), 0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, alerts)
}

// updateAlertStatus handles PUT /api/alerts/{id}/status.
func (h *Handler) updateAlertStatus(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req struct {
		Status core.AlertStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.UpdateAlertStatus(r.Context(), user.CompanyID, chi.URLParam(r, "id"), req.Status); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getAlertSettings handles GET /api/alerts/settings.
func (h *Handler) getAlertSettings(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	settings, err := h.svc.GetAlertSettings(r.Context(), user.CompanyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, settings)
}

// setAlertSettings handles PUT /api/alerts/settings.
func (h *Handler) setAlertSettings(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req struct {
		ThresholdPercent decimal.Decimal `json:"threshold_percent"`
		Enabled          bool            `json:"enabled"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.svc.SetAlertSettings(r.Context(), user.CompanyID, app.AlertSettingsRequest{
		ThresholdPercent: req.ThresholdPercent,
		Enabled:          req.Enabled,
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
		EntityType: "alert_settings",
		Details: map[string]any{
			"threshold_percent": settings.ThresholdPercent,
			"enabled":           settings.Enabled,
		},
		IPAddress: clientIP(r),
	})
	writeJSON(w, settings)
}
