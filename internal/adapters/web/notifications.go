package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fakturabg/internal/app"
)

// getNotificationSettings handles GET /api/notifications/settings. The
// settings are per user, not per company.
func (h *Handler) getNotificationSettings(w http.ResponseWriter, r *http.Request) {
	user := authFromContext(r.Context())
	if user == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	settings, err := h.svc.GetNotificationSettings(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, settings)
}

// setNotificationSettings handles PUT /api/notifications/settings.
func (h *Handler) setNotificationSettings(w http.ResponseWriter, r *http.Request) {
	user := authFromContext(r.Context())
	if user == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	var req struct {
		VATThresholdEnabled bool            `json:"vat_threshold_enabled"`
		VATThresholdAmount  decimal.Decimal `json:"vat_threshold_amount"`
		PeriodicEnabled     bool            `json:"periodic_enabled"`
		PeriodicDates       []int           `json:"periodic_dates"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.svc.SetNotificationSettings(r.Context(), user.ID, app.NotificationSettingsRequest{
		VATThresholdEnabled: req.VATThresholdEnabled,
		VATThresholdAmount:  req.VATThresholdAmount,
		PeriodicEnabled:     req.PeriodicEnabled,
		PeriodicDates:       req.PeriodicDates,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, settings)
}
