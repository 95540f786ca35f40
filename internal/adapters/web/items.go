package web

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"fakturabg/internal/app"
	"fakturabg/internal/core"
)

// listMergeMappings handles GET /api/items/merge-mappings.
func (h *Handler) listMergeMappings(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	mappings, err := h.svc.ListMergeMappings(r.Context(), user.CompanyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, mappings)
}

// upsertMergeMapping handles POST /api/items/merge-mappings.
func (h *Handler) upsertMergeMapping(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req struct {
		CanonicalName string   `json:"canonical_name"`
		Variants      []string `json:"variants"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	mapping, err := h.svc.UpsertMergeMapping(r.Context(), app.MergeMappingRequest{
		CompanyID:     user.CompanyID,
		CanonicalName: req.CanonicalName,
		Variants:      req.Variants,
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
		EntityType: "merge_mapping",
		EntityID:   mapping.CanonicalKey,
		Details:    map[string]any{"canonical_name": mapping.DisplayName},
		IPAddress:  clientIP(r),
	})
	writeJSON(w, mapping)
}

// deleteMergeMapping handles DELETE /api/items/merge-mappings/{canonical}.
func (h *Handler) deleteMergeMapping(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	canonical, err := url.PathUnescape(chi.URLParam(r, "canonical"))
	if err != nil {
		writeError(w, r, "malformed canonical name", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteMergeMapping(r.Context(), user.CompanyID, canonical); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "delete",
		EntityType: "merge_mapping",
		Details:    map[string]any{"canonical_name": canonical},
		IPAddress:  clientIP(r),
	})
	w.WriteHeader(http.StatusNoContent)
}

// aiMerge handles POST /api/items/ai-merge.
func (h *Handler) aiMerge(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Apply     bool   `json:"apply"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.ProposeMergeGroups(r.Context(), app.AIMergeRequest{
		CompanyID: user.CompanyID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Apply:     req.Apply,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if req.Apply && result.Applied > 0 {
		h.svc.LogAction(r.Context(), core.AuditEntry{
			CompanyID:  user.CompanyID,
			UserID:     user.ID,
			UserName:   user.Name,
			Action:     "update",
			EntityType: "merge_mapping",
			Details:    map[string]any{"applied_groups": result.Applied},
			IPAddress:  clientIP(r),
		})
	}
	writeJSON(w, result)
}
