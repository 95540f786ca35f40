package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fakturabg/internal/app"
	"fakturabg/internal/core"
)

type companyRequest struct {
	Name      string `json:"name"`
	EIK       string `json:"eik"`
	VATNumber string `json:"vat_number"`
	MOL       string `json:"mol"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

func (req companyRequest) toApp() app.CompanyRequest {
	return app.CompanyRequest{
		Name:      req.Name,
		EIK:       req.EIK,
		VATNumber: req.VATNumber,
		MOL:       req.MOL,
		Address:   req.Address,
		City:      req.City,
		Phone:     req.Phone,
		Email:     req.Email,
	}
}

// createCompany handles POST /api/company.
func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request) {
	user := authFromContext(r.Context())
	if user == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	var req companyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.svc.CreateCompany(r.Context(), user.ID, req.toApp())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  company.ID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "create",
		EntityType: "company",
		EntityID:   company.ID,
		IPAddress:  clientIP(r),
	})
	writeJSON(w, company)
}

// getCompany handles GET /api/company.
func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	company, err := h.svc.GetCompany(r.Context(), user.CompanyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, company)
}

// updateCompany handles PUT /api/company.
func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	if user.Role != core.RoleOwner && user.Role != core.RoleAccountant {
		writeError(w, r, "insufficient permissions", "FORBIDDEN", http.StatusForbidden)
		return
	}

	var req companyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.svc.UpdateCompany(r.Context(), user.CompanyID, req.toApp())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  company.ID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "update",
		EntityType: "company",
		EntityID:   company.ID,
		IPAddress:  clientIP(r),
	})
	writeJSON(w, company)
}

// listMembers handles GET /api/company/members.
func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	members, err := h.svc.ListMembers(r.Context(), user.CompanyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, members)
}

// setMemberRole handles PUT /api/company/members/{id}/role.
func (h *Handler) setMemberRole(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	if user.Role != core.RoleOwner {
		writeError(w, r, "insufficient permissions", "FORBIDDEN", http.StatusForbidden)
		return
	}

	var req struct {
		Role core.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	memberID := chi.URLParam(r, "id")
	if err := h.svc.SetMemberRole(r.Context(), user.CompanyID, memberID, req.Role); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "update",
		EntityType: "user",
		EntityID:   memberID,
		Details:    map[string]any{"role": req.Role},
		IPAddress:  clientIP(r),
	})
	w.WriteHeader(http.StatusNoContent)
}

// createInvitation handles POST /api/company/invitations.
func (h *Handler) createInvitation(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	if user.Role != core.RoleOwner && user.Role != core.RoleAccountant {
		writeError(w, r, "insufficient permissions", "FORBIDDEN", http.StatusForbidden)
		return
	}

	var req struct {
		Role core.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	inv, err := h.svc.InviteMember(r.Context(), user.CompanyID, user.ID, req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

// joinCompany handles POST /api/company/join.
func (h *Handler) joinCompany(w http.ResponseWriter, r *http.Request) {
	user := authFromContext(r.Context())
	if user == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.svc.AcceptInvitation(r.Context(), user.ID, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, company)
}

// leaveCompany handles POST /api/company/leave.
func (h *Handler) leaveCompany(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	if err := h.svc.LeaveCompany(r.Context(), user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
