package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fakturabg/internal/app"
	"fakturabg/internal/core"
)

type invoiceItemRequest struct {
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type invoiceRequest struct {
	Supplier         string               `json:"supplier"`
	InvoiceNumber    string               `json:"invoice_number"`
	AmountWithoutVAT decimal.Decimal      `json:"amount_without_vat"`
	VATAmount        decimal.Decimal      `json:"vat_amount"`
	TotalAmount      decimal.Decimal      `json:"total_amount"`
	Date             string               `json:"date"`
	Notes            string               `json:"notes"`
	Items            []invoiceItemRequest `json:"items"`
}

func (req invoiceRequest) toApp(companyID, userID string) app.CreateInvoiceRequest {
	out := app.CreateInvoiceRequest{
		CompanyID:        companyID,
		UserID:           userID,
		Supplier:         req.Supplier,
		InvoiceNumber:    req.InvoiceNumber,
		AmountWithoutVAT: req.AmountWithoutVAT,
		VATAmount:        req.VATAmount,
		TotalAmount:      req.TotalAmount,
		Date:             req.Date,
		Notes:            req.Notes,
	}
	for _, it := range req.Items {
		out.Items = append(out.Items, app.InvoiceItemRequest{
			Name:       it.Name,
			Quantity:   it.Quantity,
			Unit:       it.Unit,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return out
}

// createInvoice handles POST /api/invoices.
func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req invoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreateInvoice(r.Context(), req.toApp(user.CompanyID, user.ID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "create",
		EntityType: "invoice",
		EntityID:   result.Invoice.ID,
		Details: map[string]any{
			"invoice_number": result.Invoice.InvoiceNumber,
			"supplier":       result.Invoice.Supplier,
			"total_amount":   result.Invoice.TotalAmount,
		},
		IPAddress: clientIP(r),
	})
	writeJSON(w, map[string]any{
		"invoice": result.Invoice,
		"alerts":  result.Alerts,
	})
}

// listInvoices handles GET /api/invoices.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	q := r.URL.Query()
	invoices, err := h.svc.ListInvoices(r.Context(), app.ListInvoicesRequest{
		CompanyID: user.CompanyID,
		Supplier:  q.Get("supplier"),
		Number:    q.Get("invoice_number"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoices)
}

// getInvoice handles GET /api/invoices/{id}.
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	invoice, err := h.svc.GetInvoice(r.Context(), user.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoice)
}

// updateInvoice handles PUT /api/invoices/{id}.
func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req invoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	invoiceID := chi.URLParam(r, "id")
	invoice, err := h.svc.UpdateInvoice(r.Context(), user.CompanyID, invoiceID, req.toApp(user.CompanyID, user.ID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "update",
		EntityType: "invoice",
		EntityID:   invoice.ID,
		IPAddress:  clientIP(r),
	})
	writeJSON(w, invoice)
}

// deleteInvoice handles DELETE /api/invoices/{id}.
func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	invoiceID := chi.URLParam(r, "id")
	if err := h.svc.DeleteInvoice(r.Context(), user.CompanyID, invoiceID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "delete",
		EntityType: "invoice",
		EntityID:   invoiceID,
		IPAddress:  clientIP(r),
	})
	w.WriteHeader(http.StatusNoContent)
}

// ocrScan handles POST /api/ocr/scan. The request carries a base64 image,
// optionally with a data: URL prefix.
func (h *Handler) ocrScan(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}

	var req struct {
		Image string `json:"image"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Image == "" {
		writeError(w, r, "image is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	scanned, err := h.svc.ScanInvoice(r.Context(), req.Image)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, scanned)
}
