package web

import (
	"fmt"
	"net/http"
	"time"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportInvoices handles GET /api/export/excel.
func (h *Handler) exportInvoices(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	q := r.URL.Query()
	data, err := h.svc.ExportInvoicesExcel(r.Context(), user.CompanyID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serveXLSX(w, "fakturi", data)
}

// exportStatistics handles GET /api/export/statistics.
func (h *Handler) exportStatistics(w http.ResponseWriter, r *http.Request) {
	user := requireCompany(w, r)
	if user == nil {
		return
	}
	q := r.URL.Query()
	data, err := h.svc.ExportStatisticsExcel(r.Context(), user.CompanyID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serveXLSX(w, "statistika", data)
}

func serveXLSX(w http.ResponseWriter, prefix string, data []byte) {
	filename := fmt.Sprintf("%s_%s.xlsx", prefix, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
