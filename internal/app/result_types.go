package app

import (
	"fakturabg/internal/core"
)

// InvoiceResult pairs a recorded invoice with the price alerts its line
// items raised.
type InvoiceResult struct {
	Invoice *core.Invoice     `json:"invoice"`
	Alerts  []core.PriceAlert `json:"alerts"`
}

// AIMergeResult is the outcome of a grouping-oracle run. When the oracle
// fails, Groups is empty and Message says so; callers still get a 200.
type AIMergeResult struct {
	Groups  []core.MergeGroup `json:"groups"`
	Applied int               `json:"applied"`
	Message string            `json:"message,omitempty"`
}

// ScannedInvoiceResult carries the fields extracted from an invoice image.
type ScannedInvoiceResult struct {
	Supplier         string  `json:"supplier"`
	InvoiceNumber    string  `json:"invoice_number"`
	AmountWithoutVAT float64 `json:"amount_without_vat"`
	VATAmount        float64 `json:"vat_amount"`
	TotalAmount      float64 `json:"total_amount"`
	InvoiceDate      string  `json:"invoice_date"`
}
