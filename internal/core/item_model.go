package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemOccurrence is one purchase line: the unit of item price history.
// Created once when an invoice line is recorded, never mutated, deleted
// only when the parent invoice is deleted.
type ItemOccurrence struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	Supplier      string          `json:"supplier"`
	SupplierKey   string          `json:"-"`
	ItemName      string          `json:"item_name"`
	ItemKey       string          `json:"-"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MergeMapping is an equivalence class of item names: every variant key folds
// into the canonical key when statistics are aggregated with merging on.
type MergeMapping struct {
	CompanyID    string    `json:"company_id"`
	CanonicalKey string    `json:"canonical_name"`
	DisplayName  string    `json:"display_name"`
	Variants     []string  `json:"variants"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MergeGroup is one proposed equivalence class returned by the grouping
// oracle, before it is accepted and persisted as a MergeMapping.
type MergeGroup struct {
	CanonicalName string   `json:"canonical_name" jsonschema_description:"The best human-readable product name for this group, chosen from the variants"`
	Variants      []string `json:"variants" jsonschema_description:"All item names from the input list that denote this same product, including the canonical one"`
}

type AlertStatus string

const (
	AlertUnread    AlertStatus = "unread"
	AlertRead      AlertStatus = "read"
	AlertDismissed AlertStatus = "dismissed"
)

// PriceAlert records a unit-price increase that met the tenant's threshold.
// ChangePercent is fixed at creation time and never recomputed.
type PriceAlert struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	ItemName      string          `json:"item_name"`
	Supplier      string          `json:"supplier"`
	OldPrice      decimal.Decimal `json:"old_price"`
	NewPrice      decimal.Decimal `json:"new_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Status        AlertStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AlertSettings is the per-tenant alerting configuration. Absent rows read
// as the defaults (10%, enabled).
type AlertSettings struct {
	CompanyID        string          `json:"company_id"`
	ThresholdPercent decimal.Decimal `json:"threshold_percent"`
	Enabled          bool            `json:"enabled"`
}

// DefaultAlertSettings returns the settings applied when a tenant has never
// written any.
func DefaultAlertSettings(companyID string) AlertSettings {
	return AlertSettings{
		CompanyID:        companyID,
		ThresholdPercent: decimal.NewFromInt(10),
		Enabled:          true,
	}
}
