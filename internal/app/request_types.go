package app

import (
	"github.com/shopspring/decimal"
)

// RegisterRequest is the input for creating a new account.
type RegisterRequest struct {
	Email    string
	Name     string
	Password string
}

// CompanyRequest carries a company profile for create and update.
type CompanyRequest struct {
	Name      string
	EIK       string
	VATNumber string
	MOL       string
	Address   string
	City      string
	Phone     string
	Email     string
}

// CreateInvoiceRequest is the input for recording an invoice.
type CreateInvoiceRequest struct {
	CompanyID        string
	UserID           string
	Supplier         string
	InvoiceNumber    string
	AmountWithoutVAT decimal.Decimal
	VATAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	Date             string // YYYY-MM-DD
	Notes            string
	Items            []InvoiceItemRequest
}

// InvoiceItemRequest is a single line within a CreateInvoiceRequest.
type InvoiceItemRequest struct {
	Name       string
	Quantity   decimal.Decimal
	Unit       string
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal // zero means "quantity times unit price"
}

// ListInvoicesRequest narrows an invoice listing.
type ListInvoicesRequest struct {
	CompanyID string
	Supplier  string
	Number    string
	StartDate string // YYYY-MM-DD, empty means unbounded
	EndDate   string
}

// RevenueRequest is the input for recording one day's revenue.
type RevenueRequest struct {
	CompanyID     string
	UserID        string
	Date          string // YYYY-MM-DD
	FiscalRevenue decimal.Decimal
	PocketMoney   decimal.Decimal
	Notes         string
}

// ExpenseRequest is the input for recording a non-invoice expense.
type ExpenseRequest struct {
	CompanyID   string
	UserID      string
	Description string
	Amount      decimal.Decimal
	Date        string // YYYY-MM-DD
	Category    string
	Notes       string
}

// ItemStatsRequest selects the window and shape of an item aggregation.
type ItemStatsRequest struct {
	CompanyID  string
	StartDate  string // YYYY-MM-DD, empty means unbounded
	EndDate    string
	TopN       int
	ApplyMerge bool
}

// MergeMappingRequest is the input for storing an item-name merge mapping.
type MergeMappingRequest struct {
	CompanyID     string
	CanonicalName string
	Variants      []string
}

// AIMergeRequest asks the grouping oracle for a merge proposal over the item
// names seen in the window. Apply persists the valid groups immediately.
type AIMergeRequest struct {
	CompanyID string
	StartDate string // YYYY-MM-DD, empty means unbounded
	EndDate   string
	Apply     bool
}

// AlertSettingsRequest is the input for the tenant's alerting configuration.
type AlertSettingsRequest struct {
	ThresholdPercent decimal.Decimal
	Enabled          bool
}

// NotificationSettingsRequest replaces a user's notification preferences.
type NotificationSettingsRequest struct {
	VATThresholdEnabled bool
	VATThresholdAmount  decimal.Decimal
	PeriodicEnabled     bool
	PeriodicDates       []int
}

// BudgetRequest is the input for a monthly expense budget.
type BudgetRequest struct {
	CompanyID      string
	Month          string // YYYY-MM
	ExpenseLimit   decimal.Decimal
	AlertThreshold decimal.Decimal // percent of the limit, zero means 80
}
