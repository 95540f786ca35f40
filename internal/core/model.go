package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleOwner      Role = "owner"
	RoleAccountant Role = "accountant"
	RoleStaff      Role = "staff"
)

type User struct {
	ID        string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   *string   `json:"picture,omitempty"`
	Role      Role      `json:"role"`
	CompanyID string    `json:"company_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	EIK       string    `json:"eik"`
	VATNumber *string   `json:"vat_number,omitempty"`
	MOL       *string   `json:"mol,omitempty"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Invitation struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	InvitedBy string    `json:"invited_by"`
	Role      Role      `json:"role"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

type InvoiceItem struct {
	ID         string          `json:"id"`
	InvoiceID  string          `json:"invoice_id"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type Invoice struct {
	ID               string          `json:"id"`
	CompanyID        string          `json:"company_id"`
	UserID           string          `json:"user_id"`
	Supplier         string          `json:"supplier"`
	InvoiceNumber    string          `json:"invoice_number"`
	AmountWithoutVAT decimal.Decimal `json:"amount_without_vat"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Date             time.Time       `json:"date"`
	Notes            *string         `json:"notes,omitempty"`
	Items            []InvoiceItem   `json:"items,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type DailyRevenue struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	UserID        string          `json:"user_id"`
	Date          time.Time       `json:"date"`
	FiscalRevenue decimal.Decimal `json:"fiscal_revenue"`
	PocketMoney   decimal.Decimal `json:"pocket_money"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Expense struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    *string         `json:"category,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Budget struct {
	ID             string          `json:"id"`
	CompanyID      string          `json:"company_id"`
	Month          string          `json:"month"` // YYYY-MM
	ExpenseLimit   decimal.Decimal `json:"expense_limit"`
	AlertThreshold decimal.Decimal `json:"alert_threshold"`
	CreatedAt      time.Time       `json:"created_at"`
}

type AuditLog struct {
	ID         string         `json:"id"`
	CompanyID  *string        `json:"company_id,omitempty"`
	UserID     string         `json:"user_id"`
	UserName   string         `json:"user_name"`
	Action     string         `json:"action"` // create, update, delete, login
	EntityType string         `json:"entity_type"`
	EntityID   *string        `json:"entity_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  *string        `json:"ip_address,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
