package app

import (
	"context"

	"fakturabg/internal/core"
)

// ApplicationService is the single interface the web adapter calls. It
// decouples presentation from business logic. Implementations must contain
// no display logic of any kind.
type ApplicationService interface {
	// RegisterUser creates an account and returns the new user.
	RegisterUser(ctx context.Context, req RegisterRequest) (*core.User, error)

	// AuthenticateUser verifies credentials and returns the user on success.
	AuthenticateUser(ctx context.Context, email, password string) (*core.User, error)

	// GetUser returns a user profile by ID.
	GetUser(ctx context.Context, userID string) (*core.User, error)

	// CreateCompany creates a company and attaches the creator as its owner.
	CreateCompany(ctx context.Context, userID string, req CompanyRequest) (*core.Company, error)

	// GetCompany returns the company profile.
	GetCompany(ctx context.Context, companyID string) (*core.Company, error)

	// UpdateCompany updates the company profile.
	UpdateCompany(ctx context.Context, companyID string, req CompanyRequest) (*core.Company, error)

	// ListMembers returns the company's users.
	ListMembers(ctx context.Context, companyID string) ([]core.User, error)

	// InviteMember creates a single-use invitation code for the company.
	InviteMember(ctx context.Context, companyID, invitedBy string, role core.Role) (*core.Invitation, error)

	// SetMemberRole changes a member's role within the company. The target
	// must belong to the company; owners cannot be demoted this way.
	SetMemberRole(ctx context.Context, companyID, userID string, role core.Role) error

	// AcceptInvitation redeems an invitation code and attaches the user.
	AcceptInvitation(ctx context.Context, userID, code string) (*core.Company, error)

	// LeaveCompany detaches the user from their company. Owners cannot leave.
	LeaveCompany(ctx context.Context, userID string) error

	// CreateInvoice records an invoice with its line items. Each line is
	// appended to the item price history and may raise price alerts, which
	// are returned alongside the invoice.
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error)

	// ListInvoices returns the tenant's invoices, newest first, optionally
	// filtered by supplier, number, and date range.
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]core.Invoice, error)

	// GetInvoice returns one invoice with its line items.
	GetInvoice(ctx context.Context, companyID, invoiceID string) (*core.Invoice, error)

	// UpdateInvoice updates invoice header fields. Line items are immutable;
	// delete and re-create the invoice to change them.
	UpdateInvoice(ctx context.Context, companyID, invoiceID string, req CreateInvoiceRequest) (*core.Invoice, error)

	// DeleteInvoice removes the invoice, its line items, and their price
	// history. Alerts already raised are kept.
	DeleteInvoice(ctx context.Context, companyID, invoiceID string) error

	// UpsertDailyRevenue records or overwrites one day's revenue.
	UpsertDailyRevenue(ctx context.Context, req RevenueRequest) (*core.DailyRevenue, error)

	// ListDailyRevenues returns revenue entries for an optional date window.
	ListDailyRevenues(ctx context.Context, companyID, startDate, endDate string) ([]core.DailyRevenue, error)

	// CreateExpense records a non-invoice expense.
	CreateExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error)

	// ListExpenses returns expenses for an optional date window.
	ListExpenses(ctx context.Context, companyID, startDate, endDate string) ([]core.Expense, error)

	// DeleteExpense removes an expense.
	DeleteExpense(ctx context.Context, companyID, expenseID string) error

	// GetSummary returns the tenant's money overview and VAT position.
	GetSummary(ctx context.Context, companyID, startDate, endDate string) (*core.Summary, error)

	// GetChartData returns the per-day income/expense/VAT series.
	// period is "week", "month", or "year".
	GetChartData(ctx context.Context, companyID, period string) ([]core.ChartPoint, error)

	// GetSupplierStatistics rolls invoices up by supplier.
	GetSupplierStatistics(ctx context.Context, companyID, startDate, endDate string, topN int) ([]core.SupplierStat, error)

	// GetItemStatistics aggregates purchase lines into product groups,
	// optionally folding name variants through the merge mappings.
	GetItemStatistics(ctx context.Context, req ItemStatsRequest) (*core.ItemStatistics, error)

	// ListMergeMappings returns the tenant's item-name merge mappings.
	ListMergeMappings(ctx context.Context, companyID string) ([]core.MergeMapping, error)

	// UpsertMergeMapping stores or overwrites one merge mapping.
	UpsertMergeMapping(ctx context.Context, req MergeMappingRequest) (*core.MergeMapping, error)

	// DeleteMergeMapping removes a mapping by its canonical name.
	DeleteMergeMapping(ctx context.Context, companyID, canonicalName string) error

	// ProposeMergeGroups asks the grouping oracle to cluster the tenant's
	// item names. Oracle failures degrade to an empty proposal with a
	// message rather than an error. When req.Apply is set, valid groups are
	// persisted as merge mappings before returning.
	ProposeMergeGroups(ctx context.Context, req AIMergeRequest) (*AIMergeResult, error)

	// ListPriceAlerts returns price alerts, optionally filtered by status.
	ListPriceAlerts(ctx context.Context, companyID string, status core.AlertStatus, limit int) ([]core.PriceAlert, error)

	// UpdateAlertStatus marks an alert read or dismissed.
	UpdateAlertStatus(ctx context.Context, companyID, alertID string, status core.AlertStatus) error

	// GetAlertSettings returns the tenant's alert settings or the defaults.
	GetAlertSettings(ctx context.Context, companyID string) (*core.AlertSettings, error)

	// SetAlertSettings upserts the tenant's alert settings.
	SetAlertSettings(ctx context.Context, companyID string, req AlertSettingsRequest) (*core.AlertSettings, error)

	// GetNotificationSettings returns the user's notification preferences or
	// the defaults.
	GetNotificationSettings(ctx context.Context, userID string) (*core.NotificationSettings, error)

	// SetNotificationSettings replaces the user's notification preferences.
	SetNotificationSettings(ctx context.Context, userID string, req NotificationSettingsRequest) (*core.NotificationSettings, error)

	// UpsertBudget stores or overwrites a monthly expense budget.
	UpsertBudget(ctx context.Context, req BudgetRequest) (*core.Budget, error)

	// ListBudgets returns the tenant's budgets, newest month first.
	ListBudgets(ctx context.Context, companyID string) ([]core.Budget, error)

	// DeleteBudget removes the budget for a month.
	DeleteBudget(ctx context.Context, companyID, month string) error

	// GetBudgetStatus reports spending against the budget for a month.
	GetBudgetStatus(ctx context.Context, companyID, month string) (*core.BudgetStatus, error)

	// GetExpenseForecast projects monthly expenses forward.
	GetExpenseForecast(ctx context.Context, companyID string, monthsAhead int) (*core.Forecast, error)

	// GetRevenueForecast projects monthly revenue forward.
	GetRevenueForecast(ctx context.Context, companyID string, monthsAhead int) (*core.Forecast, error)

	// LogAction appends an audit record. Failures are logged, not returned:
	// auditing never fails the audited action.
	LogAction(ctx context.Context, entry core.AuditEntry)

	// ListAuditLogs returns the tenant's audit trail, newest first.
	ListAuditLogs(ctx context.Context, companyID string, filter core.AuditFilter) ([]core.AuditLog, error)

	// ScanInvoice extracts invoice header fields from a base64 image.
	ScanInvoice(ctx context.Context, imageBase64 string) (*ScannedInvoiceResult, error)

	// ExportInvoicesExcel renders the tenant's invoices as an xlsx workbook.
	ExportInvoicesExcel(ctx context.Context, companyID, startDate, endDate string) ([]byte, error)

	// ExportStatisticsExcel renders the tenant's summary as an xlsx workbook.
	ExportStatisticsExcel(ctx context.Context, companyID, startDate, endDate string) ([]byte, error)
}
