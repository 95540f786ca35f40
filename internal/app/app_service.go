package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fakturabg/internal/ai"
	"fakturabg/internal/core"
)

type appService struct {
	pool     *pgxpool.Pool
	users    core.UserService
	company  core.CompanyService
	invoices core.InvoiceService
	revenue  core.RevenueService
	stats    core.StatsService
	merge    core.MergeService
	alerts   core.AlertService
	budgets  core.BudgetService
	forecast core.ForecastService
	notify   core.NotificationService
	audit    core.AuditService
	oracle   ai.GroupingOracle
	scanner  ai.InvoiceScanner
}

// NewAppService constructs an appService that satisfies ApplicationService.
// oracle and scanner may be nil; the AI operations then report the feature
// as unavailable instead of calling out.
func NewAppService(
	pool *pgxpool.Pool,
	users core.UserService,
	company core.CompanyService,
	invoices core.InvoiceService,
	revenue core.RevenueService,
	stats core.StatsService,
	merge core.MergeService,
	alerts core.AlertService,
	budgets core.BudgetService,
	forecast core.ForecastService,
	notify core.NotificationService,
	audit core.AuditService,
	oracle ai.GroupingOracle,
	scanner ai.InvoiceScanner,
) ApplicationService {
	return &appService{
		pool:     pool,
		users:    users,
		company:  company,
		invoices: invoices,
		revenue:  revenue,
		stats:    stats,
		merge:    merge,
		alerts:   alerts,
		budgets:  budgets,
		forecast: forecast,
		notify:   notify,
		audit:    audit,
		oracle:   oracle,
		scanner:  scanner,
	}
}

var errScannerUnavailable = errors.New("invoice scanning is not configured")

// parseDate parses an optional YYYY-MM-DD string. Empty means "unbounded".
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, core.NewValidationError("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

func (s *appService) RegisterUser(ctx context.Context, req RegisterRequest) (*core.User, error) {
	return s.users.Register(ctx, req.Email, req.Password, req.Name)
}

func (s *appService) AuthenticateUser(ctx context.Context, email, password string) (*core.User, error) {
	return s.users.Authenticate(ctx, email, password)
}

func (s *appService) GetUser(ctx context.Context, userID string) (*core.User, error) {
	return s.users.Get(ctx, userID)
}

func companyInput(req CompanyRequest) core.CompanyInput {
	return core.CompanyInput{
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

func (s *appService) CreateCompany(ctx context.Context, userID string, req CompanyRequest) (*core.Company, error) {
	return s.company.Create(ctx, userID, companyInput(req))
}

func (s *appService) GetCompany(ctx context.Context, companyID string) (*core.Company, error) {
	return s.company.Get(ctx, companyID)
}

func (s *appService) UpdateCompany(ctx context.Context, companyID string, req CompanyRequest) (*core.Company, error) {
	return s.company.Update(ctx, companyID, companyInput(req))
}

func (s *appService) ListMembers(ctx context.Context, companyID string) ([]core.User, error) {
	return s.company.Members(ctx, companyID)
}

func (s *appService) InviteMember(ctx context.Context, companyID, invitedBy string, role core.Role) (*core.Invitation, error) {
	return s.company.Invite(ctx, companyID, invitedBy, role)
}

func (s *appService) SetMemberRole(ctx context.Context, companyID, userID string, role core.Role) error {
	if role == core.RoleOwner {
		return core.NewValidationError("cannot grant the owner role")
	}
	target, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if target.CompanyID != companyID {
		return core.ErrNotFound
	}
	if target.Role == core.RoleOwner {
		return core.NewValidationError("cannot change the owner's role")
	}
	return s.users.SetRole(ctx, userID, role)
}

func (s *appService) AcceptInvitation(ctx context.Context, userID, code string) (*core.Company, error) {
	return s.company.AcceptInvitation(ctx, userID, code)
}

func (s *appService) LeaveCompany(ctx context.Context, userID string) error {
	return s.company.Leave(ctx, userID)
}

func invoiceInput(req CreateInvoiceRequest) (core.InvoiceInput, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.InvoiceInput{}, err
	}
	in := core.InvoiceInput{
		Supplier:         req.Supplier,
		InvoiceNumber:    req.InvoiceNumber,
		AmountWithoutVAT: req.AmountWithoutVAT,
		VATAmount:        req.VATAmount,
		TotalAmount:      req.TotalAmount,
		Notes:            req.Notes,
	}
	if date != nil {
		in.Date = *date
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, core.InvoiceItemInput{
			Name:       item.Name,
			Quantity:   item.Quantity,
			Unit:       item.Unit,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return in, nil
}

func (s *appService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error) {
	in, err := invoiceInput(req)
	if err != nil {
		return nil, err
	}
	inv, alerts, err := s.invoices.Create(ctx, req.CompanyID, req.UserID, in)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []core.PriceAlert{}
	}
	return &InvoiceResult{Invoice: inv, Alerts: alerts}, nil
}

func (s *appService) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]core.Invoice, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	return s.invoices.List(ctx, req.CompanyID, core.InvoiceFilter{
		Supplier:  req.Supplier,
		Number:    req.Number,
		StartDate: start,
		EndDate:   end,
	})
}

func (s *appService) GetInvoice(ctx context.Context, companyID, invoiceID string) (*core.Invoice, error) {
	return s.invoices.Get(ctx, companyID, invoiceID)
}

func (s *appService) UpdateInvoice(ctx context.Context, companyID, invoiceID string, req CreateInvoiceRequest) (*core.Invoice, error) {
	in, err := invoiceInput(req)
	if err != nil {
		return nil, err
	}
	return s.invoices.Update(ctx, companyID, invoiceID, in)
}

func (s *appService) DeleteInvoice(ctx context.Context, companyID, invoiceID string) error {
	return s.invoices.Delete(ctx, companyID, invoiceID)
}

func (s *appService) UpsertDailyRevenue(ctx context.Context, req RevenueRequest) (*core.DailyRevenue, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if date == nil {
		return nil, core.NewValidationError("revenue date is required")
	}
	return s.revenue.UpsertRevenue(ctx, req.CompanyID, req.UserID, *date, req.FiscalRevenue, req.PocketMoney, req.Notes)
}

func (s *appService) ListDailyRevenues(ctx context.Context, companyID, startDate, endDate string) ([]core.DailyRevenue, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return nil, err
	}
	return s.revenue.ListRevenues(ctx, companyID, start, end)
}

func (s *appService) CreateExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if date == nil {
		return nil, core.NewValidationError("expense date is required")
	}
	return s.revenue.CreateExpense(ctx, req.CompanyID, req.UserID, req.Description, req.Amount, *date, req.Category, req.Notes)
}

func (s *appService) ListExpenses(ctx context.Context, companyID, startDate, endDate string) ([]core.Expense, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return nil, err
	}
	return s.revenue.ListExpenses(ctx, companyID, start, end)
}

func (s *appService) DeleteExpense(ctx context.Context, companyID, expenseID string) error {
	return s.revenue.DeleteExpense(ctx, companyID, expenseID)
}

func (s *appService) GetSummary(ctx context.Context, companyID, startDate, endDate string) (*core.Summary, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return nil, err
	}
	return s.stats.Summary(ctx, companyID, start, end)
}

func (s *appService) GetChartData(ctx context.Context, companyID, period string) ([]core.ChartPoint, error) {
	return s.stats.ChartData(ctx, companyID, period)
}

func (s *appService) GetSupplierStatistics(ctx context.Context, companyID, startDate, endDate string, topN int) ([]core.SupplierStat, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return nil, err
	}
	return s.stats.SupplierStatistics(ctx, companyID, start, end, topN)
}

func (s *appService) GetItemStatistics(ctx context.Context, req ItemStatsRequest) (*core.ItemStatistics, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	return s.stats.ItemStatistics(ctx, core.ItemStatsParams{
		CompanyID:  req.CompanyID,
		StartDate:  start,
		EndDate:    end,
		TopN:       req.TopN,
		ApplyMerge: req.ApplyMerge,
	})
}

func (s *appService) ListMergeMappings(ctx context.Context, companyID string) ([]core.MergeMapping, error) {
	return s.merge.ListMappings(ctx, companyID)
}

func (s *appService) UpsertMergeMapping(ctx context.Context, req MergeMappingRequest) (*core.MergeMapping, error) {
	return s.merge.UpsertMapping(ctx, req.CompanyID, req.CanonicalName, req.Variants)
}

func (s *appService) DeleteMergeMapping(ctx context.Context, companyID, canonicalName string) error {
	return s.merge.DeleteMapping(ctx, companyID, core.NormalizeItemKey(canonicalName))
}

// distinctItemNames collects the distinct original item spellings in the
// window, first-seen order.
func (s *appService) distinctItemNames(ctx context.Context, companyID string, start, end string) ([]string, error) {
	stats, err := s.GetItemStatistics(ctx, ItemStatsRequest{
		CompanyID: companyID,
		StartDate: start,
		EndDate:   end,
		TopN:      maxNamesForOracle,
	})
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, b := range stats.TopByFrequency {
		for _, n := range b.OriginalNames {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names, nil
}

const maxNamesForOracle = 100

func (s *appService) ProposeMergeGroups(ctx context.Context, req AIMergeRequest) (*AIMergeResult, error) {
	if s.oracle == nil {
		return &AIMergeResult{Groups: []core.MergeGroup{}, Message: "AI grouping is not configured"}, nil
	}

	names, err := s.distinctItemNames(ctx, req.CompanyID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if len(names) < 2 {
		return &AIMergeResult{Groups: []core.MergeGroup{}, Message: "not enough item names to group"}, nil
	}

	groups, err := s.oracle.ProposeGroups(ctx, names)
	if err != nil {
		if core.IsExternal(err) {
			log.Printf("grouping oracle failed: %v", err)
			return &AIMergeResult{Groups: []core.MergeGroup{}, Message: "AI grouping is temporarily unavailable"}, nil
		}
		return nil, err
	}

	result := &AIMergeResult{Groups: groups}
	if req.Apply {
		for _, g := range groups {
			if _, err := s.merge.UpsertMapping(ctx, req.CompanyID, g.CanonicalName, g.Variants); err != nil {
				// A rejected group (key collision with an existing mapping)
				// skips that group, not the whole run.
				if core.IsValidation(err) {
					log.Printf("skipping merge group %q: %v", g.CanonicalName, err)
					continue
				}
				return nil, err
			}
			result.Applied++
		}
	}
	return result, nil
}

func (s *appService) ListPriceAlerts(ctx context.Context, companyID string, status core.AlertStatus, limit int) ([]core.PriceAlert, error) {
	return s.alerts.ListAlerts(ctx, companyID, status, limit)
}

func (s *appService) UpdateAlertStatus(ctx context.Context, companyID, alertID string, status core.AlertStatus) error {
	return s.alerts.UpdateAlertStatus(ctx, companyID, alertID, status)
}

func (s *appService) GetAlertSettings(ctx context.Context, companyID string) (*core.AlertSettings, error) {
	return s.alerts.GetSettings(ctx, companyID)
}

func (s *appService) SetAlertSettings(ctx context.Context, companyID string, req AlertSettingsRequest) (*core.AlertSettings, error) {
	return s.alerts.SetSettings(ctx, companyID, req.ThresholdPercent, req.Enabled)
}

func (s *appService) UpsertBudget(ctx context.Context, req BudgetRequest) (*core.Budget, error) {
	return s.budgets.Upsert(ctx, req.CompanyID, req.Month, req.ExpenseLimit, req.AlertThreshold)
}

func (s *appService) ListBudgets(ctx context.Context, companyID string) ([]core.Budget, error) {
	return s.budgets.List(ctx, companyID)
}

func (s *appService) DeleteBudget(ctx context.Context, companyID, month string) error {
	return s.budgets.Delete(ctx, companyID, month)
}

func (s *appService) GetBudgetStatus(ctx context.Context, companyID, month string) (*core.BudgetStatus, error) {
	return s.budgets.Status(ctx, companyID, month)
}

func (s *appService) GetNotificationSettings(ctx context.Context, userID string) (*core.NotificationSettings, error) {
	return s.notify.GetSettings(ctx, userID)
}

func (s *appService) SetNotificationSettings(ctx context.Context, userID string, req NotificationSettingsRequest) (*core.NotificationSettings, error) {
	return s.notify.SetSettings(ctx, userID, core.NotificationSettingsInput{
		VATThresholdEnabled: req.VATThresholdEnabled,
		VATThresholdAmount:  req.VATThresholdAmount,
		PeriodicEnabled:     req.PeriodicEnabled,
		PeriodicDates:       req.PeriodicDates,
	})
}

func (s *appService) GetExpenseForecast(ctx context.Context, companyID string, monthsAhead int) (*core.Forecast, error) {
	f, err := s.forecast.ExpenseForecast(ctx, companyID, monthsAhead)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *appService) GetRevenueForecast(ctx context.Context, companyID string, monthsAhead int) (*core.Forecast, error) {
	f, err := s.forecast.RevenueForecast(ctx, companyID, monthsAhead)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *appService) LogAction(ctx context.Context, entry core.AuditEntry) {
	if err := s.audit.Log(ctx, entry); err != nil {
		log.Printf("audit log failed: %v", err)
	}
}

func (s *appService) ListAuditLogs(ctx context.Context, companyID string, filter core.AuditFilter) ([]core.AuditLog, error) {
	return s.audit.List(ctx, companyID, filter)
}

func (s *appService) ScanInvoice(ctx context.Context, imageBase64 string) (*ScannedInvoiceResult, error) {
	if s.scanner == nil {
		return nil, &core.ExternalServiceError{Op: "scan invoice", Err: errScannerUnavailable}
	}
	scanned, err := s.scanner.ScanInvoice(ctx, imageBase64)
	if err != nil {
		return nil, err
	}
	return &ScannedInvoiceResult{
		Supplier:         scanned.Supplier,
		InvoiceNumber:    scanned.InvoiceNumber,
		AmountWithoutVAT: scanned.AmountWithoutVAT,
		VATAmount:        scanned.VATAmount,
		TotalAmount:      scanned.TotalAmount,
		InvoiceDate:      scanned.InvoiceDate,
	}, nil
}
