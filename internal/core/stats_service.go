package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// occurrenceFetchLimit caps how many purchase lines one aggregation call will
// read. Windows larger than this are truncated rather than exhausting memory.
const occurrenceFetchLimit = 10000

// ItemStatsParams selects the window and shape of an item aggregation.
type ItemStatsParams struct {
	CompanyID  string
	StartDate  *time.Time // inclusive
	EndDate    *time.Time // inclusive
	TopN       int
	ApplyMerge bool
}

// Summary is the tenant-wide money overview for a window. Fiscal VAT is the
// VAT embedded in gross fiscal revenue at the standard 20% rate (×0.2/1.2);
// pocket money stays outside the VAT base.
type Summary struct {
	TotalInvoiceAmount decimal.Decimal `json:"total_invoice_amount"`
	TotalInvoiceVAT    decimal.Decimal `json:"total_invoice_vat"`
	TotalFiscalRevenue decimal.Decimal `json:"total_fiscal_revenue"`
	TotalPocketMoney   decimal.Decimal `json:"total_pocket_money"`
	FiscalVAT          decimal.Decimal `json:"fiscal_vat"`
	VATToPay           decimal.Decimal `json:"vat_to_pay"`
	TotalOtherExpenses decimal.Decimal `json:"total_non_invoice_expenses"`
	TotalIncome        decimal.Decimal `json:"total_income"`
	TotalExpense       decimal.Decimal `json:"total_expense"`
	Profit             decimal.Decimal `json:"profit"`
	InvoiceCount       int             `json:"invoice_count"`
}

// ChartPoint is one day of the income/expense/VAT series.
type ChartPoint struct {
	Date    string          `json:"date"`  // YYYY-MM-DD
	Label   string          `json:"label"` // MM-DD
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	VAT     decimal.Decimal `json:"vat"`
}

// SupplierStat is one supplier's rollup across the tenant's invoices.
type SupplierStat struct {
	Supplier     string          `json:"supplier"`
	InvoiceCount int             `json:"invoice_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalVAT     decimal.Decimal `json:"total_vat"`
	AvgInvoice   decimal.Decimal `json:"avg_invoice"`
}

// StatsService computes tenant-scoped statistics. All methods return
// zero-valued results, not errors, when the tenant has no matching data.
type StatsService interface {
	// ItemStatistics aggregates purchase lines into product buckets, folding
	// name variants through the merge mapping when ApplyMerge is set. The
	// variant index is rebuilt from the store on every call; a concurrent
	// mapping edit means results reflect an unspecified-but-recent snapshot.
	ItemStatistics(ctx context.Context, p ItemStatsParams) (*ItemStatistics, error)

	// Summary returns invoice/revenue/expense totals and the VAT position.
	Summary(ctx context.Context, companyID string, start, end *time.Time) (*Summary, error)

	// ChartData returns the per-day series for a trailing window.
	// period is one of "week", "month", "year" (default year).
	ChartData(ctx context.Context, companyID, period string) ([]ChartPoint, error)

	// SupplierStatistics rolls invoices up by supplier, descending by total
	// amount, capped at topN (DefaultTopN when <= 0).
	SupplierStatistics(ctx context.Context, companyID string, start, end *time.Time, topN int) ([]SupplierStat, error)
}

type statsService struct {
	pool  *pgxpool.Pool
	merge MergeService
}

// NewStatsService constructs a StatsService. The merge service supplies the
// variant index when merged aggregation is requested.
func NewStatsService(pool *pgxpool.Pool, merge MergeService) StatsService {
	return &statsService{pool: pool, merge: merge}
}

func (s *statsService) ItemStatistics(ctx context.Context, p ItemStatsParams) (*ItemStatistics, error) {
	if p.CompanyID == "" {
		return emptyItemStatistics(), nil
	}

	var index VariantIndex
	groupCount := 0
	if p.ApplyMerge {
		var err error
		index, err = s.merge.BuildVariantIndex(ctx, p.CompanyID)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		for _, e := range index {
			if !seen[e.CanonicalKey] {
				seen[e.CanonicalKey] = true
				groupCount++
			}
		}
	}

	occurrences, err := s.fetchOccurrences(ctx, p.CompanyID, p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}

	stats := AggregateItems(occurrences, index, p.TopN)
	stats.MergeApplied = p.ApplyMerge
	stats.MergeGroupsCount = groupCount
	return stats, nil
}

// fetchOccurrences reads the tenant's purchase lines for the window in
// chronological order, bounded by occurrenceFetchLimit.
func (s *statsService) fetchOccurrences(ctx context.Context, companyID string, start, end *time.Time) ([]ItemOccurrence, error) {
	q := `
		SELECT id, company_id, supplier, supplier_key, item_name, item_key,
		       unit_price, quantity, unit, invoice_id, invoice_number, invoice_date, created_at
		FROM item_occurrences
		WHERE company_id = $1`
	args := []any{companyID}
	if start != nil {
		args = append(args, *start)
		q += fmt.Sprintf(" AND invoice_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		q += fmt.Sprintf(" AND invoice_date <= $%d", len(args))
	}
	args = append(args, occurrenceFetchLimit)
	q += fmt.Sprintf(" ORDER BY invoice_date ASC, created_at ASC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query item occurrences: %w", err)
	}
	defer rows.Close()

	var occurrences []ItemOccurrence
	for rows.Next() {
		var o ItemOccurrence
		if err := rows.Scan(
			&o.ID, &o.CompanyID, &o.Supplier, &o.SupplierKey, &o.ItemName, &o.ItemKey,
			&o.UnitPrice, &o.Quantity, &o.Unit, &o.InvoiceID, &o.InvoiceNumber, &o.InvoiceDate, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item occurrence: %w", err)
		}
		occurrences = append(occurrences, o)
	}
	return occurrences, rows.Err()
}

var (
	vatRate    = decimal.NewFromFloat(0.2)
	vatDivisor = decimal.NewFromFloat(1.2)
	hundred    = decimal.NewFromInt(100)
)

// fiscalVATOf extracts the VAT embedded in a gross fiscal amount.
func fiscalVATOf(gross decimal.Decimal) decimal.Decimal {
	return gross.Mul(vatRate).Div(vatDivisor)
}

func (s *statsService) Summary(ctx context.Context, companyID string, start, end *time.Time) (*Summary, error) {
	sum := &Summary{}
	if companyID == "" {
		return sum, nil
	}

	var invoiceCount int
	err := s.queryWindowRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COALESCE(SUM(vat_amount), 0), COUNT(*)
		FROM invoices WHERE company_id = $1`, "invoice_date", companyID, start, end,
		&sum.TotalInvoiceAmount, &sum.TotalInvoiceVAT, &invoiceCount)
	if err != nil {
		return nil, fmt.Errorf("summary invoices: %w", err)
	}
	sum.InvoiceCount = invoiceCount

	err = s.queryWindowRow(ctx, `
		SELECT COALESCE(SUM(fiscal_revenue), 0), COALESCE(SUM(pocket_money), 0)
		FROM daily_revenues WHERE company_id = $1`, "revenue_date", companyID, start, end,
		&sum.TotalFiscalRevenue, &sum.TotalPocketMoney)
	if err != nil {
		return nil, fmt.Errorf("summary revenues: %w", err)
	}

	err = s.queryWindowRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses WHERE company_id = $1`, "expense_date", companyID, start, end,
		&sum.TotalOtherExpenses)
	if err != nil {
		return nil, fmt.Errorf("summary expenses: %w", err)
	}

	sum.FiscalVAT = fiscalVATOf(sum.TotalFiscalRevenue).Round(2)
	sum.VATToPay = sum.FiscalVAT.Sub(sum.TotalInvoiceVAT)
	sum.TotalIncome = sum.TotalFiscalRevenue.Add(sum.TotalPocketMoney)
	sum.TotalExpense = sum.TotalInvoiceAmount.Add(sum.TotalOtherExpenses)
	sum.Profit = sum.TotalIncome.Sub(sum.TotalExpense)
	return sum, nil
}

// queryWindowRow appends optional date bounds on dateCol to a base query that
// already filters by company_id as $1, then scans the single result row.
func (s *statsService) queryWindowRow(ctx context.Context, base, dateCol, companyID string, start, end *time.Time, dest ...any) error {
	args := []any{companyID}
	q := base
	if start != nil {
		args = append(args, *start)
		q += fmt.Sprintf(" AND %s >= $%d", dateCol, len(args))
	}
	if end != nil {
		args = append(args, *end)
		q += fmt.Sprintf(" AND %s <= $%d", dateCol, len(args))
	}
	return s.pool.QueryRow(ctx, q, args...).Scan(dest...)
}

func (s *statsService) ChartData(ctx context.Context, companyID, period string) ([]ChartPoint, error) {
	if companyID == "" {
		return nil, nil
	}

	days := 365
	switch period {
	case "week":
		days = 7
	case "month":
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	type dayAcc struct{ income, expense, vat decimal.Decimal }
	daily := map[string]*dayAcc{}
	day := func(t time.Time) *dayAcc {
		key := t.Format("2006-01-02")
		a, ok := daily[key]
		if !ok {
			a = &dayAcc{}
			daily[key] = a
		}
		return a
	}

	rows, err := s.pool.Query(ctx, `
		SELECT invoice_date, total_amount, vat_amount
		FROM invoices WHERE company_id = $1 AND invoice_date >= $2`,
		companyID, since)
	if err != nil {
		return nil, fmt.Errorf("chart invoices: %w", err)
	}
	for rows.Next() {
		var d time.Time
		var total, vat decimal.Decimal
		if err := rows.Scan(&d, &total, &vat); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chart invoice: %w", err)
		}
		a := day(d)
		a.expense = a.expense.Add(total)
		a.vat = a.vat.Sub(vat) // purchase VAT is credit
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT revenue_date, fiscal_revenue, pocket_money
		FROM daily_revenues WHERE company_id = $1 AND revenue_date >= $2`,
		companyID, since)
	if err != nil {
		return nil, fmt.Errorf("chart revenues: %w", err)
	}
	for rows.Next() {
		var d time.Time
		var fiscal, pocket decimal.Decimal
		if err := rows.Scan(&d, &fiscal, &pocket); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chart revenue: %w", err)
		}
		a := day(d)
		a.income = a.income.Add(fiscal).Add(pocket)
		a.vat = a.vat.Add(fiscalVATOf(fiscal))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT expense_date, amount
		FROM expenses WHERE company_id = $1 AND expense_date >= $2`,
		companyID, since)
	if err != nil {
		return nil, fmt.Errorf("chart expenses: %w", err)
	}
	for rows.Next() {
		var d time.Time
		var amount decimal.Decimal
		if err := rows.Scan(&d, &amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chart expense: %w", err)
		}
		a := day(d)
		a.expense = a.expense.Add(amount)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(daily))
	for k := range daily {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]ChartPoint, 0, len(keys))
	for _, k := range keys {
		a := daily[k]
		points = append(points, ChartPoint{
			Date:    k,
			Label:   k[5:],
			Income:  a.income.Round(2),
			Expense: a.expense.Round(2),
			VAT:     a.vat.Round(2),
		})
	}
	return points, nil
}

func (s *statsService) SupplierStatistics(ctx context.Context, companyID string, start, end *time.Time, topN int) ([]SupplierStat, error) {
	if companyID == "" {
		return nil, nil
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	q := `
		SELECT supplier, total_amount, vat_amount
		FROM invoices
		WHERE company_id = $1`
	args := []any{companyID}
	if start != nil {
		args = append(args, *start)
		q += fmt.Sprintf(" AND invoice_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		q += fmt.Sprintf(" AND invoice_date <= $%d", len(args))
	}
	q += " ORDER BY invoice_date ASC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query supplier statistics: %w", err)
	}
	defer rows.Close()

	byKey := map[string]*SupplierStat{}
	var order []string
	for rows.Next() {
		var supplier string
		var total, vat decimal.Decimal
		if err := rows.Scan(&supplier, &total, &vat); err != nil {
			return nil, fmt.Errorf("scan supplier row: %w", err)
		}
		key := NormalizeSupplierKey(supplier)
		st, ok := byKey[key]
		if !ok {
			st = &SupplierStat{Supplier: supplier}
			byKey[key] = st
			order = append(order, key)
		}
		st.InvoiceCount++
		st.TotalAmount = st.TotalAmount.Add(total)
		st.TotalVAT = st.TotalVAT.Add(vat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]SupplierStat, 0, len(order))
	for _, key := range order {
		st := byKey[key]
		st.AvgInvoice = st.TotalAmount.Div(decimal.NewFromInt(int64(st.InvoiceCount))).Round(2)
		stats = append(stats, *st)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalAmount.GreaterThan(stats[j].TotalAmount)
	})
	if len(stats) > topN {
		stats = stats[:topN]
	}
	return stats, nil
}

func emptyItemStatistics() *ItemStatistics {
	return &ItemStatistics{
		TopByQuantity:  []ItemBucket{},
		TopByValue:     []ItemBucket{},
		TopByFrequency: []ItemBucket{},
	}
}
