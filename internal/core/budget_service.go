package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// BudgetStatus is the live position of one month's budget.
type BudgetStatus struct {
	Budget           Budget          `json:"budget"`
	Spent            decimal.Decimal `json:"spent"`
	PercentUsed      decimal.Decimal `json:"percent_used"`
	ThresholdReached bool            `json:"threshold_reached"`
	OverLimit        bool            `json:"over_limit"`
}

// BudgetService owns monthly expense budgets. Spending counts invoice totals
// plus non-invoice expenses dated inside the month.
type BudgetService interface {
	Upsert(ctx context.Context, companyID, month string, limit, alertThreshold decimal.Decimal) (*Budget, error)
	List(ctx context.Context, companyID string) ([]Budget, error)
	Delete(ctx context.Context, companyID, month string) error
	Status(ctx context.Context, companyID, month string) (*BudgetStatus, error)
}

type budgetService struct {
	pool *pgxpool.Pool
}

// NewBudgetService constructs a BudgetService backed by PostgreSQL.
func NewBudgetService(pool *pgxpool.Pool) BudgetService {
	return &budgetService{pool: pool}
}

func (s *budgetService) Upsert(ctx context.Context, companyID, month string, limit, alertThreshold decimal.Decimal) (*Budget, error) {
	if !monthPattern.MatchString(month) {
		return nil, NewValidationError("month must be in YYYY-MM format")
	}
	if limit.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("expense limit must be positive")
	}
	if alertThreshold.LessThanOrEqual(decimal.Zero) {
		alertThreshold = decimal.NewFromInt(80)
	}

	b := &Budget{CompanyID: companyID, Month: month, ExpenseLimit: limit, AlertThreshold: alertThreshold}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO budgets (id, company_id, month, expense_limit, alert_threshold)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, month)
		DO UPDATE SET expense_limit = EXCLUDED.expense_limit,
		              alert_threshold = EXCLUDED.alert_threshold
		RETURNING id, created_at`,
		uuid.NewString(), companyID, month, limit, alertThreshold,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	return b, nil
}

func (s *budgetService) List(ctx context.Context, companyID string) ([]Budget, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, month, expense_limit, alert_threshold, created_at
		FROM budgets WHERE company_id = $1 ORDER BY month DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.CompanyID, &b.Month, &b.ExpenseLimit, &b.AlertThreshold, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *budgetService) Delete(ctx context.Context, companyID, month string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM budgets WHERE company_id = $1 AND month = $2", companyID, month)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("budget %s: %w", month, ErrNotFound)
	}
	return nil
}

func (s *budgetService) Status(ctx context.Context, companyID, month string) (*BudgetStatus, error) {
	if !monthPattern.MatchString(month) {
		return nil, NewValidationError("month must be in YYYY-MM format")
	}

	b := Budget{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, company_id, month, expense_limit, alert_threshold, created_at
		FROM budgets WHERE company_id = $1 AND month = $2`,
		companyID, month,
	).Scan(&b.ID, &b.CompanyID, &b.Month, &b.ExpenseLimit, &b.AlertThreshold, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("budget %s: %w", month, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, NewValidationError("month must be in YYYY-MM format")
	}
	end := start.AddDate(0, 1, -1)

	var invoiceTotal, expenseTotal decimal.Decimal
	if err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM invoices
		WHERE company_id = $1 AND invoice_date >= $2 AND invoice_date <= $3`,
		companyID, start, end,
	).Scan(&invoiceTotal); err != nil {
		return nil, fmt.Errorf("budget invoice total: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE company_id = $1 AND expense_date >= $2 AND expense_date <= $3`,
		companyID, start, end,
	).Scan(&expenseTotal); err != nil {
		return nil, fmt.Errorf("budget expense total: %w", err)
	}

	status := &BudgetStatus{Budget: b, Spent: invoiceTotal.Add(expenseTotal)}
	if b.ExpenseLimit.IsPositive() {
		status.PercentUsed = status.Spent.Div(b.ExpenseLimit).Mul(hundred).Round(2)
	}
	status.ThresholdReached = status.PercentUsed.GreaterThanOrEqual(b.AlertThreshold)
	status.OverLimit = status.Spent.GreaterThan(b.ExpenseLimit)
	return status, nil
}
