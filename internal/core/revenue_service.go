package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RevenueService owns daily revenue entries and non-invoice expenses.
type RevenueService interface {
	// UpsertRevenue stores the day's figures; a second write for the same
	// date overwrites the first.
	UpsertRevenue(ctx context.Context, companyID, userID string, date time.Time, fiscal, pocket decimal.Decimal, notes string) (*DailyRevenue, error)
	ListRevenues(ctx context.Context, companyID string, start, end *time.Time) ([]DailyRevenue, error)

	CreateExpense(ctx context.Context, companyID, userID, description string, amount decimal.Decimal, date time.Time, category, notes string) (*Expense, error)
	ListExpenses(ctx context.Context, companyID string, start, end *time.Time) ([]Expense, error)
	DeleteExpense(ctx context.Context, companyID, expenseID string) error
}

type revenueService struct {
	pool *pgxpool.Pool
}

// NewRevenueService constructs a RevenueService backed by PostgreSQL.
func NewRevenueService(pool *pgxpool.Pool) RevenueService {
	return &revenueService{pool: pool}
}

func (s *revenueService) UpsertRevenue(ctx context.Context, companyID, userID string, date time.Time, fiscal, pocket decimal.Decimal, notes string) (*DailyRevenue, error) {
	if fiscal.IsNegative() || pocket.IsNegative() {
		return nil, NewValidationError("revenue amounts must not be negative")
	}
	if date.IsZero() {
		return nil, NewValidationError("revenue date is required")
	}

	rev := &DailyRevenue{
		CompanyID:     companyID,
		UserID:        userID,
		Date:          date,
		FiscalRevenue: fiscal,
		PocketMoney:   pocket,
		Notes:         optional(notes),
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO daily_revenues (id, company_id, user_id, revenue_date, fiscal_revenue, pocket_money, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id, revenue_date)
		DO UPDATE SET fiscal_revenue = EXCLUDED.fiscal_revenue,
		              pocket_money   = EXCLUDED.pocket_money,
		              notes          = EXCLUDED.notes
		RETURNING id, created_at`,
		uuid.NewString(), companyID, userID, date, fiscal, pocket, rev.Notes,
	).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert daily revenue: %w", err)
	}
	return rev, nil
}

func (s *revenueService) ListRevenues(ctx context.Context, companyID string, start, end *time.Time) ([]DailyRevenue, error) {
	q := `
		SELECT id, company_id, user_id, revenue_date, fiscal_revenue, pocket_money, notes, created_at
		FROM daily_revenues
		WHERE company_id = $1`
	args := []any{companyID}
	if start != nil {
		args = append(args, *start)
		q += fmt.Sprintf(" AND revenue_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		q += fmt.Sprintf(" AND revenue_date <= $%d", len(args))
	}
	q += " ORDER BY revenue_date DESC LIMIT 1000"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list daily revenues: %w", err)
	}
	defer rows.Close()

	var revenues []DailyRevenue
	for rows.Next() {
		var r DailyRevenue
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.UserID, &r.Date, &r.FiscalRevenue, &r.PocketMoney, &r.Notes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan daily revenue: %w", err)
		}
		revenues = append(revenues, r)
	}
	return revenues, rows.Err()
}

func (s *revenueService) CreateExpense(ctx context.Context, companyID, userID, description string, amount decimal.Decimal, date time.Time, category, notes string) (*Expense, error) {
	if strings.TrimSpace(description) == "" {
		return nil, NewValidationError("expense description must not be empty")
	}
	if amount.IsNegative() {
		return nil, NewValidationError("expense amount must not be negative")
	}
	if date.IsZero() {
		return nil, NewValidationError("expense date is required")
	}

	e := &Expense{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		UserID:      userID,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Date:        date,
		Category:    optional(category),
		Notes:       optional(notes),
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO expenses (id, company_id, user_id, description, amount, expense_date, category, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		e.ID, e.CompanyID, e.UserID, e.Description, e.Amount, e.Date, e.Category, e.Notes,
	).Scan(&e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func (s *revenueService) ListExpenses(ctx context.Context, companyID string, start, end *time.Time) ([]Expense, error) {
	q := `
		SELECT id, company_id, user_id, description, amount, expense_date, category, notes, created_at
		FROM expenses
		WHERE company_id = $1`
	args := []any{companyID}
	if start != nil {
		args = append(args, *start)
		q += fmt.Sprintf(" AND expense_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		q += fmt.Sprintf(" AND expense_date <= $%d", len(args))
	}
	q += " ORDER BY expense_date DESC LIMIT 1000"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.UserID, &e.Description, &e.Amount, &e.Date, &e.Category, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *revenueService) DeleteExpense(ctx context.Context, companyID, expenseID string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM expenses WHERE company_id = $1 AND id = $2",
		companyID, expenseID,
	)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, ErrNotFound)
	}
	return nil
}
