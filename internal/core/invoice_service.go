package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InvoiceItemInput is one line item on a new invoice. TotalPrice defaults to
// Quantity × UnitPrice when zero.
type InvoiceItemInput struct {
	Name       string
	Quantity   decimal.Decimal
	Unit       string
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// InvoiceInput carries a new or updated invoice.
type InvoiceInput struct {
	Supplier         string
	InvoiceNumber    string
	AmountWithoutVAT decimal.Decimal
	VATAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	Date             time.Time
	Notes            string
	Items            []InvoiceItemInput
}

// InvoiceFilter narrows a tenant's invoice listing. Supplier and Number match
// case-insensitively as substrings.
type InvoiceFilter struct {
	Supplier  string
	Number    string
	StartDate *time.Time
	EndDate   *time.Time
}

// InvoiceService owns invoice CRUD. Recording an invoice also appends each
// line item to the price history and may raise price alerts.
type InvoiceService interface {
	Create(ctx context.Context, companyID, userID string, in InvoiceInput) (*Invoice, []PriceAlert, error)
	List(ctx context.Context, companyID string, filter InvoiceFilter) ([]Invoice, error)
	Get(ctx context.Context, companyID, invoiceID string) (*Invoice, error)
	Update(ctx context.Context, companyID, invoiceID string, in InvoiceInput) (*Invoice, error)

	// Delete removes the invoice, its line items, and its price-history
	// occurrences. Alerts already raised are kept: they record a historical
	// observation.
	Delete(ctx context.Context, companyID, invoiceID string) error
}

type invoiceService struct {
	pool   *pgxpool.Pool
	alerts AlertService
}

// NewInvoiceService constructs an InvoiceService backed by PostgreSQL.
func NewInvoiceService(pool *pgxpool.Pool, alerts AlertService) InvoiceService {
	return &invoiceService{pool: pool, alerts: alerts}
}

func (in *InvoiceInput) validate() error {
	if strings.TrimSpace(in.Supplier) == "" {
		return NewValidationError("supplier must not be empty")
	}
	if strings.TrimSpace(in.InvoiceNumber) == "" {
		return NewValidationError("invoice number must not be empty")
	}
	if in.TotalAmount.IsNegative() || in.VATAmount.IsNegative() || in.AmountWithoutVAT.IsNegative() {
		return NewValidationError("invoice amounts must not be negative")
	}
	if in.Date.IsZero() {
		return NewValidationError("invoice date is required")
	}
	for i, item := range in.Items {
		if NormalizeItemKey(item.Name) == "" {
			return NewValidationError("item %d: name must not be empty", i+1)
		}
		if item.UnitPrice.IsNegative() || item.Quantity.IsNegative() {
			return NewValidationError("item %d: price and quantity must not be negative", i+1)
		}
	}
	return nil
}

func (s *invoiceService) Create(ctx context.Context, companyID, userID string, in InvoiceInput) (*Invoice, []PriceAlert, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	inv := &Invoice{
		ID:               uuid.NewString(),
		CompanyID:        companyID,
		UserID:           userID,
		Supplier:         strings.TrimSpace(in.Supplier),
		InvoiceNumber:    strings.TrimSpace(in.InvoiceNumber),
		AmountWithoutVAT: in.AmountWithoutVAT,
		VATAmount:        in.VATAmount,
		TotalAmount:      in.TotalAmount,
		Date:             in.Date,
		Notes:            optional(in.Notes),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin invoice tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices
			(id, company_id, user_id, supplier, invoice_number,
			 amount_without_vat, vat_amount, total_amount, invoice_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		inv.ID, inv.CompanyID, inv.UserID, inv.Supplier, inv.InvoiceNumber,
		inv.AmountWithoutVAT, inv.VATAmount, inv.TotalAmount, inv.Date, inv.Notes,
	).Scan(&inv.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert invoice: %w", err)
	}

	for _, item := range in.Items {
		total := item.TotalPrice
		if total.IsZero() {
			total = item.UnitPrice.Mul(item.Quantity)
		}
		unit := item.Unit
		if unit == "" {
			unit = "бр."
		}
		line := InvoiceItem{
			ID:         uuid.NewString(),
			InvoiceID:  inv.ID,
			Name:       strings.TrimSpace(item.Name),
			Quantity:   item.Quantity,
			Unit:       unit,
			UnitPrice:  item.UnitPrice,
			TotalPrice: total,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, name, quantity, unit, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ID, line.InvoiceID, line.Name, line.Quantity, line.Unit, line.UnitPrice, line.TotalPrice,
		); err != nil {
			return nil, nil, fmt.Errorf("insert invoice item %q: %w", line.Name, err)
		}
		inv.Items = append(inv.Items, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit invoice: %w", err)
	}

	// Price history and alerts are appended after the invoice exists; the
	// occurrence rows reference the invoice id.
	var alerts []PriceAlert
	for _, line := range inv.Items {
		_, alert, err := s.alerts.RecordOccurrence(ctx, companyID, OccurrenceInput{
			Supplier:      inv.Supplier,
			ItemName:      line.Name,
			UnitPrice:     line.UnitPrice,
			Quantity:      line.Quantity,
			Unit:          line.Unit,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			InvoiceDate:   inv.Date,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("record occurrence for %q: %w", line.Name, err)
		}
		if alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return inv, alerts, nil
}

func (s *invoiceService) List(ctx context.Context, companyID string, filter InvoiceFilter) ([]Invoice, error) {
	q := `
		SELECT id, company_id, user_id, supplier, invoice_number,
		       amount_without_vat, vat_amount, total_amount, invoice_date, notes, created_at
		FROM invoices
		WHERE company_id = $1`
	args := []any{companyID}
	if filter.Supplier != "" {
		args = append(args, "%"+filter.Supplier+"%")
		q += fmt.Sprintf(" AND supplier ILIKE $%d", len(args))
	}
	if filter.Number != "" {
		args = append(args, "%"+filter.Number+"%")
		q += fmt.Sprintf(" AND invoice_number ILIKE $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		q += fmt.Sprintf(" AND invoice_date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		q += fmt.Sprintf(" AND invoice_date <= $%d", len(args))
	}
	q += " ORDER BY invoice_date DESC, created_at DESC LIMIT 1000"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(
			&inv.ID, &inv.CompanyID, &inv.UserID, &inv.Supplier, &inv.InvoiceNumber,
			&inv.AmountWithoutVAT, &inv.VATAmount, &inv.TotalAmount, &inv.Date, &inv.Notes, &inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *invoiceService) Get(ctx context.Context, companyID, invoiceID string) (*Invoice, error) {
	inv := &Invoice{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, company_id, user_id, supplier, invoice_number,
		       amount_without_vat, vat_amount, total_amount, invoice_date, notes, created_at
		FROM invoices
		WHERE company_id = $1 AND id = $2`,
		companyID, invoiceID,
	).Scan(
		&inv.ID, &inv.CompanyID, &inv.UserID, &inv.Supplier, &inv.InvoiceNumber,
		&inv.AmountWithoutVAT, &inv.VATAmount, &inv.TotalAmount, &inv.Date, &inv.Notes, &inv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, name, quantity, unit, unit_price, total_price
		FROM invoice_items
		WHERE invoice_id = $1`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("get invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Name, &item.Quantity, &item.Unit, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		inv.Items = append(inv.Items, item)
	}
	return inv, rows.Err()
}

// Update rewrites the invoice header fields. Line items (and with them the
// price history) are immutable after entry; correcting a line means deleting
// and re-entering the invoice.
func (s *invoiceService) Update(ctx context.Context, companyID, invoiceID string, in InvoiceInput) (*Invoice, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices
		SET supplier = $3, invoice_number = $4, amount_without_vat = $5,
		    vat_amount = $6, total_amount = $7, invoice_date = $8, notes = $9
		WHERE company_id = $1 AND id = $2`,
		companyID, invoiceID, strings.TrimSpace(in.Supplier), strings.TrimSpace(in.InvoiceNumber),
		in.AmountWithoutVAT, in.VATAmount, in.TotalAmount, in.Date, optional(in.Notes),
	)
	if err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	return s.Get(ctx, companyID, invoiceID)
}

func (s *invoiceService) Delete(ctx context.Context, companyID, invoiceID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Occurrences and line items also carry ON DELETE CASCADE; the explicit
	// deletes keep the intent visible and the order deterministic.
	if _, err := tx.Exec(ctx,
		"DELETE FROM item_occurrences WHERE company_id = $1 AND invoice_id = $2",
		companyID, invoiceID,
	); err != nil {
		return fmt.Errorf("delete invoice occurrences: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"DELETE FROM invoice_items WHERE invoice_id = $1", invoiceID,
	); err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	tag, err := tx.Exec(ctx,
		"DELETE FROM invoices WHERE company_id = $1 AND id = $2",
		companyID, invoiceID,
	)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	return tx.Commit(ctx)
}

// optional converts an empty string to a NULL-able pointer.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
