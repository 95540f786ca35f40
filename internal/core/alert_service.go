package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OccurrenceInput is one new purchase line to append to the price history.
type OccurrenceInput struct {
	Supplier      string
	ItemName      string
	UnitPrice     decimal.Decimal
	Quantity      decimal.Decimal
	Unit          string
	InvoiceID     string
	InvoiceNumber string
	InvoiceDate   time.Time
}

// Validate rejects inputs that would corrupt the history: empty names after
// trimming, negative prices or quantities.
func (in *OccurrenceInput) Validate() error {
	if NormalizeItemKey(in.ItemName) == "" {
		return NewValidationError("item name must not be empty")
	}
	if NormalizeSupplierKey(in.Supplier) == "" {
		return NewValidationError("supplier must not be empty")
	}
	if in.UnitPrice.IsNegative() {
		return NewValidationError("unit price must not be negative")
	}
	if in.Quantity.IsNegative() {
		return NewValidationError("quantity must not be negative")
	}
	return nil
}

// EvaluatePriceChange applies the alert rule: an alert fires only for a price
// increase whose percentage change meets or exceeds the threshold (equality
// fires). A zero or negative old price never fires. The threshold comparison
// uses the exact change; only the returned figure is rounded to two places
// for storage.
func EvaluatePriceChange(oldPrice, newPrice decimal.Decimal, settings AlertSettings) (decimal.Decimal, bool) {
	if !settings.Enabled || oldPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	change := newPrice.Sub(oldPrice).Div(oldPrice).Mul(hundred)
	if change.LessThanOrEqual(decimal.Zero) {
		return change.Round(2), false
	}
	return change.Round(2), change.GreaterThanOrEqual(settings.ThresholdPercent)
}

// AlertService appends item price history and raises threshold alerts.
type AlertService interface {
	// RecordOccurrence appends the purchase line to the history
	// unconditionally, then compares its unit price against the most recent
	// prior purchase of the same normalized item from the same supplier and
	// creates an unread PriceAlert when the tenant's threshold rule fires.
	// The returned alert is nil when no alert was produced; that is a
	// silent no-op, not an error.
	RecordOccurrence(ctx context.Context, companyID string, in OccurrenceInput) (*ItemOccurrence, *PriceAlert, error)

	// ListAlerts returns the tenant's alerts, newest first, optionally
	// filtered by status. limit <= 0 means 100.
	ListAlerts(ctx context.Context, companyID string, status AlertStatus, limit int) ([]PriceAlert, error)

	// UpdateAlertStatus transitions an alert to read or dismissed.
	UpdateAlertStatus(ctx context.Context, companyID, alertID string, status AlertStatus) error

	// GetSettings returns the tenant's alert settings, or the defaults when
	// none were ever written.
	GetSettings(ctx context.Context, companyID string) (*AlertSettings, error)

	// SetSettings upserts the tenant's alert settings.
	SetSettings(ctx context.Context, companyID string, thresholdPercent decimal.Decimal, enabled bool) (*AlertSettings, error)
}

type alertService struct {
	pool *pgxpool.Pool
}

// NewAlertService constructs an AlertService backed by PostgreSQL.
func NewAlertService(pool *pgxpool.Pool) AlertService {
	return &alertService{pool: pool}
}

func (s *alertService) RecordOccurrence(ctx context.Context, companyID string, in OccurrenceInput) (*ItemOccurrence, *PriceAlert, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	occ := &ItemOccurrence{
		ID:            uuid.NewString(),
		CompanyID:     companyID,
		Supplier:      in.Supplier,
		SupplierKey:   NormalizeSupplierKey(in.Supplier),
		ItemName:      in.ItemName,
		ItemKey:       NormalizeItemKey(in.ItemName),
		UnitPrice:     in.UnitPrice,
		Quantity:      in.Quantity,
		Unit:          in.Unit,
		InvoiceID:     in.InvoiceID,
		InvoiceNumber: in.InvoiceNumber,
		InvoiceDate:   in.InvoiceDate,
	}

	// Prior purchase must be read before the new line is inserted, or the
	// new line would match itself.
	var oldPrice decimal.Decimal
	hasPrior := true
	err := s.pool.QueryRow(ctx, `
		SELECT unit_price
		FROM item_occurrences
		WHERE company_id = $1 AND supplier_key = $2 AND item_key = $3
		ORDER BY invoice_date DESC, created_at DESC
		LIMIT 1`,
		companyID, occ.SupplierKey, occ.ItemKey,
	).Scan(&oldPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		hasPrior = false
	} else if err != nil {
		return nil, nil, fmt.Errorf("query prior occurrence: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO item_occurrences
			(id, company_id, supplier, supplier_key, item_name, item_key,
			 unit_price, quantity, unit, invoice_id, invoice_number, invoice_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		occ.ID, occ.CompanyID, occ.Supplier, occ.SupplierKey, occ.ItemName, occ.ItemKey,
		occ.UnitPrice, occ.Quantity, occ.Unit, occ.InvoiceID, occ.InvoiceNumber, occ.InvoiceDate,
	).Scan(&occ.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert item occurrence: %w", err)
	}

	if !hasPrior {
		return occ, nil, nil
	}

	settings, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	change, fired := EvaluatePriceChange(oldPrice, occ.UnitPrice, *settings)
	if !fired {
		return occ, nil, nil
	}

	alert := &PriceAlert{
		ID:            uuid.NewString(),
		CompanyID:     companyID,
		ItemName:      in.ItemName,
		Supplier:      in.Supplier,
		OldPrice:      oldPrice,
		NewPrice:      occ.UnitPrice,
		ChangePercent: change,
		InvoiceID:     in.InvoiceID,
		InvoiceNumber: in.InvoiceNumber,
		Status:        AlertUnread,
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO price_alerts
			(id, company_id, item_name, supplier, old_price, new_price,
			 change_percent, invoice_id, invoice_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		alert.ID, alert.CompanyID, alert.ItemName, alert.Supplier, alert.OldPrice,
		alert.NewPrice, alert.ChangePercent, alert.InvoiceID, alert.InvoiceNumber, alert.Status,
	).Scan(&alert.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert price alert: %w", err)
	}
	return occ, alert, nil
}

func (s *alertService) ListAlerts(ctx context.Context, companyID string, status AlertStatus, limit int) ([]PriceAlert, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
		SELECT id, company_id, item_name, supplier, old_price, new_price,
		       change_percent, invoice_id, invoice_number, status, created_at
		FROM price_alerts
		WHERE company_id = $1`
	args := []any{companyID}
	if status != "" {
		args = append(args, status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list price alerts: %w", err)
	}
	defer rows.Close()

	var alerts []PriceAlert
	for rows.Next() {
		var a PriceAlert
		if err := rows.Scan(
			&a.ID, &a.CompanyID, &a.ItemName, &a.Supplier, &a.OldPrice, &a.NewPrice,
			&a.ChangePercent, &a.InvoiceID, &a.InvoiceNumber, &a.Status, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan price alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *alertService) UpdateAlertStatus(ctx context.Context, companyID, alertID string, status AlertStatus) error {
	if status != AlertRead && status != AlertDismissed && status != AlertUnread {
		return NewValidationError("invalid alert status %q", status)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE price_alerts SET status = $3
		WHERE company_id = $1 AND id = $2`,
		companyID, alertID, status,
	)
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("price alert %s: %w", alertID, ErrNotFound)
	}
	return nil
}

func (s *alertService) GetSettings(ctx context.Context, companyID string) (*AlertSettings, error) {
	settings := &AlertSettings{CompanyID: companyID}
	err := s.pool.QueryRow(ctx, `
		SELECT threshold_percent, enabled
		FROM alert_settings WHERE company_id = $1`,
		companyID,
	).Scan(&settings.ThresholdPercent, &settings.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		def := DefaultAlertSettings(companyID)
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alert settings: %w", err)
	}
	return settings, nil
}

func (s *alertService) SetSettings(ctx context.Context, companyID string, thresholdPercent decimal.Decimal, enabled bool) (*AlertSettings, error) {
	if thresholdPercent.IsNegative() {
		return nil, NewValidationError("threshold percent must not be negative")
	}
	settings := &AlertSettings{CompanyID: companyID}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO alert_settings (company_id, threshold_percent, enabled, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (company_id)
		DO UPDATE SET threshold_percent = EXCLUDED.threshold_percent,
		              enabled           = EXCLUDED.enabled,
		              updated_at        = now()
		RETURNING threshold_percent, enabled`,
		companyID, thresholdPercent, enabled,
	).Scan(&settings.ThresholdPercent, &settings.Enabled)
	if err != nil {
		return nil, fmt.Errorf("set alert settings: %w", err)
	}
	return settings, nil
}
