package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// NotificationSettings are per-user notification preferences: a VAT-position
// threshold warning and periodic reminders on chosen days of the month.
// Absent rows read as the defaults (everything off).
type NotificationSettings struct {
	UserID              string          `json:"user_id"`
	VATThresholdEnabled bool            `json:"vat_threshold_enabled"`
	VATThresholdAmount  decimal.Decimal `json:"vat_threshold_amount"`
	PeriodicEnabled     bool            `json:"periodic_enabled"`
	PeriodicDates       []int           `json:"periodic_dates"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// DefaultNotificationSettings returns the settings applied when a user has
// never written any.
func DefaultNotificationSettings(userID string) NotificationSettings {
	return NotificationSettings{
		UserID:             userID,
		VATThresholdAmount: decimal.Zero,
		PeriodicDates:      []int{},
	}
}

// NotificationSettingsInput carries a full replacement of a user's
// notification preferences.
type NotificationSettingsInput struct {
	VATThresholdEnabled bool
	VATThresholdAmount  decimal.Decimal
	PeriodicEnabled     bool
	PeriodicDates       []int
}

// Validate rejects negative threshold amounts and reminder dates outside the
// calendar month.
func (in *NotificationSettingsInput) Validate() error {
	if in.VATThresholdAmount.IsNegative() {
		return NewValidationError("VAT threshold amount must not be negative")
	}
	for _, d := range in.PeriodicDates {
		if d < 1 || d > 31 {
			return NewValidationError("reminder date %d is outside 1..31", d)
		}
	}
	return nil
}

// NotificationService owns per-user notification preferences.
type NotificationService interface {
	// GetSettings returns the user's settings, or the defaults when none
	// were ever written.
	GetSettings(ctx context.Context, userID string) (*NotificationSettings, error)

	// SetSettings upserts the user's settings.
	SetSettings(ctx context.Context, userID string, in NotificationSettingsInput) (*NotificationSettings, error)
}

type notificationService struct {
	pool *pgxpool.Pool
}

// NewNotificationService constructs a NotificationService backed by PostgreSQL.
func NewNotificationService(pool *pgxpool.Pool) NotificationService {
	return &notificationService{pool: pool}
}

func (s *notificationService) GetSettings(ctx context.Context, userID string) (*NotificationSettings, error) {
	settings := &NotificationSettings{UserID: userID}
	err := s.pool.QueryRow(ctx, `
		SELECT vat_threshold_enabled, vat_threshold_amount,
		       periodic_enabled, periodic_dates, updated_at
		FROM notification_settings WHERE user_id = $1`,
		userID,
	).Scan(
		&settings.VATThresholdEnabled, &settings.VATThresholdAmount,
		&settings.PeriodicEnabled, &settings.PeriodicDates, &settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		def := DefaultNotificationSettings(userID)
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification settings: %w", err)
	}
	return settings, nil
}

func (s *notificationService) SetSettings(ctx context.Context, userID string, in NotificationSettingsInput) (*NotificationSettings, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	dates := in.PeriodicDates
	if dates == nil {
		dates = []int{}
	}
	settings := &NotificationSettings{UserID: userID}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notification_settings
			(user_id, vat_threshold_enabled, vat_threshold_amount,
			 periodic_enabled, periodic_dates, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id)
		DO UPDATE SET vat_threshold_enabled = EXCLUDED.vat_threshold_enabled,
		              vat_threshold_amount  = EXCLUDED.vat_threshold_amount,
		              periodic_enabled      = EXCLUDED.periodic_enabled,
		              periodic_dates        = EXCLUDED.periodic_dates,
		              updated_at            = now()
		RETURNING vat_threshold_enabled, vat_threshold_amount,
		          periodic_enabled, periodic_dates, updated_at`,
		userID, in.VATThresholdEnabled, in.VATThresholdAmount, in.PeriodicEnabled, dates,
	).Scan(
		&settings.VATThresholdEnabled, &settings.VATThresholdAmount,
		&settings.PeriodicEnabled, &settings.PeriodicDates, &settings.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("set notification settings: %w", err)
	}
	return settings, nil
}
