package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const invitationTTL = 7 * 24 * time.Hour

// CompanyInput carries the editable company fields.
type CompanyInput struct {
	Name      string
	EIK       string
	VATNumber string
	MOL       string
	Address   string
	City      string
	Phone     string
	Email     string
}

// CompanyService owns tenants and membership: a user belongs to at most one
// company, and invitations are single-use codes with a 7-day expiry.
type CompanyService interface {
	// Create registers a company and attaches the creator as its owner.
	Create(ctx context.Context, creatorID string, in CompanyInput) (*Company, error)
	Get(ctx context.Context, companyID string) (*Company, error)
	Update(ctx context.Context, companyID string, in CompanyInput) (*Company, error)
	Members(ctx context.Context, companyID string) ([]User, error)

	// Invite creates a single-use invitation code.
	Invite(ctx context.Context, companyID, invitedBy string, role Role) (*Invitation, error)

	// AcceptInvitation attaches the user to the inviting company. Rejects
	// used or expired codes and users who already belong to a company.
	AcceptInvitation(ctx context.Context, userID, code string) (*Company, error)

	// Leave detaches the user from their company. Owners cannot leave.
	Leave(ctx context.Context, userID string) error
}

type companyService struct {
	pool *pgxpool.Pool
}

// NewCompanyService constructs a CompanyService backed by PostgreSQL.
func NewCompanyService(pool *pgxpool.Pool) CompanyService {
	return &companyService{pool: pool}
}

const companyColumns = "id, name, eik, vat_number, mol, address, city, phone, email, created_at, updated_at"

func scanCompany(row pgx.Row) (*Company, error) {
	c := &Company{}
	err := row.Scan(&c.ID, &c.Name, &c.EIK, &c.VATNumber, &c.MOL, &c.Address,
		&c.City, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("company: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan company: %w", err)
	}
	return c, nil
}

func (s *companyService) Create(ctx context.Context, creatorID string, in CompanyInput) (*Company, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, NewValidationError("company name must not be empty")
	}

	var existing string
	if err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(company_id, '') FROM users WHERE id = $1", creatorID,
	).Scan(&existing); err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if existing != "" {
		return nil, NewValidationError("user already belongs to a company")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin company tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO companies (id, name, eik, vat_number, mol, address, city, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+companyColumns,
		uuid.NewString(), strings.TrimSpace(in.Name), in.EIK, optional(in.VATNumber),
		optional(in.MOL), optional(in.Address), optional(in.City), optional(in.Phone), optional(in.Email),
	)
	c, err := scanCompany(row)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE users SET company_id = $2, role = $3 WHERE id = $1",
		creatorID, c.ID, RoleOwner,
	); err != nil {
		return nil, fmt.Errorf("attach creator: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit company: %w", err)
	}
	return c, nil
}

func (s *companyService) Get(ctx context.Context, companyID string) (*Company, error) {
	return scanCompany(s.pool.QueryRow(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE id = $1", companyID))
}

func (s *companyService) Update(ctx context.Context, companyID string, in CompanyInput) (*Company, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, NewValidationError("company name must not be empty")
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE companies
		SET name = $2, eik = $3, vat_number = $4, mol = $5, address = $6,
		    city = $7, phone = $8, email = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+companyColumns,
		companyID, strings.TrimSpace(in.Name), in.EIK, optional(in.VATNumber),
		optional(in.MOL), optional(in.Address), optional(in.City), optional(in.Phone), optional(in.Email),
	)
	return scanCompany(row)
}

func (s *companyService) Members(ctx context.Context, companyID string) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE company_id = $1 ORDER BY created_at", companyID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *u)
	}
	return members, rows.Err()
}

func (s *companyService) Invite(ctx context.Context, companyID, invitedBy string, role Role) (*Invitation, error) {
	if role == "" {
		role = RoleStaff
	}
	if role != RoleStaff && role != RoleAccountant {
		return nil, NewValidationError("invitations may grant staff or accountant roles only")
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate invitation code: %w", err)
	}

	inv := &Invitation{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		InvitedBy: invitedBy,
		Role:      role,
		Code:      hex.EncodeToString(buf),
		ExpiresAt: time.Now().UTC().Add(invitationTTL),
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO invitations (id, company_id, invited_by, role, code, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		inv.ID, inv.CompanyID, inv.InvitedBy, inv.Role, inv.Code, inv.ExpiresAt,
	).Scan(&inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	return inv, nil
}

func (s *companyService) AcceptInvitation(ctx context.Context, userID, code string) (*Company, error) {
	var existing string
	if err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(company_id, '') FROM users WHERE id = $1", userID,
	).Scan(&existing); err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if existing != "" {
		return nil, NewValidationError("user already belongs to a company")
	}

	inv := &Invitation{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, company_id, role, expires_at, used
		FROM invitations WHERE code = $1`,
		code,
	).Scan(&inv.ID, &inv.CompanyID, &inv.Role, &inv.ExpiresAt, &inv.Used)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invitation: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup invitation: %w", err)
	}
	if inv.Used {
		return nil, NewValidationError("invitation code has already been used")
	}
	if time.Now().UTC().After(inv.ExpiresAt) {
		return nil, NewValidationError("invitation code has expired")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE invitations SET used = true WHERE id = $1", inv.ID,
	); err != nil {
		return nil, fmt.Errorf("mark invitation used: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE users SET company_id = $2, role = $3 WHERE id = $1",
		userID, inv.CompanyID, inv.Role,
	); err != nil {
		return nil, fmt.Errorf("attach member: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit accept: %w", err)
	}
	return s.Get(ctx, inv.CompanyID)
}

func (s *companyService) Leave(ctx context.Context, userID string) error {
	var role Role
	var companyID string
	err := s.pool.QueryRow(ctx,
		"SELECT role, COALESCE(company_id, '') FROM users WHERE id = $1", userID,
	).Scan(&role, &companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if companyID == "" {
		return NewValidationError("user does not belong to a company")
	}
	if role == RoleOwner {
		return NewValidationError("the company owner cannot leave")
	}

	if _, err := s.pool.Exec(ctx,
		"UPDATE users SET company_id = NULL, role = $2 WHERE id = $1",
		userID, RoleStaff,
	); err != nil {
		return fmt.Errorf("detach member: %w", err)
	}
	return nil
}
