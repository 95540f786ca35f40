package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// UserService owns accounts and password verification. Tokens are issued by
// the web layer; this service only proves identity.
type UserService interface {
	// Register creates an account with a bcrypt-hashed password.
	Register(ctx context.Context, email, password, name string) (*User, error)

	// Authenticate verifies credentials and returns the account.
	// Returns ErrNotFound for an unknown email or a wrong password — the
	// caller must not be able to distinguish the two.
	Authenticate(ctx context.Context, email, password string) (*User, error)

	Get(ctx context.Context, userID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetRole changes a user's role. Only accountant/owner callers may do
	// this; the authorization check lives in the app layer.
	SetRole(ctx context.Context, userID string, role Role) error
}

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userColumns = "id, email, name, picture, role, COALESCE(company_id, ''), created_at"

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.Role, &u.CompanyID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (s *userService) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, NewValidationError("a valid email is required")
	}
	if len(password) < 8 {
		return nil, NewValidationError("password must be at least 8 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name must not be empty")
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", email,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, NewValidationError("email %s is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, role, hashed_password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		uuid.NewString(), email, strings.TrimSpace(name), RoleStaff, string(hash),
	)
	return scanUser(row)
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var hash string
	err := s.pool.QueryRow(ctx,
		"SELECT hashed_password FROM users WHERE email = $1", email,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("credentials: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup credentials: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, fmt.Errorf("credentials: %w", ErrNotFound)
	}
	return s.GetByEmail(ctx, email)
}

func (s *userService) Get(ctx context.Context, userID string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID))
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1",
		strings.ToLower(strings.TrimSpace(email))))
}

func (s *userService) SetRole(ctx context.Context, userID string, role Role) error {
	if role != RoleStaff && role != RoleAccountant && role != RoleOwner {
		return NewValidationError("invalid role %q", role)
	}
	tag, err := s.pool.Exec(ctx,
		"UPDATE users SET role = $2 WHERE id = $1", userID, role)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}
