package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry is the input for one audit record.
type AuditEntry struct {
	CompanyID  string
	UserID     string
	UserName   string
	Action     string // create, update, delete, login
	EntityType string
	EntityID   string
	Details    map[string]any
	IPAddress  string
}

// AuditFilter narrows a log listing. Zero values mean "any".
type AuditFilter struct {
	UserID     string
	Action     string
	EntityType string
	Limit      int
}

// AuditService is an append-only action log. Logging failures are reported
// but callers treat them as non-fatal: an audit miss never rolls back the
// audited action.
type AuditService interface {
	Log(ctx context.Context, e AuditEntry) error
	List(ctx context.Context, companyID string, f AuditFilter) ([]AuditLog, error)
}

type auditService struct {
	pool *pgxpool.Pool
}

// NewAuditService constructs an AuditService backed by PostgreSQL.
func NewAuditService(pool *pgxpool.Pool) AuditService {
	return &auditService{pool: pool}
}

func (s *auditService) Log(ctx context.Context, e AuditEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, company_id, user_id, user_name, action, entity_type, entity_id, details, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.NewString(), optional(e.CompanyID), e.UserID, e.UserName,
		e.Action, e.EntityType, optional(e.EntityID), e.Details, optional(e.IPAddress),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *auditService) List(ctx context.Context, companyID string, f AuditFilter) ([]AuditLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	q := `
		SELECT id, company_id, user_id, user_name, action, entity_type, entity_id, details, ip_address, created_at
		FROM audit_logs
		WHERE company_id = $1`
	args := []any{companyID}
	if f.UserID != "" {
		args = append(args, f.UserID)
		q += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		q += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		q += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.UserID, &l.UserName, &l.Action,
			&l.EntityType, &l.EntityID, &l.Details, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
