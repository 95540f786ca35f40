package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VariantEntry resolves one variant key to the bucket it folds into.
type VariantEntry struct {
	CanonicalKey string
	DisplayName  string
}

// VariantIndex maps every variant key (and each canonical key itself) to its
// bucket. Rebuilt per aggregation call — mappings may change between calls
// and the store is the only source of truth, so nothing is ever cached.
type VariantIndex map[string]VariantEntry

// MergeService is CRUD over the tenant's item-name equivalence classes.
type MergeService interface {
	// UpsertMapping stores or overwrites the mapping for the canonical name.
	// Canonical and variant names are normalized to comparison keys; the
	// canonical's raw spelling becomes the display name. Rejects an empty
	// canonical, an empty variant list, and a canonical key already registered
	// as a variant of a different mapping. Variants that are themselves the
	// canonical key of another mapping are dropped rather than stolen.
	UpsertMapping(ctx context.Context, companyID, canonicalName string, variants []string) (*MergeMapping, error)

	// ListMappings returns all mappings for the tenant, unordered.
	ListMappings(ctx context.Context, companyID string) ([]MergeMapping, error)

	// DeleteMapping removes the mapping for the canonical name (raw or key
	// form). Returns ErrNotFound if absent.
	DeleteMapping(ctx context.Context, companyID, canonicalName string) error

	// BuildVariantIndex loads every mapping for the tenant into an in-memory
	// variant → bucket index.
	BuildVariantIndex(ctx context.Context, companyID string) (VariantIndex, error)
}

type mergeService struct {
	pool *pgxpool.Pool
}

// NewMergeService constructs a MergeService backed by PostgreSQL.
func NewMergeService(pool *pgxpool.Pool) MergeService {
	return &mergeService{pool: pool}
}

func (s *mergeService) UpsertMapping(ctx context.Context, companyID, canonicalName string, variants []string) (*MergeMapping, error) {
	display := trimDisplay(canonicalName)
	canonicalKey := NormalizeItemKey(canonicalName)
	if canonicalKey == "" {
		return nil, NewValidationError("canonical name must not be empty")
	}

	existing, err := s.ListMappings(ctx, companyID)
	if err != nil {
		return nil, err
	}

	otherCanonicals := make(map[string]bool)
	for _, m := range existing {
		if m.CanonicalKey == canonicalKey {
			continue
		}
		otherCanonicals[m.CanonicalKey] = true
		for _, v := range m.Variants {
			if v == canonicalKey {
				return nil, NewValidationError("name %q is already a variant of %q", canonicalName, m.DisplayName)
			}
		}
	}

	// Normalize, dedupe, and drop variants that collide with another
	// mapping's canonical key. The canonical key always folds into itself.
	seen := map[string]bool{canonicalKey: true}
	keys := []string{canonicalKey}
	for _, v := range variants {
		key := NormalizeItemKey(v)
		if key == "" || seen[key] || otherCanonicals[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	if len(keys) < 2 {
		return nil, NewValidationError("mapping for %q needs at least one distinct variant", canonicalName)
	}

	m := &MergeMapping{}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO merge_mappings (company_id, canonical_key, display_name, variants, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (company_id, canonical_key)
		DO UPDATE SET display_name = EXCLUDED.display_name,
		              variants     = EXCLUDED.variants,
		              updated_at   = now()
		RETURNING company_id, canonical_key, display_name, variants, updated_at`,
		companyID, canonicalKey, display, keys,
	).Scan(&m.CompanyID, &m.CanonicalKey, &m.DisplayName, &m.Variants, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert merge mapping %q: %w", canonicalKey, err)
	}
	return m, nil
}

func (s *mergeService) ListMappings(ctx context.Context, companyID string) ([]MergeMapping, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT company_id, canonical_key, display_name, variants, updated_at
		FROM merge_mappings
		WHERE company_id = $1`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list merge mappings: %w", err)
	}
	defer rows.Close()

	var mappings []MergeMapping
	for rows.Next() {
		var m MergeMapping
		if err := rows.Scan(&m.CompanyID, &m.CanonicalKey, &m.DisplayName, &m.Variants, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan merge mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (s *mergeService) DeleteMapping(ctx context.Context, companyID, canonicalName string) error {
	key := NormalizeItemKey(canonicalName)
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM merge_mappings
		WHERE company_id = $1 AND canonical_key = $2`,
		companyID, key,
	)
	if err != nil {
		return fmt.Errorf("delete merge mapping %q: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merge mapping %q: %w", canonicalName, ErrNotFound)
	}
	return nil
}

func (s *mergeService) BuildVariantIndex(ctx context.Context, companyID string) (VariantIndex, error) {
	mappings, err := s.ListMappings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	index := make(VariantIndex, len(mappings)*2)
	for _, m := range mappings {
		entry := VariantEntry{CanonicalKey: m.CanonicalKey, DisplayName: m.DisplayName}
		index[m.CanonicalKey] = entry
		for _, v := range m.Variants {
			index[v] = entry
		}
	}
	return index, nil
}

// trimDisplay keeps the user's casing but squeezes whitespace, matching the
// key normalization so display and key stay aligned.
func trimDisplay(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
