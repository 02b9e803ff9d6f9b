package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

// EntitlementRepository tracks per-owner creation allowances. The
// facade consults it before the first remote write for a project and
// bumps the counter only after that write commits.
type EntitlementRepository struct {
	pool   *pgxpool.Pool
	period time.Duration
}

func NewEntitlementRepository(pool *pgxpool.Pool, period time.Duration) *EntitlementRepository {
	if period <= 0 {
		period = 30 * 24 * time.Hour
	}
	return &EntitlementRepository{pool: pool, period: period}
}

// EnsureSchema creates the entitlement table when missing.
func (r *EntitlementRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS owner_entitlements (
	owner_id       TEXT PRIMARY KEY,
	premium        BOOLEAN NOT NULL DEFAULT FALSE,
	creations_used INTEGER NOT NULL DEFAULT 0,
	period_start   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init entitlement schema: %w", err)
	}
	return nil
}

// Get returns the owner's entitlement, creating a default free-tier
// row on first sight and rolling the counter over when the current
// period has elapsed.
func (r *EntitlementRepository) Get(ctx context.Context, ownerID string) (*domain.Entitlement, error) {
	const q = `
SELECT owner_id, premium, creations_used, period_start
FROM owner_entitlements
WHERE owner_id = $1;
`
	var e domain.Entitlement
	err := r.pool.QueryRow(ctx, q, ownerID).
		Scan(&e.OwnerID, &e.Premium, &e.CreationsUsed, &e.PeriodStart)

	if errors.Is(err, pgx.ErrNoRows) {
		return r.createDefault(ctx, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("entitlement get %s: %w", ownerID, err)
	}

	if time.Since(e.PeriodStart) >= r.period {
		return r.rollover(ctx, ownerID)
	}
	return &e, nil
}

// IncrementCreations records one consumed creation for the owner.
func (r *EntitlementRepository) IncrementCreations(ctx context.Context, ownerID string) error {
	const q = `
UPDATE owner_entitlements
SET creations_used = creations_used + 1
WHERE owner_id = $1;
`
	tag, err := r.pool.Exec(ctx, q, ownerID)
	if err != nil {
		return fmt.Errorf("entitlement increment %s: %w", ownerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entitlement increment %s: owner not found", ownerID)
	}
	return nil
}

// SetPremium flips the elevated-quota flag for an owner.
func (r *EntitlementRepository) SetPremium(ctx context.Context, ownerID string, premium bool) error {
	const q = `
INSERT INTO owner_entitlements (owner_id, premium)
VALUES ($1, $2)
ON CONFLICT (owner_id) DO UPDATE SET premium = EXCLUDED.premium;
`
	if _, err := r.pool.Exec(ctx, q, ownerID, premium); err != nil {
		return fmt.Errorf("entitlement set premium %s: %w", ownerID, err)
	}
	return nil
}

func (r *EntitlementRepository) createDefault(ctx context.Context, ownerID string) (*domain.Entitlement, error) {
	const q = `
INSERT INTO owner_entitlements (owner_id)
VALUES ($1)
ON CONFLICT (owner_id) DO NOTHING
RETURNING owner_id, premium, creations_used, period_start;
`
	var e domain.Entitlement
	err := r.pool.QueryRow(ctx, q, ownerID).
		Scan(&e.OwnerID, &e.Premium, &e.CreationsUsed, &e.PeriodStart)
	if errors.Is(err, pgx.ErrNoRows) {
		// lost a concurrent insert race; re-read
		return r.Get(ctx, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("entitlement create %s: %w", ownerID, err)
	}
	return &e, nil
}

func (r *EntitlementRepository) rollover(ctx context.Context, ownerID string) (*domain.Entitlement, error) {
	const q = `
UPDATE owner_entitlements
SET creations_used = 0, period_start = now()
WHERE owner_id = $1
RETURNING owner_id, premium, creations_used, period_start;
`
	var e domain.Entitlement
	err := r.pool.QueryRow(ctx, q, ownerID).
		Scan(&e.OwnerID, &e.Premium, &e.CreationsUsed, &e.PeriodStart)
	if err != nil {
		return nil, fmt.Errorf("entitlement rollover %s: %w", ownerID, err)
	}
	return &e, nil
}
