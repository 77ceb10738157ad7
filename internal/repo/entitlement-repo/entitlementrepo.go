package entitlementrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

// Create inserts the resource for its owner. created is false when the
// resource already existed, whoever owns it.
func (r *Repository) Create(ctx context.Context, resourceID, ownerID string) (created bool, err error) {
	query := `
        INSERT INTO entitlements (resource_id, owner_id)
        VALUES ($1, $2)
        ON CONFLICT (resource_id) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, resourceID, ownerID)
	if err != nil {
		zap.L().Error("failed to create entitlement", zap.String("resource_id", resourceID), zap.Error(err))
		return false, fmt.Errorf("create entitlement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get returns nil without error when the resource does not exist.
func (r *Repository) Get(ctx context.Context, resourceID string) (*domain.Entitlement, error) {
	query := `
        SELECT resource_id, owner_id, unlocked, created_at, unlocked_at
        FROM entitlements
        WHERE resource_id = $1
    `
	var e domain.Entitlement
	err := r.db.QueryRow(ctx, query, resourceID).Scan(&e.ResourceID, &e.OwnerID, &e.Unlocked, &e.CreatedAt, &e.UnlockedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get entitlement", zap.String("resource_id", resourceID), zap.Error(err))
		return nil, err
	}
	return &e, nil
}

// SetUnlocked flips the flag for the owner's locked resource. It reports
// false when no row matched; the caller works out why.
func (r *Repository) SetUnlocked(ctx context.Context, resourceID, ownerID string) (bool, error) {
	query := `
        UPDATE entitlements
        SET unlocked = true, unlocked_at = now()
        WHERE resource_id = $1 AND owner_id = $2 AND NOT unlocked
    `
	tag, err := r.db.Exec(ctx, query, resourceID, ownerID)
	if err != nil {
		zap.L().Error("failed to unlock entitlement", zap.String("resource_id", resourceID), zap.Error(err))
		return false, fmt.Errorf("unlock entitlement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
