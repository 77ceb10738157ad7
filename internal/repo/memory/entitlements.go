package memory

import (
	"context"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type EntitlementRepo struct {
	store *Store
}

func (r *EntitlementRepo) Create(ctx context.Context, resourceID, ownerID string) (created bool, err error) {
	err = r.store.do(ctx, func(st *state) error {
		if _, ok := st.entitlements[resourceID]; ok {
			return nil
		}
		st.entitlements[resourceID] = domain.Entitlement{ResourceID: resourceID, OwnerID: ownerID, CreatedAt: r.store.now()}
		created = true
		return nil
	})
	return created, err
}

// Get returns nil when the resource is unknown.
func (r *EntitlementRepo) Get(ctx context.Context, resourceID string) (*domain.Entitlement, error) {
	var out *domain.Entitlement
	err := r.store.do(ctx, func(st *state) error {
		if e, ok := st.entitlements[resourceID]; ok {
			out = &e
		}
		return nil
	})
	return out, err
}

func (r *EntitlementRepo) SetUnlocked(ctx context.Context, resourceID, ownerID string) (changed bool, err error) {
	err = r.store.do(ctx, func(st *state) error {
		e, ok := st.entitlements[resourceID]
		if !ok || e.OwnerID != ownerID || e.Unlocked {
			return nil
		}
		now := r.store.now()
		e.Unlocked = true
		e.UnlockedAt = &now
		st.entitlements[resourceID] = e
		changed = true
		return nil
	})
	return changed, err
}
