//go:generate mockgen -source=entitlementservice.go -destination=mock_entitlementservice.go -package=entitlementservice
package entitlementservice

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type Repo interface {
	Create(ctx context.Context, resourceID, ownerID string) (bool, error)
	Get(ctx context.Context, resourceID string) (*domain.Entitlement, error)
	SetUnlocked(ctx context.Context, resourceID, ownerID string) (bool, error)
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

// Unlock sets the links flag for a resource the owner holds. Unlocking twice
// succeeds with Changed=false; the flag is never reset.
func (s *Service) Unlock(ctx context.Context, resourceID, ownerID string) (domain.UnlockResult, error) {
	if resourceID == "" || ownerID == "" {
		return domain.UnlockResult{}, domain.ErrInvalidInput
	}
	changed, err := s.repo.SetUnlocked(ctx, resourceID, ownerID)
	if err != nil {
		return domain.UnlockResult{}, fmt.Errorf("unlock %s: %w", resourceID, err)
	}
	if changed {
		zap.L().Info("links unlocked", zap.String("resource_id", resourceID), zap.String("owner_id", ownerID))
		return domain.UnlockResult{Changed: true}, nil
	}

	e, err := s.repo.Get(ctx, resourceID)
	if err != nil {
		return domain.UnlockResult{}, fmt.Errorf("unlock %s: %w", resourceID, err)
	}
	switch {
	case e == nil:
		return domain.UnlockResult{}, domain.ErrNotFound
	case e.OwnerID != ownerID:
		zap.L().Warn("unlock attempted by non-owner",
			zap.String("resource_id", resourceID), zap.String("caller_id", ownerID))
		return domain.UnlockResult{}, domain.ErrOwnershipMismatch
	default:
		return domain.UnlockResult{Changed: false}, nil
	}
}

// Register creates the resource for ownerID. Registering it again for the
// same owner returns the existing row.
func (s *Service) Register(ctx context.Context, resourceID, ownerID string) (*domain.Entitlement, error) {
	if resourceID == "" || ownerID == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.repo.Create(ctx, resourceID, ownerID); err != nil {
		return nil, fmt.Errorf("register %s: %w", resourceID, err)
	}
	return s.Get(ctx, resourceID, ownerID)
}

func (s *Service) Get(ctx context.Context, resourceID, ownerID string) (*domain.Entitlement, error) {
	e, err := s.repo.Get(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", resourceID, err)
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	if e.OwnerID != ownerID {
		return nil, domain.ErrOwnershipMismatch
	}
	return e, nil
}
