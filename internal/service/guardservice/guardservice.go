//go:generate mockgen -source=guardservice.go -destination=mock_guardservice.go -package=guardservice
package guardservice

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type Repo interface {
	Insert(ctx context.Context, eventID, eventType string) (bool, error)
	UpdateStatus(ctx context.Context, eventID string, status domain.EventStatus) error
}

// Service is the idempotency guard. Callers run it inside the transaction
// of the change it protects, so a rollback forgets the key as well.
type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) RecordIfNew(ctx context.Context, eventID, eventType string) (bool, error) {
	if eventID == "" {
		return false, fmt.Errorf("%w: empty idempotency key", domain.ErrInvalidInput)
	}
	isNew, err := s.repo.Insert(ctx, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("record event %s: %w", eventID, err)
	}
	if !isNew {
		zap.L().Info("duplicate event skipped", zap.String("event_id", eventID), zap.String("event_type", eventType))
	}
	return isNew, nil
}

func (s *Service) MarkStatus(ctx context.Context, eventID string, status domain.EventStatus) error {
	if err := s.repo.UpdateStatus(ctx, eventID, status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			zap.L().Warn("status update for unknown event", zap.String("event_id", eventID))
			return nil
		}
		return fmt.Errorf("mark event %s %s: %w", eventID, status, err)
	}
	return nil
}
