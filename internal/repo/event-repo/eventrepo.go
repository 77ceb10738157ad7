package eventrepo

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

// Insert records the key. inserted is false when it was already present.
func (r *Repository) Insert(ctx context.Context, eventID, eventType string) (inserted bool, err error) {
	query := `
        INSERT INTO webhook_events (event_id, event_type, processing_status)
        VALUES ($1, $2, 'received')
        ON CONFLICT (event_id) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, eventID, eventType)
	if err != nil {
		zap.L().Error("failed to record webhook event", zap.String("event_id", eventID), zap.Error(err))
		return false, fmt.Errorf("record event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, eventID string, status domain.EventStatus) error {
	query := `
        UPDATE webhook_events
        SET processing_status = $2
        WHERE event_id = $1
    `
	tag, err := r.db.Exec(ctx, query, eventID, string(status))
	if err != nil {
		zap.L().Error("failed to update webhook event status", zap.String("event_id", eventID), zap.Error(err))
		return fmt.Errorf("update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, eventID string) (*domain.WebhookEvent, error) {
	query := `
        SELECT event_id, event_type, processing_status, received_at
        FROM webhook_events
        WHERE event_id = $1
    `
	var (
		event  domain.WebhookEvent
		status string
	)
	err := r.db.QueryRow(ctx, query, eventID).Scan(&event.EventID, &event.EventType, &status, &event.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	event.ProcessingStatus = domain.EventStatus(status)
	return &event, nil
}
