package outboxrepo

import (
	"context"
	"fmt"
	"time"

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

func (r *Repository) Insert(ctx context.Context, msg *domain.OutboxMessage) error {
	query := `
        INSERT INTO outbox_messages (id, topic, key, payload, status, next_attempt_at)
        VALUES ($1, $2, $3, $4, 'pending', now())
        RETURNING created_at
    `
	err := r.db.QueryRow(ctx, query, msg.ID, msg.Topic, msg.Key, []byte(msg.Payload)).Scan(&msg.CreatedAt)
	if err != nil {
		zap.L().Error("failed to insert outbox message", zap.String("topic", msg.Topic), zap.Error(err))
		return fmt.Errorf("insert outbox message: %w", err)
	}
	msg.Status = domain.OutboxPending
	return nil
}

// FetchPending returns pending messages that are due, oldest first.
func (r *Repository) FetchPending(ctx context.Context, limit uint32) ([]domain.OutboxMessage, error) {
	query := `
        SELECT id::text, topic, key, payload, attempts, last_error, next_attempt_at, created_at
        FROM outbox_messages
        WHERE status = 'pending' AND next_attempt_at <= now()
        ORDER BY next_attempt_at
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		zap.L().Error("failed to fetch pending outbox messages", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var messages []domain.OutboxMessage
	for rows.Next() {
		var (
			msg     domain.OutboxMessage
			payload []byte
		)
		if err := rows.Scan(&msg.ID, &msg.Topic, &msg.Key, &payload, &msg.Attempts, &msg.LastError,
			&msg.NextAttemptAt, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Payload = payload
		msg.Status = domain.OutboxPending
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *Repository) MarkDelivered(ctx context.Context, id string) error {
	query := `
        UPDATE outbox_messages
        SET status = 'delivered', delivered_at = now(), attempts = attempts + 1
        WHERE id = $1
    `
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		zap.L().Error("failed to mark outbox message delivered", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) MarkRetry(ctx context.Context, id string, attempts int, lastErr string, nextAttemptAt time.Time) error {
	query := `
        UPDATE outbox_messages
        SET attempts = $2, last_error = $3, next_attempt_at = $4
        WHERE id = $1
    `
	if _, err := r.db.Exec(ctx, query, id, attempts, lastErr, nextAttemptAt); err != nil {
		zap.L().Error("failed to reschedule outbox message", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) MarkDead(ctx context.Context, id string, attempts int, lastErr string) error {
	query := `
        UPDATE outbox_messages
        SET status = 'dead', attempts = $2, last_error = $3
        WHERE id = $1
    `
	if _, err := r.db.Exec(ctx, query, id, attempts, lastErr); err != nil {
		zap.L().Error("failed to mark outbox message dead", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
