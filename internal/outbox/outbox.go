//go:generate mockgen -source=outbox.go -destination=mock_outbox.go -package=outbox
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type Repo interface {
	Insert(ctx context.Context, msg *domain.OutboxMessage) error
	FetchPending(ctx context.Context, limit uint32) ([]domain.OutboxMessage, error)
	MarkDelivered(ctx context.Context, id string) error
	MarkRetry(ctx context.Context, id string, attempts int, lastErr string, nextAttemptAt time.Time) error
	MarkDead(ctx context.Context, id string, attempts int, lastErr string) error
}

type Publisher interface {
	Publish(ctx context.Context, msg domain.OutboxMessage) error
	Close() error
}

// Writer stores audit records for later delivery.
type Writer struct {
	repo  Repo
	topic string
	now   func() time.Time
}

func NewWriter(repo Repo, topic string) *Writer {
	return &Writer{repo: repo, topic: topic, now: time.Now}
}

// Enqueue stores record keyed by key. Messages with the same key keep their
// order on the broker.
func (w *Writer) Enqueue(ctx context.Context, key string, record domain.AuditRecord) error {
	if record.OccurredAt.IsZero() {
		record.OccurredAt = w.now().UTC()
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	msg := &domain.OutboxMessage{
		ID:      uuid.NewString(),
		Topic:   w.topic,
		Key:     key,
		Payload: payload,
	}
	if err := w.repo.Insert(ctx, msg); err != nil {
		return fmt.Errorf("enqueue audit record: %w", err)
	}
	return nil
}
