package memory

import (
	"context"
	"sort"
	"time"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type OutboxRepo struct {
	store *Store
}

func (r *OutboxRepo) Insert(ctx context.Context, msg *domain.OutboxMessage) error {
	return r.store.do(ctx, func(st *state) error {
		now := r.store.now()
		msg.Status = domain.OutboxPending
		msg.CreatedAt = now
		msg.NextAttemptAt = now
		st.outbox = append(st.outbox, *msg)
		return nil
	})
}

func (r *OutboxRepo) FetchPending(ctx context.Context, limit uint32) ([]domain.OutboxMessage, error) {
	var due []domain.OutboxMessage
	err := r.store.do(ctx, func(st *state) error {
		now := r.store.now()
		for _, m := range st.outbox {
			if m.Status == domain.OutboxPending && !m.NextAttemptAt.After(now) {
				due = append(due, m)
			}
		}
		return nil
	})
	sort.SliceStable(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if uint32(len(due)) > limit {
		due = due[:limit]
	}
	return due, err
}

func (r *OutboxRepo) MarkDelivered(ctx context.Context, id string) error {
	return r.update(ctx, id, func(m *domain.OutboxMessage) {
		now := r.store.now()
		m.Status = domain.OutboxDelivered
		m.DeliveredAt = &now
		m.Attempts++
	})
}

func (r *OutboxRepo) MarkRetry(ctx context.Context, id string, attempts int, lastErr string, nextAttemptAt time.Time) error {
	return r.update(ctx, id, func(m *domain.OutboxMessage) {
		m.Attempts = attempts
		m.LastError = lastErr
		m.NextAttemptAt = nextAttemptAt
	})
}

func (r *OutboxRepo) MarkDead(ctx context.Context, id string, attempts int, lastErr string) error {
	return r.update(ctx, id, func(m *domain.OutboxMessage) {
		m.Status = domain.OutboxDead
		m.Attempts = attempts
		m.LastError = lastErr
	})
}

// Messages returns every stored message in insertion order.
func (r *OutboxRepo) Messages(ctx context.Context) []domain.OutboxMessage {
	var out []domain.OutboxMessage
	_ = r.store.do(ctx, func(st *state) error {
		out = append(out, st.outbox...)
		return nil
	})
	return out
}

func (r *OutboxRepo) update(ctx context.Context, id string, fn func(m *domain.OutboxMessage)) error {
	return r.store.do(ctx, func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				fn(&st.outbox[i])
				return nil
			}
		}
		return nil
	})
}
