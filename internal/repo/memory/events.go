package memory

import (
	"context"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type EventRepo struct {
	store *Store
}

func (r *EventRepo) Insert(ctx context.Context, eventID, eventType string) (inserted bool, err error) {
	err = r.store.do(ctx, func(st *state) error {
		if _, ok := st.events[eventID]; ok {
			return nil
		}
		st.events[eventID] = domain.WebhookEvent{
			EventID:          eventID,
			EventType:        eventType,
			ProcessingStatus: domain.EventReceived,
			ReceivedAt:       r.store.now(),
		}
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *EventRepo) UpdateStatus(ctx context.Context, eventID string, status domain.EventStatus) error {
	return r.store.do(ctx, func(st *state) error {
		ev, ok := st.events[eventID]
		if !ok {
			return domain.ErrNotFound
		}
		ev.ProcessingStatus = status
		st.events[eventID] = ev
		return nil
	})
}

func (r *EventRepo) Get(ctx context.Context, eventID string) (*domain.WebhookEvent, error) {
	var ev domain.WebhookEvent
	err := r.store.do(ctx, func(st *state) error {
		e, ok := st.events[eventID]
		if !ok {
			return domain.ErrNotFound
		}
		ev = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
