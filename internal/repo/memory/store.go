// Package memory is an in-process storage backend with the same guarantees as
// the postgres repositories. Transactions are serialized behind one mutex and
// roll back by restoring a snapshot.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

// ErrConstraint mirrors a violated table constraint.
var ErrConstraint = errors.New("constraint violation")

type txKey struct{ store *Store }

type state struct {
	accounts     map[string]domain.CreditAccount
	entries      []domain.LedgerEntry
	events       map[string]domain.WebhookEvent
	entitlements map[string]domain.Entitlement
	outbox       []domain.OutboxMessage
}

func (st *state) clone() state {
	return state{
		accounts:     maps.Clone(st.accounts),
		entries:      slices.Clone(st.entries),
		events:       maps.Clone(st.events),
		entitlements: maps.Clone(st.entitlements),
		outbox:       slices.Clone(st.outbox),
	}
}

type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time
}

func New() *Store {
	return &Store{
		state: state{
			accounts:     make(map[string]domain.CreditAccount),
			events:       make(map[string]domain.WebhookEvent),
			entitlements: make(map[string]domain.Entitlement),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Begin runs fn as one transaction. Nested calls join the outer one.
func (s *Store) Begin(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{store: s}, true))
}

func (s *Store) inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{store: s}).(bool)
	return v
}

// do runs fn against the state, taking the lock unless ctx already holds it.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(&s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

func (s *Store) Accounts() *AccountRepo { return &AccountRepo{store: s} }

func (s *Store) Entries() *EntryRepo { return &EntryRepo{store: s} }

func (s *Store) Events() *EventRepo { return &EventRepo{store: s} }

func (s *Store) Entitlements() *EntitlementRepo { return &EntitlementRepo{store: s} }

func (s *Store) Outbox() *OutboxRepo { return &OutboxRepo{store: s} }
