package memory

import (
	"context"

	"github.com/GlebRadaev/creditsettle/internal/pg"
)

// TxManager adapts Store to pg.TXManager.
type TxManager struct {
	store *Store
}

func NewTXManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

func (m *TxManager) Begin(ctx context.Context, fn pg.TransactionalFn) error {
	return m.store.Begin(ctx, fn)
}
