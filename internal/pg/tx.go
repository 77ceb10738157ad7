package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type TxManager struct {
	db txBeginner
}

func NewTXManager(db txBeginner) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) Begin(ctx context.Context, fn TransactionalFn) (err error) {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				zap.L().Error("failed to rollback transaction", zap.Error(rbErr))
			}
			return
		}
		if cErr := tx.Commit(ctx); cErr != nil {
			err = fmt.Errorf("can't commit transaction: %w", cErr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}
