package memory

import (
	"context"
	"fmt"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type AccountRepo struct {
	store *Store
}

func (r *AccountRepo) Ensure(ctx context.Context, userID string, startingBalance int64) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.accounts[userID]; ok {
			return nil
		}
		if startingBalance < 0 {
			return fmt.Errorf("%w: negative balance", ErrConstraint)
		}
		now := r.store.now()
		st.accounts[userID] = domain.CreditAccount{UserID: userID, Balance: startingBalance, CreatedAt: now, UpdatedAt: now}
		return nil
	})
}

func (r *AccountRepo) Get(ctx context.Context, userID string) (*domain.CreditAccount, error) {
	var account domain.CreditAccount
	err := r.store.do(ctx, func(st *state) error {
		a, ok := st.accounts[userID]
		if !ok {
			return domain.ErrNotFound
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepo) Add(ctx context.Context, userID string, amount int64) (int64, error) {
	var balance int64
	err := r.store.do(ctx, func(st *state) error {
		a, ok := st.accounts[userID]
		if !ok {
			return domain.ErrNotFound
		}
		if a.Balance+amount < 0 {
			return fmt.Errorf("%w: negative balance", ErrConstraint)
		}
		a.Balance += amount
		a.UpdatedAt = r.store.now()
		st.accounts[userID] = a
		balance = a.Balance
		return nil
	})
	return balance, err
}

func (r *AccountRepo) WithdrawIfSufficient(ctx context.Context, userID string, amount int64) (balance int64, ok bool, err error) {
	err = r.store.do(ctx, func(st *state) error {
		a, exists := st.accounts[userID]
		if !exists || a.Balance < amount {
			return nil
		}
		a.Balance -= amount
		a.UpdatedAt = r.store.now()
		st.accounts[userID] = a
		balance, ok = a.Balance, true
		return nil
	})
	return balance, ok, err
}
