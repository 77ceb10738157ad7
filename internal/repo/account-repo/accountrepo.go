package accountrepo

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

// Ensure creates the account with the starting balance unless it already exists.
func (r *Repository) Ensure(ctx context.Context, userID string, startingBalance int64) error {
	query := `
        INSERT INTO credit_accounts (user_id, balance)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.db.Exec(ctx, query, userID, startingBalance); err != nil {
		zap.L().Error("failed to ensure credit account", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, userID string) (*domain.CreditAccount, error) {
	query := `
        SELECT user_id, balance, created_at, updated_at
        FROM credit_accounts
        WHERE user_id = $1
    `
	var account domain.CreditAccount
	err := r.db.QueryRow(ctx, query, userID).Scan(&account.UserID, &account.Balance, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		zap.L().Error("failed to get credit account", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &account, nil
}

func (r *Repository) Add(ctx context.Context, userID string, amount int64) (int64, error) {
	query := `
        UPDATE credit_accounts
        SET balance = balance + $2, updated_at = now()
        WHERE user_id = $1
        RETURNING balance
    `
	var balance int64
	if err := r.db.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		zap.L().Error("failed to add credits", zap.String("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("add credits: %w", err)
	}
	return balance, nil
}

// WithdrawIfSufficient subtracts amount only when the balance covers it.
// ok is false when it does not; nothing is changed in that case.
func (r *Repository) WithdrawIfSufficient(ctx context.Context, userID string, amount int64) (balance int64, ok bool, err error) {
	query := `
        UPDATE credit_accounts
        SET balance = balance - $2, updated_at = now()
        WHERE user_id = $1 AND balance >= $2
        RETURNING balance
    `
	err = r.db.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		zap.L().Error("failed to withdraw credits", zap.String("user_id", userID), zap.Error(err))
		return 0, false, fmt.Errorf("withdraw credits: %w", err)
	}
	return balance, true, nil
}
