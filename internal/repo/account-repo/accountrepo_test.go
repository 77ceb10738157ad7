package accountrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)
	return New(mockDB), mockDB
}

func TestRepository_Ensure(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Creates account",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credit_accounts`)).
					WithArgs("user-1", int64(3)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "Existing account is left alone",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (user_id) DO NOTHING`)).
					WithArgs("user-1", int64(3)).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credit_accounts`)).
					WithArgs("user-1", int64(3)).
					WillReturnError(errors.New("db error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.Ensure(context.Background(), "user-1", 3)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Get(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	tests := []struct {
		name        string
		mockSetup   func()
		expected    *domain.CreditAccount
		expectedErr error
	}{
		{
			name: "Returns account",
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"user_id", "balance", "created_at", "updated_at"}).
					AddRow("user-1", int64(7), now, now)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id, balance, created_at, updated_at FROM credit_accounts WHERE user_id = $1`)).
					WithArgs("user-1").
					WillReturnRows(rows)
			},
			expected: &domain.CreditAccount{UserID: "user-1", Balance: 7, CreatedAt: now, UpdatedAt: now},
		},
		{
			name: "Missing account",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM credit_accounts`)).
					WithArgs("user-1").
					WillReturnError(pgx.ErrNoRows)
			},
			expectedErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			account, err := repo.Get(context.Background(), "user-1")
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, account)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, account)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Add(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SET balance = balance + $2`)).
		WithArgs("user-1", int64(15)).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(18)))

	balance, err := repo.Add(context.Background(), "user-1", 15)
	assert.NoError(t, err)
	assert.Equal(t, int64(18), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_WithdrawIfSufficient(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name            string
		mockSetup       func()
		expectedBalance int64
		expectedOK      bool
		expectErr       bool
	}{
		{
			name: "Sufficient balance",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 AND balance >= $2`)).
					WithArgs("user-1", int64(1)).
					WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(2)))
			},
			expectedBalance: 2,
			expectedOK:      true,
		},
		{
			name: "Insufficient balance matches no row",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 AND balance >= $2`)).
					WithArgs("user-1", int64(1)).
					WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SET balance = balance - $2`)).
					WithArgs("user-1", int64(1)).
					WillReturnError(errors.New("db error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			balance, ok, err := repo.WithdrawIfSufficient(context.Background(), "user-1", 1)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedOK, ok)
			assert.Equal(t, tt.expectedBalance, balance)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
