//go:generate mockgen -source=ledgerservice.go -destination=mock_ledgerservice.go -package=ledgerservice
package ledgerservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/pg"
)

const (
	DefaultStartingCredits int64 = 3
	defaultEntriesLimit          = 50
	maxEntriesLimit              = 500
)

type AccountRepo interface {
	Ensure(ctx context.Context, userID string, startingBalance int64) error
	Get(ctx context.Context, userID string) (*domain.CreditAccount, error)
	Add(ctx context.Context, userID string, amount int64) (int64, error)
	WithdrawIfSufficient(ctx context.Context, userID string, amount int64) (int64, bool, error)
}

type EntryRepo interface {
	Insert(ctx context.Context, entry *domain.LedgerEntry) error
	CompletePending(ctx context.Context, provider domain.Provider, pendingRefs []string, externalEventID string, amount int64, patch domain.EntryMetadata) (string, bool, error)
	Transition(ctx context.Context, id string, status domain.EntryStatus, patch domain.EntryMetadata) error
	FailPendingByRef(ctx context.Context, provider domain.Provider, ref, reason string) (int64, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error)
}

// Service owns credit balances. Every balance change and its ledger entry
// commit together.
type Service struct {
	accounts        AccountRepo
	entries         EntryRepo
	txManager       pg.TXManager
	startingCredits int64
}

func New(accounts AccountRepo, entries EntryRepo, txManager pg.TXManager, startingCredits int64) *Service {
	if startingCredits < 0 {
		startingCredits = DefaultStartingCredits
	}
	return &Service{
		accounts:        accounts,
		entries:         entries,
		txManager:       txManager,
		startingCredits: startingCredits,
	}
}

func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrInvalidInput
	}
	var balance int64
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.accounts.Ensure(ctx, userID, s.startingCredits); err != nil {
			return err
		}
		account, err := s.accounts.Get(ctx, userID)
		if err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (s *Service) Deposit(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (newBalance int64, entryID string, err error) {
	if amount <= 0 {
		return 0, "", domain.ErrInvalidAmount
	}
	if userID == "" {
		return 0, "", domain.ErrInvalidInput
	}
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.accounts.Ensure(ctx, userID, s.startingCredits); err != nil {
			return err
		}
		balance, err := s.accounts.Add(ctx, userID, amount)
		if err != nil {
			return err
		}
		prev := balance - amount
		ec.Metadata.PreviousBalance = &prev
		ec.Metadata.NewBalance = &balance
		ec.Status = domain.StatusCompleted

		id, err := s.record(ctx, userID, amount, ec)
		if err != nil {
			return err
		}
		newBalance, entryID = balance, id
		return nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("deposit: %w", err)
	}
	zap.L().Info("credits deposited",
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
		zap.Int64("new_balance", newBalance),
		zap.String("kind", string(ec.Kind)),
		zap.String("entry_id", entryID),
	)
	return newBalance, entryID, nil
}

// Withdraw subtracts amount only if the balance covers it. An uncovered
// withdrawal returns OK=false with the current balance and writes nothing.
func (s *Service) Withdraw(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (domain.WithdrawResult, error) {
	if amount <= 0 {
		return domain.WithdrawResult{}, domain.ErrInvalidAmount
	}
	if userID == "" {
		return domain.WithdrawResult{}, domain.ErrInvalidInput
	}
	var result domain.WithdrawResult
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.accounts.Ensure(ctx, userID, s.startingCredits); err != nil {
			return err
		}
		balance, ok, err := s.accounts.WithdrawIfSufficient(ctx, userID, amount)
		if err != nil {
			return err
		}
		if !ok {
			account, err := s.accounts.Get(ctx, userID)
			if err != nil {
				return err
			}
			result = domain.WithdrawResult{OK: false, NewBalance: account.Balance}
			return nil
		}

		prev := balance + amount
		ec.Metadata.PreviousBalance = &prev
		ec.Metadata.NewBalance = &balance
		if ec.Status == "" {
			ec.Status = domain.StatusCompleted
		}
		id, err := s.insert(ctx, userID, -amount, ec)
		if err != nil {
			return err
		}
		result = domain.WithdrawResult{OK: true, NewBalance: balance, EntryID: id}
		return nil
	})
	if err != nil {
		return domain.WithdrawResult{}, fmt.Errorf("withdraw: %w", err)
	}
	return result, nil
}

// Record writes a ledger entry that carries no balance change of its own,
// such as a settled links unlock or a failed settlement attempt.
func (s *Service) Record(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (string, error) {
	if ec.Status == "" {
		ec.Status = domain.StatusCompleted
	}
	var id string
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.record(ctx, userID, amount, ec)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("record entry: %w", err)
	}
	return id, nil
}

func (s *Service) Complete(ctx context.Context, entryID string) error {
	if err := s.entries.Transition(ctx, entryID, domain.StatusCompleted, domain.EntryMetadata{}); err != nil {
		return fmt.Errorf("complete entry %s: %w", entryID, err)
	}
	return nil
}

func (s *Service) Fail(ctx context.Context, entryID, reason string) error {
	if err := s.entries.Transition(ctx, entryID, domain.StatusFailed, domain.EntryMetadata{Reason: reason}); err != nil {
		return fmt.Errorf("fail entry %s: %w", entryID, err)
	}
	return nil
}

// MarkFailedByRef fails pending entries whose external event id or provider
// reference is ref.
func (s *Service) MarkFailedByRef(ctx context.Context, provider domain.Provider, ref, reason string) (int64, error) {
	if ref == "" {
		return 0, domain.ErrInvalidInput
	}
	n, err := s.entries.FailPendingByRef(ctx, provider, ref, reason)
	if err != nil {
		return 0, fmt.Errorf("mark failed by ref: %w", err)
	}
	zap.L().Info("pending entries failed by provider reference",
		zap.String("provider", string(provider)), zap.String("ref", ref), zap.Int64("count", n))
	return n, nil
}

func (s *Service) Entries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultEntriesLimit
	}
	if limit > maxEntriesLimit {
		limit = maxEntriesLimit
	}
	entries, err := s.entries.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// record completes a pending entry for the same purchase in place when the new
// entry is completed, and appends otherwise. A checkout's pending entry is
// keyed either by the settled external event id or by the provider reference
// (Polar settles the order, while its checkout was recorded).
func (s *Service) record(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (string, error) {
	if ec.Status == domain.StatusCompleted && ec.ExternalEventID != "" {
		refs := []string{ec.ExternalEventID}
		if ref := ec.Metadata.ProviderRef; ref != "" && ref != ec.ExternalEventID {
			refs = append(refs, ref)
		}
		id, found, err := s.entries.CompletePending(ctx, ec.Provider, refs, ec.ExternalEventID, amount, ec.Metadata)
		if err != nil {
			return "", err
		}
		if found {
			return id, nil
		}
	}
	return s.insert(ctx, userID, amount, ec)
}

func (s *Service) insert(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (string, error) {
	entry := &domain.LedgerEntry{
		ID:       uuid.NewString(),
		UserID:   userID,
		Provider: ec.Provider,
		Kind:     ec.Kind,
		Amount:   amount,
		Status:   ec.Status,
		Metadata: ec.Metadata,
	}
	if ec.ExternalEventID != "" {
		ref := ec.ExternalEventID
		entry.ExternalEventID = &ref
	}
	if err := s.entries.Insert(ctx, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}
