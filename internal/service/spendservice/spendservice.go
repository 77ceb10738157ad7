//go:generate mockgen -source=spendservice.go -destination=mock_spendservice.go -package=spendservice
package spendservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/metrics"
	"github.com/GlebRadaev/creditsettle/internal/pg"
	"github.com/GlebRadaev/creditsettle/internal/tracing"
)

// UnlockCost is the price of a links unlock paid from the credit balance.
const UnlockCost int64 = 1

type Ledger interface {
	Withdraw(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (domain.WithdrawResult, error)
	Deposit(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (int64, string, error)
	Complete(ctx context.Context, entryID string) error
	Fail(ctx context.Context, entryID, reason string) error
}

type Entitlements interface {
	Unlock(ctx context.Context, resourceID, ownerID string) (domain.UnlockResult, error)
}

type Auditor interface {
	Enqueue(ctx context.Context, key string, record domain.AuditRecord) error
}

type Service struct {
	ledger       Ledger
	entitlements Entitlements
	auditor      Auditor
	txManager    pg.TXManager
}

func New(ledger Ledger, entitlements Entitlements, auditor Auditor, txManager pg.TXManager) *Service {
	return &Service{
		ledger:       ledger,
		entitlements: entitlements,
		auditor:      auditor,
		txManager:    txManager,
	}
}

// SpendCreditForUnlock withdraws one credit and unlocks the resource's links.
// When the unlock cannot be made the credit is refunded and the pending entry
// is failed before the unlock error is returned.
func (s *Service) SpendCreditForUnlock(ctx context.Context, userID, resourceID string) (result domain.SpendResult, err error) {
	ctx, end := tracing.StartSpan(ctx, "spend.unlock",
		attribute.String("user_id", userID),
		attribute.String("resource_id", resourceID),
	)
	defer func() { end(err) }()

	if userID == "" || resourceID == "" {
		return domain.SpendResult{}, fmt.Errorf("%w: user id and resource id are required", domain.ErrInvalidInput)
	}

	ec := domain.EntryContext{
		ExternalEventID: fmt.Sprintf("credit_unlock_%s_%s", resourceID, uuid.NewString()),
		Provider:        domain.ProviderInternalCreditSpend,
		Kind:            domain.KindLinksUnlock,
		Status:          domain.StatusPending,
		Metadata:        domain.EntryMetadata{ResourceID: resourceID},
	}
	withdrawn, err := s.ledger.Withdraw(ctx, userID, UnlockCost, ec)
	if err != nil {
		metrics.SpendsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return domain.SpendResult{}, fmt.Errorf("withdraw credit: %w", err)
	}
	if !withdrawn.OK {
		metrics.SpendsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		zap.L().Info("credit spend rejected",
			zap.String("user_id", userID), zap.String("resource_id", resourceID),
			zap.Int64("balance", withdrawn.NewBalance))
		s.audit(ctx, userID, domain.AuditRecord{
			Action: "spend", Outcome: metrics.OutcomeRejected, UserID: userID,
			Provider: ec.Provider, Kind: ec.Kind, ResourceID: resourceID,
			Amount: UnlockCost, Error: domain.ErrInsufficientBalance.Error(),
		})
		return domain.SpendResult{}, domain.ErrInsufficientBalance
	}

	entryID := withdrawn.EntryID
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		unlocked, err := s.entitlements.Unlock(ctx, resourceID, userID)
		if err != nil {
			return err
		}
		if !unlocked.Changed {
			return domain.ErrAlreadyUnlocked
		}
		return s.ledger.Complete(ctx, entryID)
	})
	if err != nil {
		return domain.SpendResult{}, s.compensate(ctx, userID, resourceID, entryID, ec.ExternalEventID, err)
	}

	metrics.SpendsTotal.WithLabelValues(metrics.OutcomeApplied).Inc()
	zap.L().Info("links unlocked with credit",
		zap.String("user_id", userID), zap.String("resource_id", resourceID),
		zap.String("entry_id", entryID), zap.Int64("new_balance", withdrawn.NewBalance))
	newBalance := withdrawn.NewBalance
	s.audit(ctx, userID, domain.AuditRecord{
		Action: "spend", Outcome: metrics.OutcomeApplied, UserID: userID,
		Provider: ec.Provider, Kind: ec.Kind, ExternalEventID: ec.ExternalEventID,
		ResourceID: resourceID, Amount: -UnlockCost, NewBalance: &newBalance, EntryID: entryID,
	})
	return domain.SpendResult{NewBalance: newBalance, EntryID: entryID}, nil
}

// compensate refunds the withdrawn credit and fails its entry in one
// transaction. It returns cause, or a *CompensationError if the refund failed.
func (s *Service) compensate(ctx context.Context, userID, resourceID, entryID, externalID string, cause error) error {
	fields := []zap.Field{
		zap.String("user_id", userID),
		zap.String("resource_id", resourceID),
		zap.String("entry_id", entryID),
		zap.NamedError("cause", cause),
	}

	var balance int64
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		balance, _, err = s.ledger.Deposit(ctx, userID, UnlockCost, domain.EntryContext{
			ExternalEventID: "refund_" + externalID,
			Provider:        domain.ProviderInternalCreditSpend,
			Kind:            domain.KindCreditRefund,
			Status:          domain.StatusCompleted,
			Metadata: domain.EntryMetadata{
				ResourceID: resourceID,
				RefundOf:   entryID,
				Reason:     cause.Error(),
			},
		})
		if err != nil {
			return err
		}
		return s.ledger.Fail(ctx, entryID, cause.Error())
	})
	if err != nil {
		metrics.SpendsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		metrics.CompensationFailuresTotal.Inc()
		zap.L().Error("credit refund failed", append(fields, zap.Bool("manual_intervention", true), zap.Error(err))...)
		compErr := &domain.CompensationError{EntryID: entryID, UserID: userID, Cause: cause, Compensation: err}
		s.audit(ctx, userID, domain.AuditRecord{
			Action: "compensate", Outcome: metrics.OutcomeFailed, UserID: userID,
			Provider: domain.ProviderInternalCreditSpend, Kind: domain.KindCreditRefund,
			ResourceID: resourceID, Amount: UnlockCost, EntryID: entryID, Error: compErr.Error(),
		})
		return compErr
	}

	metrics.CompensationsTotal.Inc()
	metrics.SpendsTotal.WithLabelValues(spendOutcome(cause)).Inc()
	if errors.Is(cause, domain.ErrAlreadyUnlocked) {
		zap.L().Info("links already unlocked, credit refunded", fields...)
	} else {
		zap.L().Error("links unlock failed, credit refunded", fields...)
	}
	s.audit(ctx, userID, domain.AuditRecord{
		Action: "compensate", Outcome: metrics.OutcomeApplied, UserID: userID,
		Provider: domain.ProviderInternalCreditSpend, Kind: domain.KindCreditRefund,
		ResourceID: resourceID, Amount: UnlockCost, NewBalance: &balance, EntryID: entryID,
		Error: cause.Error(),
	})
	return cause
}

func (s *Service) audit(ctx context.Context, key string, record domain.AuditRecord) {
	if err := s.auditor.Enqueue(ctx, key, record); err != nil {
		metrics.OutboxEnqueueFailuresTotal.Inc()
		zap.L().Error("failed to enqueue audit record",
			zap.String("action", record.Action), zap.String("key", key), zap.Error(err))
	}
}

func spendOutcome(cause error) string {
	if errors.Is(cause, domain.ErrAlreadyUnlocked) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailed
}
