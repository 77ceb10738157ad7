//go:generate mockgen -source=settlementservice.go -destination=mock_settlementservice.go -package=settlementservice
package settlementservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/metrics"
	"github.com/GlebRadaev/creditsettle/internal/pg"
	"github.com/GlebRadaev/creditsettle/internal/tracing"
)

type Guard interface {
	RecordIfNew(ctx context.Context, eventID, eventType string) (bool, error)
	MarkStatus(ctx context.Context, eventID string, status domain.EventStatus) error
}

type Ledger interface {
	Deposit(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (int64, string, error)
	Record(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (string, error)
	MarkFailedByRef(ctx context.Context, provider domain.Provider, ref, reason string) (int64, error)
}

type Entitlements interface {
	Unlock(ctx context.Context, resourceID, ownerID string) (domain.UnlockResult, error)
}

type Auditor interface {
	Enqueue(ctx context.Context, key string, record domain.AuditRecord) error
}

type Locker interface {
	Acquire(ctx context.Context, key string) (func(), bool, error)
}

// Service applies purchase intents exactly once. The idempotency key, the
// balance or entitlement change and its ledger entry share one transaction.
type Service struct {
	guard        Guard
	ledger       Ledger
	entitlements Entitlements
	auditor      Auditor
	locker       Locker
	txManager    pg.TXManager
}

func New(guard Guard, ledger Ledger, entitlements Entitlements, auditor Auditor, locker Locker, txManager pg.TXManager) *Service {
	return &Service{
		guard:        guard,
		ledger:       ledger,
		entitlements: entitlements,
		auditor:      auditor,
		locker:       locker,
		txManager:    txManager,
	}
}

func (s *Service) Settle(ctx context.Context, intent domain.PurchaseIntent) (result domain.SettlementResult, err error) {
	ctx, end := tracing.StartSpan(ctx, "settlement.settle",
		attribute.String("provider", string(intent.Provider)),
		attribute.String("intent.type", string(intent.Type)),
		attribute.String("external_event_id", intent.ExternalEventID),
	)
	defer func() { end(err) }()

	if err = ValidateIntent(intent); err != nil {
		s.observe(intent, metrics.OutcomeRejected)
		return domain.SettlementResult{}, err
	}

	release, err := s.lock(ctx, domain.PurchaseKey(intent.Provider, intent.ExternalEventID))
	if err != nil {
		s.observe(intent, metrics.OutcomeBusy)
		return domain.SettlementResult{}, err
	}
	defer release()

	start := time.Now()
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		var applyErr error
		result, applyErr = s.apply(ctx, intent)
		return applyErr
	})
	metrics.SettlementDuration.WithLabelValues(string(intent.Provider)).Observe(time.Since(start).Seconds())
	if err != nil {
		s.fail(ctx, intent, err)
		return domain.SettlementResult{}, err
	}

	s.succeed(ctx, intent, result)
	return result, nil
}

// SettleEvent records the raw delivery and then settles its intent, fails
// pending entries for a payment failure, or marks the event ignored.
func (s *Service) SettleEvent(ctx context.Context, ev domain.ProviderEvent) (result domain.SettlementResult, err error) {
	ctx, end := tracing.StartSpan(ctx, "settlement.settle_event",
		attribute.String("provider", string(ev.Provider)),
		attribute.String("event.type", ev.EventType),
		attribute.String("event.id", ev.EventID),
	)
	defer func() { end(err) }()

	if ev.EventID == "" {
		return domain.SettlementResult{}, fmt.Errorf("%w: event id is required", domain.ErrInvalidInput)
	}
	eventKey := domain.EventKey(ev.Provider, ev.EventID)

	var intentErr error
	settleable := false
	lockKey := eventKey
	if ev.Intent != nil {
		if intentErr = ValidateIntent(*ev.Intent); intentErr == nil {
			settleable = true
			lockKey = domain.PurchaseKey(ev.Intent.Provider, ev.Intent.ExternalEventID)
		}
	}

	release, err := s.lock(ctx, lockKey)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(ev.Provider), metrics.OutcomeBusy).Inc()
		return domain.SettlementResult{}, err
	}
	defer release()

	start := time.Now()
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		result = domain.SettlementResult{}
		isNew, err := s.guard.RecordIfNew(ctx, eventKey, ev.EventType)
		if err != nil {
			return err
		}
		if !isNew {
			result.Duplicate = true
			return nil
		}

		switch {
		case settleable:
			r, err := s.apply(ctx, *ev.Intent)
			if err != nil {
				return err
			}
			result = r
			return s.guard.MarkStatus(ctx, eventKey, domain.EventProcessed)
		case ev.FailedRef != "":
			if _, err := s.ledger.MarkFailedByRef(ctx, ev.Provider, ev.FailedRef, ev.EventType); err != nil {
				return err
			}
			return s.guard.MarkStatus(ctx, eventKey, domain.EventProcessed)
		default:
			result.Ignored = true
			return s.guard.MarkStatus(ctx, eventKey, domain.EventIgnored)
		}
	})
	metrics.SettlementDuration.WithLabelValues(string(ev.Provider)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(ev.Provider), metrics.OutcomeFailed).Inc()
		if settleable {
			s.fail(ctx, *ev.Intent, err)
		}
		return domain.SettlementResult{}, err
	}

	switch {
	case result.Duplicate:
		metrics.WebhookEventsTotal.WithLabelValues(string(ev.Provider), metrics.OutcomeDuplicate).Inc()
	case intentErr != nil:
		metrics.WebhookEventsTotal.WithLabelValues(string(ev.Provider), metrics.OutcomeRejected).Inc()
		s.observe(*ev.Intent, metrics.OutcomeRejected)
		zap.L().Error("webhook carried an unusable purchase intent",
			zap.String("provider", string(ev.Provider)),
			zap.String("event_id", ev.EventID),
			zap.String("event_type", ev.EventType),
			zap.Error(intentErr),
		)
		return result, intentErr
	case result.Ignored:
		metrics.WebhookEventsTotal.WithLabelValues(string(ev.Provider), metrics.OutcomeIgnored).Inc()
	default:
		metrics.WebhookEventsTotal.WithLabelValues(string(ev.Provider), metrics.OutcomeApplied).Inc()
	}

	if settleable {
		s.succeed(ctx, *ev.Intent, result)
	} else if ev.FailedRef != "" && !result.Duplicate {
		s.audit(ctx, "", domain.AuditRecord{
			Action:          "payment_failed",
			Outcome:         metrics.OutcomeApplied,
			Provider:        ev.Provider,
			ExternalEventID: ev.FailedRef,
		})
	}
	return result, nil
}

// apply must run inside a transaction.
func (s *Service) apply(ctx context.Context, intent domain.PurchaseIntent) (domain.SettlementResult, error) {
	key := domain.PurchaseKey(intent.Provider, intent.ExternalEventID)
	isNew, err := s.guard.RecordIfNew(ctx, key, string(intent.Type))
	if err != nil {
		return domain.SettlementResult{}, err
	}
	if !isNew {
		return domain.SettlementResult{Duplicate: true}, nil
	}

	ec := entryContext(intent, domain.StatusCompleted)
	var result domain.SettlementResult

	switch intent.Type {
	case domain.IntentCredits:
		balance, entryID, err := s.ledger.Deposit(ctx, intent.UserID, intent.Amount, ec)
		if err != nil {
			return domain.SettlementResult{}, err
		}
		result.NewBalance = &balance
		result.EntryID = entryID
	case domain.IntentLinksUnlock:
		unlocked, err := s.entitlements.Unlock(ctx, intent.ResourceID, intent.UserID)
		if err != nil {
			return domain.SettlementResult{}, err
		}
		if !unlocked.Changed {
			zap.L().Warn("paid unlock for a resource that was already unlocked",
				zap.String("resource_id", intent.ResourceID), zap.String("user_id", intent.UserID),
				zap.String("external_event_id", intent.ExternalEventID))
		}
		entryID, err := s.ledger.Record(ctx, intent.UserID, 0, ec)
		if err != nil {
			return domain.SettlementResult{}, err
		}
		result.EntryID = entryID
	default:
		return domain.SettlementResult{}, domain.ErrInvalidIntent
	}

	if err := s.guard.MarkStatus(ctx, key, domain.EventProcessed); err != nil {
		return domain.SettlementResult{}, err
	}
	return result, nil
}

func (s *Service) lock(ctx context.Context, key string) (func(), error) {
	release, ok, err := s.locker.Acquire(ctx, key)
	if err != nil {
		zap.L().Warn("settlement lock unavailable, continuing without it", zap.String("key", key), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, domain.ErrSettlementInProgress
	}
	return release, nil
}

func (s *Service) succeed(ctx context.Context, intent domain.PurchaseIntent, result domain.SettlementResult) {
	outcome := metrics.OutcomeApplied
	if result.Duplicate {
		outcome = metrics.OutcomeDuplicate
	}
	s.observe(intent, outcome)

	zap.L().Info("settlement finished",
		zap.String("provider", string(intent.Provider)),
		zap.String("type", string(intent.Type)),
		zap.String("user_id", intent.UserID),
		zap.String("external_event_id", intent.ExternalEventID),
		zap.String("outcome", outcome),
	)
	s.audit(ctx, intent.UserID, domain.AuditRecord{
		Action:          "settle",
		Outcome:         outcome,
		UserID:          intent.UserID,
		Provider:        intent.Provider,
		Kind:            intent.Type.Kind(),
		ExternalEventID: intent.ExternalEventID,
		ResourceID:      intent.ResourceID,
		Amount:          intent.Amount,
		NewBalance:      result.NewBalance,
		EntryID:         result.EntryID,
	})
}

// fail keeps a failed attempt auditable. The settlement transaction has
// rolled back, so the failed entry is written on its own.
func (s *Service) fail(ctx context.Context, intent domain.PurchaseIntent, cause error) {
	if errors.Is(cause, domain.ErrSettlementInProgress) {
		return
	}
	s.observe(intent, metrics.OutcomeFailed)

	fields := []zap.Field{
		zap.String("provider", string(intent.Provider)),
		zap.String("type", string(intent.Type)),
		zap.String("user_id", intent.UserID),
		zap.String("resource_id", intent.ResourceID),
		zap.String("external_event_id", intent.ExternalEventID),
		zap.Error(cause),
	}
	switch {
	case errors.Is(cause, domain.ErrNotFound):
		zap.L().Error("paid settlement targets a missing resource", fields...)
	case errors.Is(cause, domain.ErrOwnershipMismatch):
		zap.L().Error("paid settlement targets a resource the payer does not own", fields...)
	default:
		zap.L().Error("settlement failed", fields...)
	}

	amount := int64(0)
	if intent.Type == domain.IntentCredits {
		amount = intent.Amount
	}
	ec := entryContext(intent, domain.StatusFailed)
	ec.Metadata.Reason = cause.Error()
	if _, err := s.ledger.Record(ctx, intent.UserID, amount, ec); err != nil {
		zap.L().Error("failed to record failed settlement", append(fields, zap.NamedError("record_error", err))...)
	}

	s.audit(ctx, intent.UserID, domain.AuditRecord{
		Action:          "settle",
		Outcome:         metrics.OutcomeFailed,
		UserID:          intent.UserID,
		Provider:        intent.Provider,
		Kind:            intent.Type.Kind(),
		ExternalEventID: intent.ExternalEventID,
		ResourceID:      intent.ResourceID,
		Amount:          intent.Amount,
		Error:           cause.Error(),
	})
}

func (s *Service) observe(intent domain.PurchaseIntent, outcome string) {
	metrics.SettlementsTotal.WithLabelValues(string(intent.Provider), string(intent.Type.Kind()), outcome).Inc()
}

func (s *Service) audit(ctx context.Context, key string, record domain.AuditRecord) {
	if err := s.auditor.Enqueue(ctx, key, record); err != nil {
		metrics.OutboxEnqueueFailuresTotal.Inc()
		zap.L().Error("failed to enqueue audit record",
			zap.String("action", record.Action), zap.String("key", key), zap.Error(err))
	}
}

func entryContext(intent domain.PurchaseIntent, status domain.EntryStatus) domain.EntryContext {
	return domain.EntryContext{
		ExternalEventID: intent.ExternalEventID,
		Provider:        intent.Provider,
		Kind:            intent.Type.Kind(),
		Status:          status,
		Metadata: domain.EntryMetadata{
			PackageID:   intent.PackageID,
			ResourceID:  intent.ResourceID,
			ProviderRef: intent.ProviderRef,
			AmountCents: intent.AmountCents,
		},
	}
}

// ValidateIntent rejects intents that no retry could make settleable.
func ValidateIntent(intent domain.PurchaseIntent) error {
	if intent.UserID == "" {
		return fmt.Errorf("%w: missing user id", domain.ErrInvalidIntent)
	}
	if intent.ExternalEventID == "" {
		return fmt.Errorf("%w: missing external event id", domain.ErrInvalidIntent)
	}
	switch intent.Type {
	case domain.IntentCredits:
		if intent.Amount <= 0 {
			return fmt.Errorf("%w: credit amount must be positive", domain.ErrInvalidIntent)
		}
	case domain.IntentLinksUnlock:
		if intent.ResourceID == "" {
			return fmt.Errorf("%w: missing resource id", domain.ErrInvalidIntent)
		}
	default:
		return fmt.Errorf("%w: unknown intent type %q", domain.ErrInvalidIntent, intent.Type)
	}
	return nil
}
