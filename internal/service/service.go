package service

import (
	"context"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/handlers/credits"
	"github.com/GlebRadaev/creditsettle/internal/handlers/entitlements"
	"github.com/GlebRadaev/creditsettle/internal/handlers/payment"
	"github.com/GlebRadaev/creditsettle/internal/handlers/webhook"
	"github.com/GlebRadaev/creditsettle/internal/lock"
	"github.com/GlebRadaev/creditsettle/internal/outbox"
	"github.com/GlebRadaev/creditsettle/internal/repo"
	"github.com/GlebRadaev/creditsettle/internal/service/checkoutservice"
	"github.com/GlebRadaev/creditsettle/internal/service/entitlementservice"
	"github.com/GlebRadaev/creditsettle/internal/service/guardservice"
	"github.com/GlebRadaev/creditsettle/internal/service/ledgerservice"
	"github.com/GlebRadaev/creditsettle/internal/service/settlementservice"
	"github.com/GlebRadaev/creditsettle/internal/service/spendservice"
	"github.com/GlebRadaev/creditsettle/internal/service/verifyservice"
)

// Options carries what the services need beyond the repositories.
type Options struct {
	StartingCredits int64
	AuditTopic      string
	Locker          settlementservice.Locker
	Lookups         map[domain.Provider]verifyservice.SessionLookup
	Creators        map[domain.Provider]checkoutservice.Creator
}

type Services struct {
	SettlementService  webhook.Service
	PaymentService     payment.Service
	CreditsService     credits.Service
	EntitlementService entitlements.Service
}

func New(repos *repo.Repositories, opts Options) *Services {
	if opts.Locker == nil {
		opts.Locker = lock.NoopLocker{}
	}
	auditor := outbox.NewWriter(repos.OutboxRepo, opts.AuditTopic)

	guardService := guardservice.New(repos.EventRepo)
	ledgerService := ledgerservice.New(repos.AccountRepo, repos.EntryRepo, repos.TxManager, opts.StartingCredits)
	entitlementService := entitlementservice.New(repos.EntitlementRepo)
	settlementService := settlementservice.New(guardService, ledgerService, entitlementService, auditor, opts.Locker, repos.TxManager)
	spendService := spendservice.New(ledgerService, entitlementService, auditor, repos.TxManager)
	checkoutService := checkoutservice.New(opts.Creators, ledgerService, entitlementService)
	verifyService := verifyservice.New(opts.Lookups, settlementService)

	return &Services{
		SettlementService:  settlementService,
		PaymentService:     &paymentService{verify: verifyService, checkout: checkoutService},
		CreditsService:     &creditsService{ledger: ledgerService, spend: spendService, checkout: checkoutService},
		EntitlementService: entitlementService,
	}
}

type paymentService struct {
	verify   *verifyservice.Service
	checkout *checkoutservice.Service
}

func (s *paymentService) VerifyAndSettle(ctx context.Context, req domain.VerifyRequest) (domain.SettlementResult, error) {
	return s.verify.VerifyAndSettle(ctx, req)
}

func (s *paymentService) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	return s.checkout.CreateCheckout(ctx, req)
}

type creditsService struct {
	ledger   *ledgerservice.Service
	spend    *spendservice.Service
	checkout *checkoutservice.Service
}

func (s *creditsService) Balance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

func (s *creditsService) Entries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	return s.ledger.Entries(ctx, userID, limit)
}

func (s *creditsService) SpendCreditForUnlock(ctx context.Context, userID, resourceID string) (domain.SpendResult, error) {
	return s.spend.SpendCreditForUnlock(ctx, userID, resourceID)
}

func (s *creditsService) Packages() []domain.CreditPackage {
	return s.checkout.Packages()
}
