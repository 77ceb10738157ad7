//go:generate mockgen -source=checkoutservice.go -destination=mock_checkoutservice.go -package=checkoutservice
package checkoutservice

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type Creator interface {
	CreateCheckout(ctx context.Context, order domain.CheckoutOrder) (*domain.CheckoutSession, error)
}

type Ledger interface {
	Record(ctx context.Context, userID string, amount int64, ec domain.EntryContext) (string, error)
}

type Entitlements interface {
	Get(ctx context.Context, resourceID, ownerID string) (*domain.Entitlement, error)
}

// Service prices purchases on the server and opens provider checkouts whose
// metadata the webhook and verifier later trust.
type Service struct {
	creators     map[domain.Provider]Creator
	ledger       Ledger
	entitlements Entitlements
}

func New(creators map[domain.Provider]Creator, ledger Ledger, entitlements Entitlements) *Service {
	return &Service{creators: creators, ledger: ledger, entitlements: entitlements}
}

func (s *Service) Packages() []domain.CreditPackage {
	return domain.CreditPackages()
}

func (s *Service) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if req.Provider == "" {
		req.Provider = domain.ProviderCardCheckout
	}
	creator, ok := s.creators[req.Provider]
	if !ok || creator == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, req.Provider)
	}

	order, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}

	session, err := creator.CreateCheckout(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create %s checkout: %w", req.Provider, err)
	}
	session.Provider = req.Provider

	// The pending entry is completed in place when the purchase settles.
	amount := int64(0)
	if order.Type == domain.IntentCredits {
		amount = order.Credits
	}
	_, err = s.ledger.Record(ctx, req.UserID, amount, domain.EntryContext{
		ExternalEventID: session.ID,
		Provider:        req.Provider,
		Kind:            order.Type.Kind(),
		Status:          domain.StatusPending,
		Metadata: domain.EntryMetadata{
			PackageID:   order.PackageID,
			ResourceID:  order.ResourceID,
			AmountCents: order.AmountCents,
		},
	})
	if err != nil {
		zap.L().Error("failed to record pending checkout",
			zap.String("provider", string(req.Provider)),
			zap.String("session_id", session.ID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
	}

	zap.L().Info("checkout created",
		zap.String("provider", string(req.Provider)),
		zap.String("session_id", session.ID),
		zap.String("user_id", req.UserID),
		zap.String("type", string(order.Type)))
	return session, nil
}

func (s *Service) price(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutOrder, error) {
	switch req.Type {
	case domain.IntentCredits:
		pkg, ok := domain.FindPackage(req.PackageID)
		if !ok {
			return domain.CheckoutOrder{}, fmt.Errorf("%w: %q", domain.ErrUnknownPackage, req.PackageID)
		}
		return domain.CheckoutOrder{
			UserID:      req.UserID,
			Type:        domain.IntentCredits,
			Name:        pkg.Name,
			Credits:     pkg.Credits,
			PackageID:   pkg.ID,
			AmountCents: pkg.PriceCents,
		}, nil
	case domain.IntentLinksUnlock:
		if req.ResourceID == "" {
			return domain.CheckoutOrder{}, fmt.Errorf("%w: resource id is required", domain.ErrInvalidInput)
		}
		e, err := s.entitlements.Get(ctx, req.ResourceID, req.UserID)
		if err != nil {
			return domain.CheckoutOrder{}, err
		}
		if e.Unlocked {
			return domain.CheckoutOrder{}, domain.ErrAlreadyUnlocked
		}
		return domain.CheckoutOrder{
			UserID:      req.UserID,
			Type:        domain.IntentLinksUnlock,
			Name:        "Shopping Links Unlock",
			ResourceID:  req.ResourceID,
			AmountCents: domain.LinksUnlockPriceCents,
		}, nil
	default:
		return domain.CheckoutOrder{}, fmt.Errorf("%w: unknown purchase type %q", domain.ErrInvalidInput, req.Type)
	}
}
