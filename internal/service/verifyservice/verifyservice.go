//go:generate mockgen -source=verifyservice.go -destination=mock_verifyservice.go -package=verifyservice
package verifyservice

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type SessionLookup interface {
	LookupSession(ctx context.Context, id string) (*domain.PaymentSession, error)
}

type Settler interface {
	Settle(ctx context.Context, intent domain.PurchaseIntent) (domain.SettlementResult, error)
}

// Service settles a purchase the client reports as finished, trusting only
// what the provider says about the session.
type Service struct {
	lookups map[domain.Provider]SessionLookup
	settler Settler
}

func New(lookups map[domain.Provider]SessionLookup, settler Settler) *Service {
	return &Service{lookups: lookups, settler: settler}
}

func (s *Service) VerifyAndSettle(ctx context.Context, req domain.VerifyRequest) (domain.SettlementResult, error) {
	if strings.TrimSpace(req.SessionOrToken) == "" {
		return domain.SettlementResult{}, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	if req.UserID == "" {
		return domain.SettlementResult{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if req.Provider == "" {
		req.Provider = domain.ProviderCardCheckout
	}
	lookup, ok := s.lookups[req.Provider]
	if !ok || lookup == nil {
		return domain.SettlementResult{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, req.Provider)
	}

	session, err := lookup.LookupSession(ctx, req.SessionOrToken)
	if err != nil {
		return domain.SettlementResult{}, fmt.Errorf("lookup session %s: %w", req.SessionOrToken, err)
	}
	if !session.Paid {
		zap.L().Info("verify requested for unpaid session",
			zap.String("provider", string(req.Provider)),
			zap.String("session_id", req.SessionOrToken),
			zap.String("status", session.Status))
		return domain.SettlementResult{}, domain.ErrPaymentNotCompleted
	}
	if session.Intent == nil {
		return domain.SettlementResult{}, fmt.Errorf("%w: session %s carries no purchase", domain.ErrInvalidIntent, req.SessionOrToken)
	}

	intent := *session.Intent
	if intent.UserID != req.UserID {
		zap.L().Warn("verify caller does not own the session",
			zap.String("provider", string(req.Provider)),
			zap.String("session_id", req.SessionOrToken),
			zap.String("caller", req.UserID),
			zap.String("owner", intent.UserID))
		return domain.SettlementResult{}, domain.ErrOwnershipMismatch
	}
	logClaimMismatch(req, intent)

	return s.settler.Settle(ctx, intent)
}

// logClaimMismatch reports client claims that disagree with the provider.
// The provider's values are the ones settled.
func logClaimMismatch(req domain.VerifyRequest, intent domain.PurchaseIntent) {
	var mismatched []string
	if req.ClaimedType != "" && domain.ParseIntentType(req.ClaimedType) != intent.Type {
		mismatched = append(mismatched, "type")
	}
	if req.ClaimedAmount != 0 && req.ClaimedAmount != intent.Amount {
		mismatched = append(mismatched, "amount")
	}
	if req.ClaimedResourceID != "" && req.ClaimedResourceID != intent.ResourceID {
		mismatched = append(mismatched, "resource_id")
	}
	if len(mismatched) == 0 {
		return
	}
	zap.L().Warn("client claims differ from provider session",
		zap.String("session_id", req.SessionOrToken),
		zap.Strings("fields", mismatched),
		zap.String("claimed_type", req.ClaimedType),
		zap.Int64("claimed_amount", req.ClaimedAmount),
		zap.String("claimed_resource_id", req.ClaimedResourceID),
	)
}
