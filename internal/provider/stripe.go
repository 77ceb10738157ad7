package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

const stripeTolerance = 5 * time.Minute

// StripeConfig holds the card-checkout credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PublicBaseURL string
}

// Stripe is the card-checkout adapter.
type Stripe struct {
	webhookSecret string
	baseURL       string
	now           func() time.Time

	getSession        func(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	newSession        func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	sessionForPayment func(paymentIntentID string) (string, error)
}

func NewStripe(cfg StripeConfig) *Stripe {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &Stripe{
		webhookSecret:     cfg.WebhookSecret,
		baseURL:           cfg.PublicBaseURL,
		now:               time.Now,
		getSession:        session.Get,
		newSession:        session.New,
		sessionForPayment: findSessionByPaymentIntent,
	}
}

func (s *Stripe) Provider() domain.Provider {
	return domain.ProviderCardCheckout
}

// Normalize verifies the Stripe-Signature header and maps the event.
func (s *Stripe) Normalize(body []byte, signature string) (*domain.ProviderEvent, error) {
	if s.webhookSecret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret is not configured", domain.ErrAuthentication)
	}
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature", domain.ErrAuthentication)
	}
	event, err := webhook.ConstructEventWithOptions(body, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                stripeTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}

	ev := &domain.ProviderEvent{
		Provider:  domain.ProviderCardCheckout,
		EventID:   event.ID,
		EventType: string(event.Type),
	}
	if event.Data == nil {
		return ev, nil
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		if cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			zap.L().Info("checkout session not paid yet",
				zap.String("event_id", event.ID), zap.String("session_id", cs.ID),
				zap.String("payment_status", string(cs.PaymentStatus)))
			return ev, nil
		}
		ev.Intent = stripeIntent(&cs)
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed, stripe.EventTypeCheckoutSessionExpired:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		ev.FailedRef = cs.ID
	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		ev.FailedRef = s.failedPaymentRef(pi.ID)
	}
	return ev, nil
}

// failedPaymentRef maps a failed payment intent to the checkout session that
// opened it, which is the key its pending entry was recorded under. When the
// session cannot be found the payment intent id is used.
func (s *Stripe) failedPaymentRef(paymentIntentID string) string {
	sessionID, err := s.sessionForPayment(paymentIntentID)
	if err != nil {
		zap.L().Warn("failed to find checkout session for payment intent",
			zap.String("payment_intent", paymentIntentID), zap.Error(err))
		return paymentIntentID
	}
	if sessionID == "" {
		return paymentIntentID
	}
	return sessionID
}

func findSessionByPaymentIntent(paymentIntentID string) (string, error) {
	params := &stripe.CheckoutSessionListParams{PaymentIntent: stripe.String(paymentIntentID)}
	params.Limit = stripe.Int64(1)
	it := session.List(params)
	if it.Next() {
		return it.CheckoutSession().ID, nil
	}
	return "", it.Err()
}

func (s *Stripe) LookupSession(_ context.Context, id string) (*domain.PaymentSession, error) {
	params := &stripe.CheckoutSessionParams{}
	cs, err := s.getSession(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("stripe get session: %w", err)
	}
	return &domain.PaymentSession{
		ID:     cs.ID,
		Paid:   cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Status: string(cs.PaymentStatus),
		Intent: stripeIntent(cs),
	}, nil
}

func (s *Stripe) CreateCheckout(_ context.Context, order domain.CheckoutOrder) (*domain.CheckoutSession, error) {
	md := checkoutMetadata(order)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.baseURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.baseURL + "/payment/cancelled"),
		ClientReferenceID: stripe.String(order.UserID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(order.Name),
					},
					UnitAmount: stripe.Int64(order.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: md,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: md,
		},
	}
	cs, err := s.newSession(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	return &domain.CheckoutSession{ID: cs.ID, URL: cs.URL, Provider: domain.ProviderCardCheckout}, nil
}

func stripeIntent(cs *stripe.CheckoutSession) *domain.PurchaseIntent {
	userID := lookup(cs.Metadata, metaUserID, "user_id")
	if userID == "" {
		userID = cs.ClientReferenceID
	}
	intent := intentFromMetadata(domain.ProviderCardCheckout, userID, cs.ID, cs.Metadata)
	if intent == nil {
		return nil
	}
	intent.AmountCents = cs.AmountTotal
	if cs.PaymentIntent != nil {
		intent.ProviderRef = cs.PaymentIntent.ID
	}
	return intent
}
