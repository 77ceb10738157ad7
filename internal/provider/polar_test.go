package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/pkg/clients"
)

const polarSecret = "polar_secret"

func signPolar(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestPolar(t *testing.T) (*Polar, *clients.MockHTTPClientI) {
	ctrl := gomock.NewController(t)
	client := clients.NewMockHTTPClientI(ctrl)
	p := NewPolar(PolarConfig{
		WebhookSecret: polarSecret,
		AccessToken:   "polar_at",
		APIURL:        "https://api.polar.test/",
		PublicBaseURL: "https://app.example",
		Products:      PolarProducts{Starter: "prod_s", Popular: "prod_p", Pro: "prod_pro", LinksUnlock: "prod_links"},
	}, client)
	return p, client
}

func TestPolar_Normalize(t *testing.T) {
	created := []byte(`{"id":"evt_1","type":"order.created","data":{"id":"ord_1","status":"paid","amount":999,
		"customer":{"external_id":"user-1"},"checkout":{"id":"chk_1"},
		"metadata":{"type":"credits_purchase","credits":15,"packageId":"popular"}}}`)
	links := []byte(`{"type":"order.completed","data":{"id":"ord_2","customer":{"external_id":"user-2"},
		"metadata":{"type":"links_unlock","outfit_id":"outfit-9"}}}`)
	refunded := []byte(`{"id":"evt_3","type":"order.refunded","data":{"id":"ord_3"}}`)
	paymentFailed := []byte(`{"id":"evt_5","type":"order.payment_failed","data":{"id":"ord_5","checkout_id":"chk_5"}}`)
	other := []byte(`{"id":"evt_4","type":"subscription.created","data":{"id":"sub_1"}}`)

	tests := []struct {
		name          string
		secret        string
		body          []byte
		signature     string
		expected      *domain.ProviderEvent
		expectedError error
	}{
		{
			name:      "Order created",
			secret:    polarSecret,
			body:      created,
			signature: signPolar(created, polarSecret),
			expected: &domain.ProviderEvent{
				Provider: domain.ProviderAlternativeCheckout, EventID: "evt_1", EventType: "order.created",
				Intent: &domain.PurchaseIntent{
					Type: domain.IntentCredits, UserID: "user-1", ExternalEventID: "ord_1",
					Provider: domain.ProviderAlternativeCheckout, Amount: 15, PackageID: "popular",
					AmountCents: 999, ProviderRef: "chk_1",
				},
			},
		},
		{
			name:      "Event id falls back to type and order",
			secret:    polarSecret,
			body:      links,
			signature: signPolar(links, polarSecret),
			expected: &domain.ProviderEvent{
				Provider: domain.ProviderAlternativeCheckout, EventID: "order.completed:ord_2", EventType: "order.completed",
				Intent: &domain.PurchaseIntent{
					Type: domain.IntentLinksUnlock, UserID: "user-2", ExternalEventID: "ord_2",
					Provider: domain.ProviderAlternativeCheckout, ResourceID: "outfit-9",
				},
			},
		},
		{
			name:      "Refund references the order",
			secret:    polarSecret,
			body:      refunded,
			signature: signPolar(refunded, polarSecret),
			expected: &domain.ProviderEvent{
				Provider: domain.ProviderAlternativeCheckout, EventID: "evt_3", EventType: "order.refunded", FailedRef: "ord_3",
			},
		},
		{
			name:      "Payment failure references the checkout",
			secret:    polarSecret,
			body:      paymentFailed,
			signature: signPolar(paymentFailed, polarSecret),
			expected: &domain.ProviderEvent{
				Provider: domain.ProviderAlternativeCheckout, EventID: "evt_5", EventType: "order.payment_failed", FailedRef: "chk_5",
			},
		},
		{
			name:      "Other event types carry nothing",
			secret:    polarSecret,
			body:      other,
			signature: signPolar(other, polarSecret),
			expected: &domain.ProviderEvent{
				Provider: domain.ProviderAlternativeCheckout, EventID: "evt_4", EventType: "subscription.created",
			},
		},
		{
			name:          "Signature from another secret",
			secret:        polarSecret,
			body:          created,
			signature:     signPolar(created, "nope"),
			expectedError: domain.ErrAuthentication,
		},
		{
			name:          "Missing signature",
			secret:        polarSecret,
			body:          created,
			expectedError: domain.ErrAuthentication,
		},
		{
			name:          "Secret not configured",
			body:          created,
			signature:     signPolar(created, ""),
			expectedError: domain.ErrAuthentication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolar(PolarConfig{WebhookSecret: tt.secret}, nil)

			ev, err := p.Normalize(tt.body, tt.signature)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ev)
		})
	}
}

func TestPolar_LookupSession(t *testing.T) {
	const (
		listByCheckout = "https://api.polar.test/v1/orders/?limit=1&checkout_id="
		orders         = "https://api.polar.test/v1/orders/"
		checkouts      = "https://api.polar.test/v1/checkouts/"
	)
	paidOrder := `{"id":"ord_1","status":"paid","payment_status":"paid","amount":499,"checkout_id":"chk_1",
		"customer":{"external_id":"user-1"},"metadata":{"type":"credits","packageId":"starter"}}`
	paidSession := &domain.PaymentSession{
		ID: "ord_1", Paid: true, Status: "paid",
		Intent: &domain.PurchaseIntent{
			Type: domain.IntentCredits, UserID: "user-1", ExternalEventID: "ord_1",
			Provider: domain.ProviderAlternativeCheckout, Amount: 5, PackageID: "starter", AmountCents: 499,
			ProviderRef: "chk_1",
		},
	}

	tests := []struct {
		name          string
		id            string
		prepareMock   func(client *clients.MockHTTPClientI)
		expected      *domain.PaymentSession
		expectedError error
	}{
		{
			name: "Checkout id resolves to its paid order",
			id:   "chk_1",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(listByCheckout+"chk_1", gomock.Any()).
					DoAndReturn(func(_ string, h http.Header) (int, []byte, http.Header, error) {
						assert.Equal(t, "Bearer polar_at", h.Get("Authorization"))
						return http.StatusOK, []byte(`{"items":[` + paidOrder + `]}`), nil, nil
					})
			},
			expected: paidSession,
		},
		{
			name: "Order id is still accepted",
			id:   "ord_1",
			prepareMock: func(client *clients.MockHTTPClientI) {
				gomock.InOrder(
					client.EXPECT().Get(listByCheckout+"ord_1", gomock.Any()).Return(http.StatusOK, []byte(`{"items":[]}`), nil, nil),
					client.EXPECT().Get(orders+"ord_1", gomock.Any()).Return(http.StatusOK, []byte(paidOrder), nil, nil),
				)
			},
			expected: paidSession,
		},
		{
			name: "Payment status decides over order status",
			id:   "ord_1",
			prepareMock: func(client *clients.MockHTTPClientI) {
				gomock.InOrder(
					client.EXPECT().Get(listByCheckout+"ord_1", gomock.Any()).Return(http.StatusUnprocessableEntity, nil, nil, nil),
					client.EXPECT().Get(orders+"ord_1", gomock.Any()).
						Return(http.StatusOK, []byte(`{"id":"ord_1","status":"paid","payment_status":"pending","paid":true}`), nil, nil),
				)
			},
			expected: &domain.PaymentSession{ID: "ord_1", Status: "paid"},
		},
		{
			name: "Explicit paid flag wins over status",
			id:   "ord_1",
			prepareMock: func(client *clients.MockHTTPClientI) {
				gomock.InOrder(
					client.EXPECT().Get(listByCheckout+"ord_1", gomock.Any()).Return(http.StatusNotFound, nil, nil, nil),
					client.EXPECT().Get(orders+"ord_1", gomock.Any()).
						Return(http.StatusOK, []byte(`{"id":"ord_1","status":"paid","paid":false}`), nil, nil),
				)
			},
			expected: &domain.PaymentSession{ID: "ord_1", Status: "paid"},
		},
		{
			name: "Checkout without an order yet is unpaid",
			id:   "chk_2",
			prepareMock: func(client *clients.MockHTTPClientI) {
				gomock.InOrder(
					client.EXPECT().Get(listByCheckout+"chk_2", gomock.Any()).Return(http.StatusOK, []byte(`{"items":[]}`), nil, nil),
					client.EXPECT().Get(orders+"chk_2", gomock.Any()).Return(http.StatusNotFound, nil, nil, nil),
					client.EXPECT().Get(checkouts+"chk_2", gomock.Any()).
						Return(http.StatusOK, []byte(`{"id":"chk_2","status":"confirmed"}`), nil, nil),
				)
			},
			expected: &domain.PaymentSession{ID: "chk_2", Status: "confirmed"},
		},
		{
			name: "Unknown id",
			id:   "nope",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(http.StatusNotFound, nil, nil, nil).Times(3)
			},
			expectedError: domain.ErrNotFound,
		},
		{
			name: "Polar error status",
			id:   "chk_1",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(http.StatusBadGateway, nil, nil, nil)
			},
			expectedError: errors.New("unexpected status 502"),
		},
		{
			name: "Transport error",
			id:   "chk_1",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(0, nil, nil, errors.New("dial tcp"))
			},
			expectedError: errors.New("dial tcp"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, client := newTestPolar(t)
			tt.prepareMock(client)

			got, err := p.LookupSession(context.Background(), tt.id)
			if tt.expectedError != nil {
				require.Error(t, err)
				if errors.Is(tt.expectedError, domain.ErrNotFound) {
					assert.ErrorIs(t, err, domain.ErrNotFound)
				} else {
					assert.Contains(t, err.Error(), tt.expectedError.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPolar_CreateCheckout(t *testing.T) {
	tests := []struct {
		name          string
		order         domain.CheckoutOrder
		prepareMock   func(client *clients.MockHTTPClientI)
		expected      *domain.CheckoutSession
		expectedError bool
	}{
		{
			name:  "Credits package",
			order: domain.CheckoutOrder{UserID: "user-1", Type: domain.IntentCredits, PackageID: "pro", Credits: 50},
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Post("https://api.polar.test/v1/checkouts/", gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ string, h http.Header, body []byte) (int, []byte, http.Header, error) {
						assert.Equal(t, "application/json", h.Get("Content-Type"))
						var req polarCheckoutRequest
						require.NoError(t, json.Unmarshal(body, &req))
						assert.Equal(t, []string{"prod_pro"}, req.Products)
						assert.Equal(t, "user-1", req.ExternalCustomerID)
						assert.Equal(t, "50", req.Metadata["credits"])
						return http.StatusCreated, []byte(`{"id":"chk_1","url":"https://polar.sh/checkout/chk_1"}`), nil, nil
					})
			},
			expected: &domain.CheckoutSession{ID: "chk_1", URL: "https://polar.sh/checkout/chk_1", Provider: domain.ProviderAlternativeCheckout},
		},
		{
			name:  "Links unlock",
			order: domain.CheckoutOrder{UserID: "user-1", Type: domain.IntentLinksUnlock, ResourceID: "outfit-1"},
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ string, _ http.Header, body []byte) (int, []byte, http.Header, error) {
						var req polarCheckoutRequest
						require.NoError(t, json.Unmarshal(body, &req))
						assert.Equal(t, []string{"prod_links"}, req.Products)
						assert.Equal(t, "outfit-1", req.Metadata["outfit_id"])
						return http.StatusOK, []byte(`{"id":"chk_2","url":"u"}`), nil, nil
					})
			},
			expected: &domain.CheckoutSession{ID: "chk_2", URL: "u", Provider: domain.ProviderAlternativeCheckout},
		},
		{
			name:          "No product configured",
			order:         domain.CheckoutOrder{UserID: "user-1", Type: domain.IntentCredits, PackageID: "mega"},
			prepareMock:   func(*clients.MockHTTPClientI) {},
			expectedError: true,
		},
		{
			name:  "Rejected by Polar",
			order: domain.CheckoutOrder{UserID: "user-1", Type: domain.IntentCredits, PackageID: "starter"},
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(http.StatusUnprocessableEntity, []byte(`{"detail":"bad"}`), nil, nil)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, client := newTestPolar(t)
			tt.prepareMock(client)

			got, err := p.CreateCheckout(context.Background(), tt.order)
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
