package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/dto"
)

func NewMock(t *testing.T) (*WebhookHandler, *MockService, *MockNormalizer, *MockNormalizer) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	stripe := NewMockNormalizer(ctrl)
	polar := NewMockNormalizer(ctrl)
	handler := New(service, map[domain.Provider]Normalizer{
		domain.ProviderCardCheckout:        stripe,
		domain.ProviderAlternativeCheckout: polar,
	})
	return handler, service, stripe, polar
}

func TestStripeHandler(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	event := &domain.ProviderEvent{
		Provider:  domain.ProviderCardCheckout,
		EventID:   "evt_1",
		EventType: "checkout.session.completed",
		Intent: &domain.PurchaseIntent{
			Type: domain.IntentCredits, UserID: "user-1", ExternalEventID: "cs_1",
			Provider: domain.ProviderCardCheckout, Amount: 15,
		},
	}

	tests := []struct {
		name         string
		signature    string
		prepareMock  func(service *MockService, normalizer *MockNormalizer)
		expectedCode int
		expectedAck  bool
	}{
		{
			name:      "Settled",
			signature: "t=1,v1=abc",
			prepareMock: func(service *MockService, normalizer *MockNormalizer) {
				normalizer.EXPECT().Normalize(body, "t=1,v1=abc").Return(event, nil)
				service.EXPECT().SettleEvent(gomock.Any(), *event).Return(domain.SettlementResult{EntryID: "e1"}, nil)
			},
			expectedCode: http.StatusOK,
			expectedAck:  true,
		},
		{
			name:      "Duplicate delivery",
			signature: "sig",
			prepareMock: func(service *MockService, normalizer *MockNormalizer) {
				normalizer.EXPECT().Normalize(body, "sig").Return(event, nil)
				service.EXPECT().SettleEvent(gomock.Any(), *event).Return(domain.SettlementResult{Duplicate: true}, nil)
			},
			expectedCode: http.StatusOK,
			expectedAck:  true,
		},
		{
			name:      "Bad signature",
			signature: "forged",
			prepareMock: func(_ *MockService, normalizer *MockNormalizer) {
				normalizer.EXPECT().Normalize(body, "forged").Return(nil, fmt.Errorf("%w: mismatch", domain.ErrAuthentication))
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:      "Unreadable payload",
			signature: "sig",
			prepareMock: func(_ *MockService, normalizer *MockNormalizer) {
				normalizer.EXPECT().Normalize(body, "sig").Return(nil, errors.New("decode"))
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:      "Resource missing is acknowledged",
			signature: "sig",
			prepareMock: func(service *MockService, normalizer *MockNormalizer) {
				normalizer.EXPECT().Normalize(body, "sig").Return(event, nil)
				service.EXPECT().SettleEvent(gomock.Any(), *event).Return(domain.SettlementResult{}, domain.ErrNotFound)
			},
			expectedCode: http.StatusOK,
			expectedAck:  true,
		},
		{
			name:      "Ownership mismatch is acknowledged",
			signature: "sig",
			prepareMock: func(service *MockService, normalizer *MockNormalizer) {
				normalizer.EXPECT().Normalize(body, "sig").Return(event, nil)
				service.EXPECT().SettleEvent(gomock.Any(), *event).Return(domain.SettlementResult{}, domain.ErrOwnershipMismatch)
			},
			expectedCode: http.StatusOK,
			expectedAck:  true,
		},
		{
			name:      "Invalid intent is acknowledged",
			signature: "sig",
			prepareMock: func(service *MockService, normalizer *MockNormalizer) {
				normalizer.EXPECT().Normalize(body, "sig").Return(event, nil)
				service.EXPECT().SettleEvent(gomock.Any(), *event).
					Return(domain.SettlementResult{}, fmt.Errorf("%w: amount", domain.ErrInvalidIntent))
			},
			expectedCode: http.StatusOK,
			expectedAck:  true,
		},
		{
			name:      "Settlement in progress",
			signature: "sig",
			prepareMock: func(service *MockService, normalizer *MockNormalizer) {
				normalizer.EXPECT().Normalize(body, "sig").Return(event, nil)
				service.EXPECT().SettleEvent(gomock.Any(), *event).Return(domain.SettlementResult{}, domain.ErrSettlementInProgress)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name:      "Store failure asks for a retry",
			signature: "sig",
			prepareMock: func(service *MockService, normalizer *MockNormalizer) {
				normalizer.EXPECT().Normalize(body, "sig").Return(event, nil)
				service.EXPECT().SettleEvent(gomock.Any(), *event).Return(domain.SettlementResult{}, errors.New("db down"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service, stripe, _ := NewMock(t)
			tt.prepareMock(service, stripe)

			r := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(body))
			r.Header.Set("Stripe-Signature", tt.signature)
			w := httptest.NewRecorder()
			handler.Stripe(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedAck {
				var ack dto.WebhookAckDTO
				assert.NoError(t, json.NewDecoder(w.Body).Decode(&ack))
				assert.True(t, ack.Received)
			}
		})
	}
}

func TestPolarHandler(t *testing.T) {
	handler, service, _, polar := NewMock(t)
	body := []byte(`{"type":"subscription.created"}`)
	event := &domain.ProviderEvent{Provider: domain.ProviderAlternativeCheckout, EventID: "subscription.created:", EventType: "subscription.created"}

	polar.EXPECT().Normalize(body, "abc123").Return(event, nil)
	service.EXPECT().SettleEvent(gomock.Any(), *event).Return(domain.SettlementResult{Ignored: true}, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/webhooks/polar", bytes.NewReader(body))
	r.Header.Set("X-Polar-Signature", "abc123")
	w := httptest.NewRecorder()
	handler.Polar(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnconfiguredProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := New(NewMockService(ctrl), map[domain.Provider]Normalizer{})

	r := httptest.NewRequest(http.MethodPost, "/api/webhooks/polar", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	handler.Polar(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
