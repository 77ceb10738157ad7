package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	_ "github.com/GlebRadaev/creditsettle/docs"
	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/handlers/credits"
	"github.com/GlebRadaev/creditsettle/internal/handlers/entitlements"
	"github.com/GlebRadaev/creditsettle/internal/handlers/payment"
	"github.com/GlebRadaev/creditsettle/internal/handlers/webhook"
	"github.com/GlebRadaev/creditsettle/internal/service"
	"github.com/GlebRadaev/creditsettle/pkg/auth"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	services := &service.Services{
		SettlementService:  webhook.NewMockService(ctrl),
		PaymentService:     payment.NewMockService(ctrl),
		CreditsService:     credits.NewMockService(ctrl),
		EntitlementService: entitlements.NewMockService(ctrl),
	}

	h := New(services, Options{
		Normalizers: map[domain.Provider]webhook.Normalizer{domain.ProviderCardCheckout: webhook.NewMockNormalizer(ctrl)},
	})
	assert.NotNil(t, h, "Handlers should not be nil")
	assert.NotNil(t, h.WebhookHandler)
	assert.NotNil(t, h.CreditsHandler)
}

func TestInitRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWebhookHandler := NewMockWebhookHandler(ctrl)
	mockPaymentHandler := NewMockPaymentHandler(ctrl)
	mockCreditsHandler := NewMockCreditsHandler(ctrl)
	mockEntitlementHandler := NewMockEntitlementHandler(ctrl)

	mockWebhookHandler.EXPECT().Stripe(gomock.Any(), gomock.Any()).AnyTimes()
	mockWebhookHandler.EXPECT().Polar(gomock.Any(), gomock.Any()).AnyTimes()
	mockPaymentHandler.EXPECT().Verify(gomock.Any(), gomock.Any()).AnyTimes()
	mockPaymentHandler.EXPECT().Checkout(gomock.Any(), gomock.Any()).AnyTimes()
	mockCreditsHandler.EXPECT().Spend(gomock.Any(), gomock.Any()).AnyTimes()
	mockCreditsHandler.EXPECT().GetBalance(gomock.Any(), gomock.Any()).AnyTimes()
	mockCreditsHandler.EXPECT().GetTransactions(gomock.Any(), gomock.Any()).AnyTimes()
	mockCreditsHandler.EXPECT().GetPackages(gomock.Any(), gomock.Any()).AnyTimes()
	mockEntitlementHandler.EXPECT().Register(gomock.Any(), gomock.Any()).AnyTimes()

	jwtService := auth.NewJWTService("test-secret")
	h := &Handlers{
		WebhookHandler:     mockWebhookHandler,
		PaymentHandler:     mockPaymentHandler,
		CreditsHandler:     mockCreditsHandler,
		EntitlementHandler: mockEntitlementHandler,
		authMiddleware:     jwtService.Middleware,
		corsOrigins:        []string{"https://app.example"},
	}

	router := chi.NewRouter()
	h.InitRoutes(router)

	token, err := jwtService.GenerateJWT("user-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	tests := []struct {
		method string
		url    string
		token  string
		status int
	}{
		{"POST", "/api/webhooks/stripe", "", http.StatusOK},
		{"POST", "/api/webhooks/polar", "", http.StatusOK},
		{"GET", "/api/credits/packages", "", http.StatusOK},
		{"GET", "/metrics", "", http.StatusOK},
		{"POST", "/api/payments/verify", "", http.StatusUnauthorized},
		{"POST", "/api/payments/checkout", "", http.StatusUnauthorized},
		{"POST", "/api/credits/spend", "", http.StatusUnauthorized},
		{"GET", "/api/credits/balance", "", http.StatusUnauthorized},
		{"GET", "/api/credits/transactions", "", http.StatusUnauthorized},
		{"POST", "/api/entitlements", "", http.StatusUnauthorized},
		{"POST", "/api/payments/verify", token, http.StatusOK},
		{"POST", "/api/credits/spend", token, http.StatusOK},
		{"GET", "/api/credits/balance", token, http.StatusOK},
		{"POST", "/api/entitlements", token, http.StatusOK},
		{"POST", "/api/credits/spend", "not-a-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("CORS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/credits/spend", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
