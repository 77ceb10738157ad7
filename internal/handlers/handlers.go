//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/creditsettle/docs"
	"github.com/GlebRadaev/creditsettle/internal/domain"
	creditshandlers "github.com/GlebRadaev/creditsettle/internal/handlers/credits"
	entitlementshandlers "github.com/GlebRadaev/creditsettle/internal/handlers/entitlements"
	paymenthandlers "github.com/GlebRadaev/creditsettle/internal/handlers/payment"
	webhookhandlers "github.com/GlebRadaev/creditsettle/internal/handlers/webhook"
	"github.com/GlebRadaev/creditsettle/internal/service"
)

type WebhookHandler interface {
	Stripe(w http.ResponseWriter, r *http.Request)
	Polar(w http.ResponseWriter, r *http.Request)
}

type PaymentHandler interface {
	Verify(w http.ResponseWriter, r *http.Request)
	Checkout(w http.ResponseWriter, r *http.Request)
}

type CreditsHandler interface {
	Spend(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
	GetPackages(w http.ResponseWriter, r *http.Request)
}

type EntitlementHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
}

// Options wires what the routes need besides the services.
type Options struct {
	Normalizers    map[domain.Provider]webhookhandlers.Normalizer
	AuthMiddleware func(http.Handler) http.Handler
	CORSOrigins    []string
}

type Handlers struct {
	WebhookHandler     WebhookHandler
	PaymentHandler     PaymentHandler
	CreditsHandler     CreditsHandler
	EntitlementHandler EntitlementHandler

	authMiddleware func(http.Handler) http.Handler
	corsOrigins    []string
}

func New(s *service.Services, opts Options) *Handlers {
	return &Handlers{
		WebhookHandler:     webhookhandlers.New(s.SettlementService, opts.Normalizers),
		PaymentHandler:     paymenthandlers.New(s.PaymentService),
		CreditsHandler:     creditshandlers.New(s.CreditsService),
		EntitlementHandler: entitlementshandlers.New(s.EntitlementService),
		authMiddleware:     opts.AuthMiddleware,
		corsOrigins:        opts.CORSOrigins,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		cors.New(cors.Options{
			AllowedOrigins:   h.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}).Handler,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", h.WebhookHandler.Stripe)
			r.Post("/polar", h.WebhookHandler.Polar)
		})
		r.Route("/payments", func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/verify", h.PaymentHandler.Verify)
			r.Post("/checkout", h.PaymentHandler.Checkout)
		})
		r.Route("/credits", func(r chi.Router) {
			r.Get("/packages", h.CreditsHandler.GetPackages)
			r.Group(func(r chi.Router) {
				r.Use(h.requireAuth)
				r.Post("/spend", h.CreditsHandler.Spend)
				r.Get("/balance", h.CreditsHandler.GetBalance)
				r.Get("/transactions", h.CreditsHandler.GetTransactions)
			})
		})
		r.With(h.requireAuth).Post("/entitlements", h.EntitlementHandler.Register)
	})

	return r
}

func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	if h.authMiddleware == nil {
		return next
	}
	return h.authMiddleware(next)
}
