//go:generate mockgen -source=webhook.go -destination=mock_webhook.go -package=webhook
package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/dto"
	"github.com/GlebRadaev/creditsettle/pkg/utils"
)

const maxBodyBytes = 1 << 20

type Service interface {
	SettleEvent(ctx context.Context, ev domain.ProviderEvent) (domain.SettlementResult, error)
}

// Normalizer verifies a provider delivery and maps it to a ProviderEvent.
type Normalizer interface {
	Normalize(body []byte, signature string) (*domain.ProviderEvent, error)
}

type WebhookHandler struct {
	settlementService Service
	normalizers       map[domain.Provider]Normalizer
}

func New(settlementService Service, normalizers map[domain.Provider]Normalizer) *WebhookHandler {
	return &WebhookHandler{
		settlementService: settlementService,
		normalizers:       normalizers,
	}
}

// Stripe godoc
//
//	@Summary		Card checkout webhook
//	@Description	Receives Stripe events. The raw body is verified against the Stripe-Signature header before anything is settled.
//	@Tags			Webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string				true	"Stripe signature header"
//	@Success		200					{object}	dto.WebhookAckDTO	"Event accepted, duplicate, ignored or permanently rejected"
//	@Failure		401					{object}	utils.Response		"Signature missing or invalid"
//	@Failure		409					{object}	utils.Response		"The same purchase is being settled"
//	@Failure		500					{object}	utils.Response		"Internal server error"
//	@Router			/api/webhooks/stripe [post]
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, domain.ProviderCardCheckout, r.Header.Get("Stripe-Signature"))
}

// Polar godoc
//
//	@Summary		Alternative checkout webhook
//	@Description	Receives Polar events signed with a hex HMAC-SHA256 of the raw body.
//	@Tags			Webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Polar-Signature	header		string				true	"Hex HMAC-SHA256 of the body"
//	@Success		200					{object}	dto.WebhookAckDTO	"Event accepted, duplicate, ignored or permanently rejected"
//	@Failure		401					{object}	utils.Response		"Signature missing or invalid"
//	@Failure		409					{object}	utils.Response		"The same purchase is being settled"
//	@Failure		500					{object}	utils.Response		"Internal server error"
//	@Router			/api/webhooks/polar [post]
func (h *WebhookHandler) Polar(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, domain.ProviderAlternativeCheckout, r.Header.Get("X-Polar-Signature"))
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request, provider domain.Provider, signature string) {
	normalizer, ok := h.normalizers[provider]
	if !ok || normalizer == nil {
		utils.RespondWithError(w, http.StatusNotFound, "Provider not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	ev, err := normalizer.Normalize(body, signature)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			zap.L().Warn("webhook rejected", zap.String("provider", string(provider)), zap.Error(err))
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid signature")
			return
		}
		zap.L().Error("webhook payload could not be read", zap.String("provider", string(provider)), zap.Error(err))
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	log := zap.L().With(
		zap.String("provider", string(provider)),
		zap.String("event_id", ev.EventID),
		zap.String("event_type", ev.EventType),
	)
	log.Info("webhook received")

	result, err := h.settlementService.SettleEvent(r.Context(), *ev)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSettlementInProgress):
			log.Info("settlement in progress, asking provider to retry")
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrOwnershipMismatch),
			errors.Is(err, domain.ErrInvalidIntent),
			errors.Is(err, domain.ErrInvalidInput):
			// A retry cannot fix these, so the delivery is acknowledged.
			log.Error("webhook settlement rejected", zap.Error(err))
			utils.RespondWithJSON(w, http.StatusOK, dto.WebhookAckDTO{Received: true})
		default:
			log.Error("webhook settlement failed", zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	log.Info("webhook processed",
		zap.Bool("duplicate", result.Duplicate),
		zap.Bool("ignored", result.Ignored),
		zap.String("entry_id", result.EntryID))
	utils.RespondWithJSON(w, http.StatusOK, dto.WebhookAckDTO{Received: true})
}
