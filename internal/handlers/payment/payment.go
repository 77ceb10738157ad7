//go:generate mockgen -source=payment.go -destination=mock_payment.go -package=payment
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/dto"
	"github.com/GlebRadaev/creditsettle/pkg/auth"
	"github.com/GlebRadaev/creditsettle/pkg/utils"
)

type Service interface {
	VerifyAndSettle(ctx context.Context, req domain.VerifyRequest) (domain.SettlementResult, error)
	CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
}

type PaymentHandler struct {
	paymentService Service
}

func New(paymentService Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Verify godoc
//
//	@Summary		Verify a finished payment
//	@Description	Looks the session up at its provider and settles it for the authenticated user. Settling a purchase the webhook already applied reports duplicate=true.
//	@Tags			Payments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.VerifyRequestDTO	true	"Session to verify"
//	@Success		200		{object}	dto.VerifyResponseDTO	"Purchase settled"
//	@Failure		400		{object}	dto.VerifyResponseDTO	"Missing input or payment not completed"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		404		{object}	dto.VerifyResponseDTO	"Session or resource not found for this user"
//	@Failure		409		{object}	dto.VerifyResponseDTO	"Settlement in progress"
//	@Failure		500		{object}	dto.VerifyResponseDTO	"Internal server error"
//	@Router			/api/payments/verify [post]
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req dto.VerifyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondVerify(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID != "" && req.UserID != userID {
		zap.L().Warn("verify body names another user",
			zap.String("caller", userID), zap.String("claimed", req.UserID))
		respondVerify(w, http.StatusNotFound, "Session not found")
		return
	}

	result, err := h.paymentService.VerifyAndSettle(r.Context(), domain.VerifyRequest{
		Provider:          domain.Provider(req.Provider),
		SessionOrToken:    req.SessionOrToken,
		UserID:            userID,
		ClaimedType:       req.Type,
		ClaimedAmount:     req.Amount,
		ClaimedResourceID: req.ResourceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentNotCompleted):
			respondVerify(w, http.StatusBadRequest, "Payment not completed")
		case errors.Is(err, domain.ErrInvalidInput),
			errors.Is(err, domain.ErrUnsupportedProvider),
			errors.Is(err, domain.ErrInvalidIntent):
			respondVerify(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrOwnershipMismatch):
			respondVerify(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, domain.ErrSettlementInProgress):
			respondVerify(w, http.StatusConflict, "Settlement in progress")
		default:
			zap.L().Error("verify failed", zap.String("session", req.SessionOrToken), zap.Error(err))
			respondVerify(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.VerifyResponseDTO{
		Success:    true,
		NewBalance: result.NewBalance,
		Duplicate:  result.Duplicate,
	})
}

// Checkout godoc
//
//	@Summary		Create a checkout
//	@Description	Prices the purchase on the server and opens a provider checkout for the authenticated user.
//	@Tags			Payments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CheckoutRequestDTO	true	"What to buy"
//	@Success		200		{object}	dto.CheckoutResponseDTO	"Checkout created"
//	@Failure		400		{object}	utils.Response			"Unknown package, provider or type"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		404		{object}	utils.Response			"Resource not found for this user"
//	@Failure		409		{object}	utils.Response			"Links already unlocked"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/payments/checkout [post]
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req dto.CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.paymentService.CreateCheckout(r.Context(), domain.CheckoutRequest{
		Provider:   domain.Provider(req.Provider),
		UserID:     userID,
		Type:       domain.ParseIntentType(req.Type),
		PackageID:  req.PackageID,
		ResourceID: req.ResourceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownPackage),
			errors.Is(err, domain.ErrUnsupportedProvider),
			errors.Is(err, domain.ErrInvalidInput):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrOwnershipMismatch):
			utils.RespondWithError(w, http.StatusNotFound, "Resource not found")
		case errors.Is(err, domain.ErrAlreadyUnlocked):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			zap.L().Error("checkout failed", zap.String("user_id", userID), zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.CheckoutResponseDTO{
		ID:       session.ID,
		URL:      session.URL,
		Provider: string(session.Provider),
	})
}

func respondVerify(w http.ResponseWriter, code int, message string) {
	utils.RespondWithJSON(w, code, dto.VerifyResponseDTO{Error: message})
}
