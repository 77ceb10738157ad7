//go:generate mockgen -source=credits.go -destination=mock_credits.go -package=credits
package credits

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/dto"
	"github.com/GlebRadaev/creditsettle/pkg/auth"
	"github.com/GlebRadaev/creditsettle/pkg/utils"
)

type Service interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Entries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error)
	SpendCreditForUnlock(ctx context.Context, userID, resourceID string) (domain.SpendResult, error)
	Packages() []domain.CreditPackage
}

type CreditsHandler struct {
	creditsService Service
}

func New(creditsService Service) *CreditsHandler {
	return &CreditsHandler{
		creditsService: creditsService,
	}
}

// Spend godoc
//
//	@Summary		Unlock shopping links with a credit
//	@Description	Withdraws one credit and unlocks the resource's links. If the unlock fails the credit is refunded.
//	@Tags			Credits
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SpendRequestDTO		true	"Resource to unlock"
//	@Success		200		{object}	dto.SpendResponseDTO	"Links unlocked"
//	@Failure		400		{object}	dto.SpendResponseDTO	"Insufficient credits or already unlocked"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		404		{object}	dto.SpendResponseDTO	"Resource not found for this user"
//	@Failure		500		{object}	dto.SpendResponseDTO	"Internal server error"
//	@Router			/api/credits/spend [post]
func (h *CreditsHandler) Spend(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req dto.SpendRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondSpend(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID != "" && req.UserID != userID {
		respondSpend(w, http.StatusNotFound, "Resource not found")
		return
	}

	result, err := h.creditsService.SpendCreditForUnlock(r.Context(), userID, req.ResourceID)
	if err != nil {
		var compErr *domain.CompensationError
		switch {
		case errors.As(err, &compErr):
			zap.L().Error("credit spend left an unrefunded withdrawal",
				zap.String("user_id", compErr.UserID), zap.String("entry_id", compErr.EntryID), zap.Error(err))
			respondSpend(w, http.StatusInternalServerError, "Internal server error")
		case errors.Is(err, domain.ErrInsufficientBalance):
			respondSpend(w, http.StatusBadRequest, "Insufficient credits")
		case errors.Is(err, domain.ErrAlreadyUnlocked):
			respondSpend(w, http.StatusBadRequest, "Links already unlocked")
		case errors.Is(err, domain.ErrInvalidInput):
			respondSpend(w, http.StatusBadRequest, "resourceId is required")
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrOwnershipMismatch):
			respondSpend(w, http.StatusNotFound, "Resource not found")
		default:
			zap.L().Error("credit spend failed", zap.String("user_id", userID), zap.Error(err))
			respondSpend(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	newBalance := result.NewBalance
	utils.RespondWithJSON(w, http.StatusOK, dto.SpendResponseDTO{Success: true, NewBalance: &newBalance})
}

// GetBalance godoc
//
//	@Summary		Get credit balance
//	@Description	Returns the authenticated user's balance. The first call opens the account with the starting credits.
//	@Tags			Credits
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO	"Current balance"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/credits/balance [get]
func (h *CreditsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	balance, err := h.creditsService.Balance(r.Context(), userID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.String("user_id", userID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{Balance: balance})
}

// GetTransactions godoc
//
//	@Summary		Get ledger history
//	@Description	Returns the user's ledger entries, newest first.
//	@Tags			Credits
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int					false	"Maximum number of entries"
//	@Success		200		{array}		dto.TransactionDTO	"Ledger entries"
//	@Failure		400		{object}	utils.Response		"Invalid limit"
//	@Failure		401		{object}	utils.Response		"User not authorized"
//	@Failure		500		{object}	utils.Response		"Internal server error"
//	@Router			/api/credits/transactions [get]
func (h *CreditsHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.creditsService.Entries(r.Context(), userID, limit)
	if err != nil {
		zap.L().Error("failed to list entries", zap.String("user_id", userID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	response := make([]dto.TransactionDTO, len(entries))
	for i, e := range entries {
		response[i] = dto.TransactionDTO{
			ID:         e.ID,
			Provider:   string(e.Provider),
			Kind:       string(e.Kind),
			Amount:     e.Amount,
			Status:     string(e.Status),
			PackageID:  e.Metadata.PackageID,
			ResourceID: e.Metadata.ResourceID,
			NewBalance: e.Metadata.NewBalance,
			CreatedAt:  e.CreatedAt,
		}
		if e.ExternalEventID != nil {
			response[i].ExternalEventID = *e.ExternalEventID
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetPackages godoc
//
//	@Summary		List credit packages
//	@Tags			Credits
//	@Produce		json
//	@Success		200	{array}	dto.PackageDTO	"Package catalog"
//	@Router			/api/credits/packages [get]
func (h *CreditsHandler) GetPackages(w http.ResponseWriter, _ *http.Request) {
	packages := h.creditsService.Packages()
	response := make([]dto.PackageDTO, len(packages))
	for i, p := range packages {
		response[i] = dto.PackageDTO{
			ID:         p.ID,
			Name:       p.Name,
			Credits:    p.Credits,
			PriceCents: p.PriceCents,
			Popular:    p.Popular,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

func respondSpend(w http.ResponseWriter, code int, message string) {
	utils.RespondWithJSON(w, code, dto.SpendResponseDTO{Error: message})
}
