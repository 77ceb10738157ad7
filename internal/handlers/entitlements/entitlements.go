//go:generate mockgen -source=entitlements.go -destination=mock_entitlements.go -package=entitlements
package entitlements

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
	Register(ctx context.Context, resourceID, ownerID string) (*domain.Entitlement, error)
}

type EntitlementHandler struct {
	entitlementService Service
}

func New(entitlementService Service) *EntitlementHandler {
	return &EntitlementHandler{
		entitlementService: entitlementService,
	}
}

// Register godoc
//
//	@Summary		Register a resource
//	@Description	Records the authenticated user as the owner of a resource so its links can later be unlocked. Registering again returns the existing record.
//	@Tags			Entitlements
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.RegisterEntitlementRequestDTO	true	"Resource to register"
//	@Success		200		{object}	dto.EntitlementResponseDTO			"Entitlement"
//	@Failure		400		{object}	utils.Response						"Missing resource id"
//	@Failure		401		{object}	utils.Response						"User not authorized"
//	@Failure		409		{object}	utils.Response						"Resource belongs to another user"
//	@Failure		500		{object}	utils.Response						"Internal server error"
//	@Router			/api/entitlements [post]
func (h *EntitlementHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req dto.RegisterEntitlementRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.entitlementService.Register(r.Context(), req.ResourceID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			utils.RespondWithError(w, http.StatusBadRequest, "resourceId is required")
		case errors.Is(err, domain.ErrOwnershipMismatch):
			utils.RespondWithError(w, http.StatusConflict, "Resource belongs to another user")
		default:
			zap.L().Error("failed to register entitlement",
				zap.String("resource_id", req.ResourceID), zap.String("user_id", userID), zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.EntitlementResponseDTO{
		ResourceID: e.ResourceID,
		OwnerID:    e.OwnerID,
		Unlocked:   e.Unlocked,
		CreatedAt:  e.CreatedAt,
		UnlockedAt: e.UnlockedAt,
	})
}
