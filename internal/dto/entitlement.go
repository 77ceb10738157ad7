package dto

import "time"

type RegisterEntitlementRequestDTO struct {
	ResourceID string `json:"resourceId" example:"outfit-1"`
}

type EntitlementResponseDTO struct {
	ResourceID string     `json:"resourceId" example:"outfit-1"`
	OwnerID    string     `json:"ownerId" example:"user_2a9f"`
	Unlocked   bool       `json:"unlocked" example:"false"`
	CreatedAt  time.Time  `json:"createdAt" example:"2025-06-01T12:00:00Z"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}
