package dto

import "time"

type BalanceResponseDTO struct {
	Balance int64 `json:"balance" example:"3"`
}

type SpendRequestDTO struct {
	UserID     string `json:"userId,omitempty" example:"user_2a9f"`
	ResourceID string `json:"resourceId" example:"outfit-1"`
}

type SpendResponseDTO struct {
	Success    bool   `json:"success" example:"true"`
	NewBalance *int64 `json:"newBalance,omitempty" example:"2"`
	Error      string `json:"error,omitempty"`
}

type TransactionDTO struct {
	ID              string    `json:"id" example:"5f0c6c1e-8f0e-4a57-9d5e-7d1b0c7f5a11"`
	Provider        string    `json:"provider" example:"card-checkout"`
	Kind            string    `json:"kind" example:"credits-topup"`
	Amount          int64     `json:"amount" example:"15"`
	Status          string    `json:"status" example:"completed"`
	ExternalEventID string    `json:"externalEventId,omitempty" example:"cs_test_a1b2"`
	PackageID       string    `json:"packageId,omitempty" example:"popular"`
	ResourceID      string    `json:"resourceId,omitempty"`
	NewBalance      *int64    `json:"newBalance,omitempty" example:"18"`
	CreatedAt       time.Time `json:"createdAt" example:"2025-06-01T12:00:00Z"`
}

type PackageDTO struct {
	ID         string `json:"id" example:"popular"`
	Name       string `json:"name" example:"Popular Pack"`
	Credits    int64  `json:"credits" example:"15"`
	PriceCents int64  `json:"priceCents" example:"999"`
	Popular    bool   `json:"popular,omitempty"`
}
