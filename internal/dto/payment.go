package dto

type VerifyRequestDTO struct {
	SessionOrToken string `json:"sessionOrToken" example:"cs_test_a1b2"`
	Provider       string `json:"provider,omitempty" example:"card-checkout"`
	UserID         string `json:"userId,omitempty" example:"user_2a9f"`
	Type           string `json:"type,omitempty" example:"credits"`
	Amount         int64  `json:"amount,omitempty" example:"15"`
	ResourceID     string `json:"resourceId,omitempty"`
}

type VerifyResponseDTO struct {
	Success    bool   `json:"success" example:"true"`
	NewBalance *int64 `json:"newBalance,omitempty" example:"18"`
	Duplicate  bool   `json:"duplicate,omitempty"`
	Error      string `json:"error,omitempty"`
}

type CheckoutRequestDTO struct {
	Provider   string `json:"provider,omitempty" example:"card-checkout"`
	Type       string `json:"type" example:"credits"`
	PackageID  string `json:"packageId,omitempty" example:"popular"`
	ResourceID string `json:"resourceId,omitempty"`
}

type CheckoutResponseDTO struct {
	ID       string `json:"id" example:"cs_test_a1b2"`
	URL      string `json:"url" example:"https://checkout.stripe.com/c/pay/cs_test_a1b2"`
	Provider string `json:"provider" example:"card-checkout"`
}
