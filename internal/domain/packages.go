package domain

// LinksUnlockPriceCents is the card price of unlocking shopping links for one resource.
const LinksUnlockPriceCents int64 = 500

type CreditPackage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Credits    int64  `json:"credits"`
	PriceCents int64  `json:"price_cents"`
	Popular    bool   `json:"popular,omitempty"`
}

var creditPackages = []CreditPackage{
	{ID: "starter", Name: "Starter Pack", Credits: 5, PriceCents: 499},
	{ID: "popular", Name: "Popular Pack", Credits: 15, PriceCents: 999, Popular: true},
	{ID: "pro", Name: "Pro Pack", Credits: 50, PriceCents: 2499},
}

func CreditPackages() []CreditPackage {
	out := make([]CreditPackage, len(creditPackages))
	copy(out, creditPackages)
	return out
}

func FindPackage(id string) (CreditPackage, bool) {
	for _, p := range creditPackages {
		if p.ID == id {
			return p, true
		}
	}
	return CreditPackage{}, false
}
