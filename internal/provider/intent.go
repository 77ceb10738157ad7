// Package provider adapts payment providers to provider-independent events,
// sessions and checkouts.
package provider

import (
	"strconv"
	"strings"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

// Metadata keys written into checkouts. Both spellings are read back because
// older checkouts used camel case.
const (
	metaType       = "type"
	metaUserID     = "userId"
	metaCredits    = "credits"
	metaPackageID  = "packageId"
	metaResourceID = "outfitId"
)

// intentFromMetadata builds the purchase a checkout's metadata describes. It
// returns nil when the metadata carries no purchase type. Intents with bad
// amounts or ids are returned as is and rejected later by validation.
func intentFromMetadata(provider domain.Provider, userID, externalID string, md map[string]string) *domain.PurchaseIntent {
	rawType := lookup(md, metaType)
	if rawType == "" {
		return nil
	}
	intent := &domain.PurchaseIntent{
		Type:            domain.ParseIntentType(rawType),
		UserID:          userID,
		ExternalEventID: externalID,
		Provider:        provider,
	}
	switch intent.Type {
	case domain.IntentCredits:
		intent.PackageID = lookup(md, metaPackageID, "package_id")
		if pkg, ok := domain.FindPackage(intent.PackageID); ok {
			intent.Amount = pkg.Credits
		} else {
			intent.Amount, _ = strconv.ParseInt(lookup(md, metaCredits), 10, 64)
		}
	case domain.IntentLinksUnlock:
		intent.ResourceID = lookup(md, metaResourceID, "outfit_id", "resourceId", "resource_id")
	}
	return intent
}

func lookup(md map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(md[k]); v != "" {
			return v
		}
	}
	return ""
}

// checkoutMetadata is what every checkout carries for the webhook and verifier.
func checkoutMetadata(order domain.CheckoutOrder) map[string]string {
	md := map[string]string{
		metaType:   string(order.Type),
		metaUserID: order.UserID,
	}
	switch order.Type {
	case domain.IntentCredits:
		md[metaCredits] = strconv.FormatInt(order.Credits, 10)
		md[metaPackageID] = order.PackageID
	case domain.IntentLinksUnlock:
		md[metaResourceID] = order.ResourceID
	}
	return md
}
