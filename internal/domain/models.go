package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type Provider string

const (
	ProviderCardCheckout        Provider = "card-checkout"
	ProviderAlternativeCheckout Provider = "alternative-checkout"
	ProviderInternalCreditSpend Provider = "internal-credit-spend"
)

type EntryKind string

const (
	KindCreditsTopup EntryKind = "credits-topup"
	KindLinksUnlock  EntryKind = "links-unlock"
	KindCreditRefund EntryKind = "credit-refund"
)

type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusCompleted EntryStatus = "completed"
	StatusFailed    EntryStatus = "failed"
)

type IntentType string

const (
	IntentCredits     IntentType = "credits"
	IntentLinksUnlock IntentType = "links-unlock"
)

// ParseIntentType accepts the spellings providers and clients send, such as
// "credits_purchase" or "LINKS_UNLOCK". Unknown values are returned as is.
func ParseIntentType(raw string) IntentType {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-") {
	case "credits", "credits-purchase":
		return IntentCredits
	case "links-unlock":
		return IntentLinksUnlock
	}
	return IntentType(raw)
}

// Kind is the ledger entry kind a settled intent of this type produces.
func (t IntentType) Kind() EntryKind {
	if t == IntentLinksUnlock {
		return KindLinksUnlock
	}
	return KindCreditsTopup
}

type EventStatus string

const (
	EventReceived  EventStatus = "received"
	EventProcessed EventStatus = "processed"
	EventIgnored   EventStatus = "ignored"
)

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxDelivered OutboxStatus = "delivered"
	OutboxDead      OutboxStatus = "dead"
)

type CreditAccount struct {
	UserID    string    `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type EntryMetadata struct {
	PackageID       string `json:"package_id,omitempty"`
	ResourceID      string `json:"resource_id,omitempty"`
	PreviousBalance *int64 `json:"previous_balance,omitempty"`
	NewBalance      *int64 `json:"new_balance,omitempty"`
	ProviderRef     string `json:"provider_ref,omitempty"`
	AmountCents     int64  `json:"amount_cents,omitempty"`
	Reason          string `json:"reason,omitempty"`
	RefundOf        string `json:"refund_of,omitempty"`
}

// LedgerEntry is one append-only row of the credit ledger. Amount is the
// signed balance delta: deposits are positive, withdrawals negative.
type LedgerEntry struct {
	ID              string        `db:"id"`
	UserID          string        `db:"user_id"`
	ExternalEventID *string       `db:"external_event_id"`
	Provider        Provider      `db:"provider"`
	Kind            EntryKind     `db:"kind"`
	Amount          int64         `db:"amount"`
	Status          EntryStatus   `db:"status"`
	Metadata        EntryMetadata `db:"metadata"`
	CreatedAt       time.Time     `db:"created_at"`
}

// EntryContext describes the ledger entry written alongside a balance change.
type EntryContext struct {
	ExternalEventID string
	Provider        Provider
	Kind            EntryKind
	Status          EntryStatus
	Metadata        EntryMetadata
}

type WithdrawResult struct {
	OK         bool
	NewBalance int64
	EntryID    string
}

type WebhookEvent struct {
	EventID          string      `db:"event_id"`
	EventType        string      `db:"event_type"`
	ProcessingStatus EventStatus `db:"processing_status"`
	ReceivedAt       time.Time   `db:"received_at"`
}

type Entitlement struct {
	ResourceID string     `db:"resource_id"`
	OwnerID    string     `db:"owner_id"`
	Unlocked   bool       `db:"unlocked"`
	CreatedAt  time.Time  `db:"created_at"`
	UnlockedAt *time.Time `db:"unlocked_at"`
}

type UnlockResult struct {
	Changed bool
}

type OutboxMessage struct {
	ID            string          `db:"id"`
	Topic         string          `db:"topic"`
	Key           string          `db:"key"`
	Payload       json.RawMessage `db:"payload"`
	Status        OutboxStatus    `db:"status"`
	Attempts      int             `db:"attempts"`
	LastError     string          `db:"last_error"`
	NextAttemptAt time.Time       `db:"next_attempt_at"`
	CreatedAt     time.Time       `db:"created_at"`
	DeliveredAt   *time.Time      `db:"delivered_at"`
}

// AuditRecord is the payload of every audit outbox message.
type AuditRecord struct {
	Action          string    `json:"action"`
	Outcome         string    `json:"outcome"`
	UserID          string    `json:"user_id,omitempty"`
	Provider        Provider  `json:"provider,omitempty"`
	Kind            EntryKind `json:"kind,omitempty"`
	ExternalEventID string    `json:"external_event_id,omitempty"`
	ResourceID      string    `json:"resource_id,omitempty"`
	Amount          int64     `json:"amount,omitempty"`
	NewBalance      *int64    `json:"new_balance,omitempty"`
	EntryID         string    `json:"entry_id,omitempty"`
	Error           string    `json:"error,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// PurchaseIntent is the provider-independent description of what a payment bought.
type PurchaseIntent struct {
	Type            IntentType
	UserID          string
	ExternalEventID string
	Provider        Provider
	Amount          int64
	ResourceID      string
	PackageID       string
	AmountCents     int64
	ProviderRef     string
}

// ProviderEvent is a verified webhook delivery. Intent is set for purchase
// events, FailedRef for payment failures; neither is set for other types.
type ProviderEvent struct {
	Provider  Provider
	EventID   string
	EventType string
	Intent    *PurchaseIntent
	FailedRef string
}

type SettlementResult struct {
	Duplicate  bool
	Ignored    bool
	NewBalance *int64
	EntryID    string
}

type SpendResult struct {
	NewBalance int64
	EntryID    string
}

type VerifyRequest struct {
	Provider          Provider
	SessionOrToken    string
	UserID            string
	ClaimedType       string
	ClaimedAmount     int64
	ClaimedResourceID string
}

// PaymentSession is the authoritative state of a checkout as reported by its provider.
type PaymentSession struct {
	ID     string
	Paid   bool
	Status string
	Intent *PurchaseIntent
}

type CheckoutRequest struct {
	Provider   Provider
	UserID     string
	Type       IntentType
	PackageID  string
	ResourceID string
}

// CheckoutOrder is a priced checkout request handed to a provider.
type CheckoutOrder struct {
	UserID      string
	Type        IntentType
	Name        string
	Credits     int64
	PackageID   string
	ResourceID  string
	AmountCents int64
}

type CheckoutSession struct {
	ID       string
	URL      string
	Provider Provider
}
