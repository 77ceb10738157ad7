package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuthentication       = errors.New("webhook authentication failed")
	ErrInsufficientBalance  = errors.New("insufficient credits")
	ErrOwnershipMismatch    = errors.New("resource is not owned by user")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyUnlocked      = errors.New("links already unlocked")
	ErrPaymentNotCompleted  = errors.New("payment not completed")
	ErrInvalidIntent        = errors.New("invalid purchase intent")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidInput         = errors.New("invalid input")
	ErrEntryNotPending      = errors.New("ledger entry is not pending")
	ErrSettlementInProgress = errors.New("settlement in progress")
	ErrUnsupportedProvider  = errors.New("unsupported payment provider")
	ErrUnknownPackage       = errors.New("unknown credit package")
)

// CompensationError is returned when a spend step failed and the refund that
// should have undone the withdrawal failed too. The account needs manual repair.
type CompensationError struct {
	EntryID      string
	UserID       string
	Cause        error
	Compensation error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation failed for entry %s (user %s): %v; refund: %v",
		e.EntryID, e.UserID, e.Cause, e.Compensation)
}

func (e *CompensationError) Unwrap() []error {
	return []error{e.Cause, e.Compensation}
}

// EventKey namespaces a raw provider delivery for the idempotency guard.
func EventKey(provider Provider, eventID string) string {
	return "event:" + string(provider) + ":" + eventID
}

// PurchaseKey namespaces a settlement so webhook and verifier converge on one key.
func PurchaseKey(provider Provider, externalID string) string {
	return "purchase:" + string(provider) + ":" + externalID
}
