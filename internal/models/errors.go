package models

import "errors"

// Business errors surfaced to callers. None of these leave partial state
// behind: the operation that returns them performed no mutation.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrUserNotFound      = errors.New("user not found")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfTransfer      = errors.New("cannot send to yourself")
	ErrAlreadySettled    = errors.New("transaction already settled")
	ErrNotOnboarded      = errors.New("onboarding not completed")
	ErrUnknownEvent      = errors.New("unknown webhook event")
)

// IsBusinessError reports whether err is a user-facing outcome that must not
// be retried by the queue.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrInsufficientFunds,
		ErrInvalidAmount,
		ErrUserNotFound,
		ErrWalletNotFound,
		ErrRecipientNotFound,
		ErrSelfTransfer,
		ErrAlreadySettled,
		ErrNotOnboarded,
		ErrUnknownEvent,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
