package application

import "errors"

var (
	// ErrUnknownAccountType is returned for account types the operation
	// does not support.
	ErrUnknownAccountType = errors.New("unknown account type")
	// ErrNoPendingScan is returned when choosing a hardware account without a
	// completed device scan for that type.
	ErrNoPendingScan = errors.New("no pending hardware scan for account type")
	// ErrUnknownCandidate is returned when the chosen address is not among the
	// candidates of the pending scan.
	ErrUnknownCandidate = errors.New("address is not a candidate of the pending scan")
	ErrInvalidAddress   = errors.New("invalid account address")
	ErrInvalidAmount    = errors.New("amount must be a positive decimal number")
	ErrAccountNotFound  = errors.New("account not found")
	// ErrInvalidWebhookEvent ...
	ErrInvalidWebhookEvent = errors.New("invalid webhook event type")
)
