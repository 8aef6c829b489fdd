package domain

import "context"

// TrackedAccount is the durable record of an account added during a session,
// used to rebuild the account model when the daemon restarts.
type TrackedAccount struct {
	Address string
	Type    AccountType
	// AddedAt is the Unix timestamp of the first time the account was added.
	AddedAt int64
}

// TrackedAccountRepository is the abstraction for any kind of database
// intended to persist TrackedAccounts.
type TrackedAccountRepository interface {
	// AddTrackedAccount stores the account if not already tracked. Adding an
	// already tracked account only updates its type.
	AddTrackedAccount(ctx context.Context, account TrackedAccount) error
	// GetTrackedAccount returns the account with the given address, nil if
	// not found.
	GetTrackedAccount(ctx context.Context, address string) (*TrackedAccount, error)
	// GetAllTrackedAccounts returns all tracked accounts sorted by AddedAt.
	GetAllTrackedAccounts(ctx context.Context) ([]TrackedAccount, error)
}

// NewTrackedAccount returns a tracked account with normalized address.
func NewTrackedAccount(
	address string, accountType AccountType, addedAt int64,
) (*TrackedAccount, error) {
	address = NormalizeAddress(address)
	if address == "" {
		return nil, ErrTrackedAccountInvalidAddress
	}
	if !accountType.IsValid() {
		return nil, ErrTrackedAccountInvalidType
	}
	return &TrackedAccount{address, accountType, addedAt}, nil
}
