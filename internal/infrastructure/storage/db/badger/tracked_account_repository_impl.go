package dbbadger

import (
	"context"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type trackedAccountRepositoryImpl struct {
	store *badgerhold.Store
}

func NewTrackedAccountRepositoryImpl(
	store *badgerhold.Store,
) domain.TrackedAccountRepository {
	return trackedAccountRepositoryImpl{store}
}

// AddTrackedAccount inserts the account or updates the type of the existing
// one, keeping its original AddedAt.
func (r trackedAccountRepositoryImpl) AddTrackedAccount(
	ctx context.Context, account domain.TrackedAccount,
) error {
	account.Address = domain.NormalizeAddress(account.Address)
	if account.Address == "" {
		return domain.ErrTrackedAccountInvalidAddress
	}

	prev, err := r.GetTrackedAccount(ctx, account.Address)
	if err != nil {
		return err
	}
	if prev != nil {
		account.AddedAt = prev.AddedAt
	}

	return r.store.Upsert(account.Address, &account)
}

func (r trackedAccountRepositoryImpl) GetTrackedAccount(
	_ context.Context, address string,
) (*domain.TrackedAccount, error) {
	var account domain.TrackedAccount
	if err := r.store.Get(domain.NormalizeAddress(address), &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r trackedAccountRepositoryImpl) GetAllTrackedAccounts(
	_ context.Context,
) ([]domain.TrackedAccount, error) {
	var accounts []domain.TrackedAccount
	query := (&badgerhold.Query{}).SortBy("AddedAt", "Address")
	if err := r.store.Find(&accounts, query); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.TrackedAccount{}
	}
	return accounts, nil
}
