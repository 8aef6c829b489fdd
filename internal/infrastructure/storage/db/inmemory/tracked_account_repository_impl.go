package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/polling-network/polling-daemon/internal/core/domain"
)

// TrackedAccountRepositoryImpl represents an in memory storage
type TrackedAccountRepositoryImpl struct {
	accounts map[string]domain.TrackedAccount

	lock *sync.RWMutex
}

func NewTrackedAccountRepositoryImpl() *TrackedAccountRepositoryImpl {
	return &TrackedAccountRepositoryImpl{
		accounts: map[string]domain.TrackedAccount{},
		lock:     &sync.RWMutex{},
	}
}

// AddTrackedAccount inserts the account or updates the type of the existing
// one, keeping its original AddedAt.
func (r TrackedAccountRepositoryImpl) AddTrackedAccount(
	_ context.Context, account domain.TrackedAccount,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	account.Address = domain.NormalizeAddress(account.Address)
	if prev, ok := r.accounts[account.Address]; ok {
		account.AddedAt = prev.AddedAt
	}
	r.accounts[account.Address] = account
	return nil
}

func (r TrackedAccountRepositoryImpl) GetTrackedAccount(
	_ context.Context, address string,
) (*domain.TrackedAccount, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	account, ok := r.accounts[domain.NormalizeAddress(address)]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (r TrackedAccountRepositoryImpl) GetAllTrackedAccounts(
	_ context.Context,
) ([]domain.TrackedAccount, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	accounts := make([]domain.TrackedAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, a)
	}
	sortTrackedAccounts(accounts)
	return accounts, nil
}

func sortTrackedAccounts(accounts []domain.TrackedAccount) {
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].AddedAt == accounts[j].AddedAt {
			return accounts[i].Address < accounts[j].Address
		}
		return accounts[i].AddedAt < accounts[j].AddedAt
	})
}
