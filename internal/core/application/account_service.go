package application

import (
	"context"
	"fmt"
	"time"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// AccountService defines the methods of the application layer to manage the
// accounts held by the store.
type AccountService interface {
	// AddAccount enriches the address and adds the resulting account to the
	// store, replacing any with the same address.
	AddAccount(
		ctx context.Context, address string, accountType domain.AccountType,
	) (*domain.Account, error)
	UpdateAccount(
		ctx context.Context, update domain.AccountUpdate,
	) (*domain.Account, error)
	SetActiveAccount(ctx context.Context, address string) error
	// ConfirmLock records a completed lock of amount MKR by the account. An
	// empty address refers to the active account.
	ConfirmLock(
		ctx context.Context, address, amount string,
	) (*domain.Account, error)
	ConfirmWithdraw(
		ctx context.Context, address, amount string,
	) (*domain.Account, error)
	GetAccount(ctx context.Context, address string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetState(ctx context.Context) domain.State
	// RestoreTrackedAccounts re-enriches every persisted account so that the
	// store is rebuilt after a restart.
	RestoreTrackedAccounts(ctx context.Context) error
}

type accountService struct {
	store      *Store
	enrichment EnrichmentService
	repository domain.TrackedAccountRepository
}

func NewAccountService(
	store *Store,
	enrichment EnrichmentService,
	repository domain.TrackedAccountRepository,
) AccountService {
	svc := &accountService{store, enrichment, repository}
	if repository != nil {
		store.Subscribe(svc.trackAddedAccount)
	}
	return svc
}

func (s *accountService) AddAccount(
	ctx context.Context, address string, accountType domain.AccountType,
) (*domain.Account, error) {
	s.store.Dispatch(domain.FetchingAccountData{Fetching: true})
	defer s.store.Dispatch(domain.FetchingAccountData{Fetching: false})

	account, err := s.enrichment.Enrich(ctx, address, accountType)
	if err != nil {
		return nil, err
	}

	s.store.Dispatch(domain.AccountAdded{Account: *account})
	return account, nil
}

func (s *accountService) UpdateAccount(
	_ context.Context, update domain.AccountUpdate,
) (*domain.Account, error) {
	update.Address = domain.NormalizeAddress(update.Address)
	if update.Address == "" {
		return nil, ErrInvalidAddress
	}
	if update.Type != nil && !update.Type.IsValid() {
		return nil, ErrUnknownAccountType
	}
	if _, ok := s.store.State().GetAccount(update.Address); !ok {
		return nil, ErrAccountNotFound
	}

	state := s.store.Dispatch(domain.AccountUpdated{Update: update})
	account, _ := state.GetAccount(update.Address)
	return &account, nil
}

func (s *accountService) SetActiveAccount(
	_ context.Context, address string,
) error {
	if _, ok := s.store.State().GetAccount(address); !ok {
		return ErrAccountNotFound
	}
	s.store.Dispatch(domain.ActiveAccountSet{Address: address})
	return nil
}

func (s *accountService) ConfirmLock(
	_ context.Context, address, amount string,
) (*domain.Account, error) {
	address, amount, err := s.validateMkrMovement(address, amount)
	if err != nil {
		return nil, err
	}

	state := s.store.Dispatch(domain.MkrLocked{Address: address, Amount: amount})
	account, _ := state.GetAccount(address)
	return &account, nil
}

func (s *accountService) ConfirmWithdraw(
	_ context.Context, address, amount string,
) (*domain.Account, error) {
	address, amount, err := s.validateMkrMovement(address, amount)
	if err != nil {
		return nil, err
	}

	state := s.store.Dispatch(domain.MkrWithdrawn{Address: address, Amount: amount})
	account, _ := state.GetAccount(address)
	return &account, nil
}

func (s *accountService) GetAccount(
	_ context.Context, address string,
) (*domain.Account, error) {
	account, ok := s.store.State().GetAccount(address)
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (s *accountService) ListAccounts(
	_ context.Context,
) ([]domain.Account, error) {
	accounts := s.store.State().Accounts
	return append([]domain.Account{}, accounts...), nil
}

func (s *accountService) GetState(_ context.Context) domain.State {
	return s.store.State()
}

func (s *accountService) RestoreTrackedAccounts(ctx context.Context) error {
	if s.repository == nil {
		return nil
	}

	accounts, err := s.repository.GetAllTrackedAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch tracked accounts: %w", err)
	}

	for _, a := range accounts {
		if _, err := s.AddAccount(ctx, a.Address, a.Type); err != nil {
			log.WithError(err).Warnf("failed to restore account %s", a.Address)
			continue
		}
		log.Debugf("restored %s account %s", a.Type, a.Address)
	}
	return nil
}

// validateMkrMovement resolves the acting address and makes sure the amount
// is a positive decimal.
func (s *accountService) validateMkrMovement(
	address, amount string,
) (string, string, error) {
	state := s.store.State()
	if address == "" {
		address = state.ActiveAccount
	}
	address = domain.NormalizeAddress(address)
	if address == "" {
		return "", "", ErrInvalidAddress
	}
	if _, ok := state.GetAccount(address); !ok {
		return "", "", ErrAccountNotFound
	}

	value, err := decimal.NewFromString(amount)
	if err != nil || !value.IsPositive() {
		return "", "", ErrInvalidAmount
	}
	return address, value.String(), nil
}

// trackAddedAccount persists every account added to the store, whatever the
// flow that added it.
func (s *accountService) trackAddedAccount(
	event domain.Event, _ domain.State,
) {
	added, ok := event.(domain.AccountAdded)
	if !ok {
		return
	}

	tracked, err := domain.NewTrackedAccount(
		added.Account.Address, added.Account.Type, time.Now().Unix(),
	)
	if err != nil {
		log.WithError(err).Warn("skipped tracking of invalid account")
		return
	}
	if err := s.repository.AddTrackedAccount(
		context.Background(), *tracked,
	); err != nil {
		log.WithError(err).Warnf("failed to track account %s", tracked.Address)
	}
}
