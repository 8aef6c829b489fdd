package domain

import (
	"github.com/shopspring/decimal"
)

// HardwareAccountTypes are the account types backed by a hardware device.
var HardwareAccountTypes = []AccountType{AccountTypeTrezor, AccountTypeLedger}

// State is the normalized account model. It's never mutated in place, every
// transition returns a new State.
type State struct {
	// Accounts keeps insertion order, Address is the primary key.
	Accounts                  []Account                    `json:"accounts"`
	ActiveAccount             string                       `json:"activeAccount"`
	FetchingAccountData       bool                         `json:"fetchingAccountData"`
	HardwareAccountsAvailable map[AccountType]HardwareScan `json:"hardwareAccountsAvailable"`
}

// NewState returns the initial state with an empty scan for every hardware
// account type.
func NewState() State {
	hw := make(map[AccountType]HardwareScan, len(HardwareAccountTypes))
	for _, t := range HardwareAccountTypes {
		hw[t] = newEmptyHardwareScan()
	}
	return State{
		Accounts:                  []Account{},
		HardwareAccountsAvailable: hw,
	}
}

// GetAccount returns the account with the given address, if any.
func (s State) GetAccount(address string) (Account, bool) {
	if i := s.indexOf(address); i >= 0 {
		return s.Accounts[i], true
	}
	return Account{}, false
}

// GetHardwareScan returns the latest scan for the given account type.
func (s State) GetHardwareScan(accountType AccountType) (HardwareScan, bool) {
	scan, ok := s.HardwareAccountsAvailable[accountType]
	return scan, ok
}

// Apply returns the state resulting from applying the event. Events
// referencing unknown accounts or account types leave the state unchanged.
func (s State) Apply(event Event) State {
	next := s.copy()

	switch e := event.(type) {
	case AccountAdded:
		next.addAccount(e.Account)
	case AccountUpdated:
		next.updateAccount(e.Update)
	case MkrLocked:
		if amount, err := decimal.NewFromString(e.Amount); err == nil {
			next.applyMkrDelta(e.Address, amount)
		}
	case MkrWithdrawn:
		if amount, err := decimal.NewFromString(e.Amount); err == nil {
			next.applyMkrDelta(e.Address, amount.Neg())
		}
	case FetchingAccountData:
		next.FetchingAccountData = e.Fetching
	case ActiveAccountSet:
		next.ActiveAccount = NormalizeAddress(e.Address)
	case HardwareAccountsConnecting:
		next.updateHardwareScan(e.AccountType, func(HardwareScan) HardwareScan {
			scan := newEmptyHardwareScan()
			scan.Connecting = true
			return scan
		})
	case HardwareAccountsConnected:
		next.updateHardwareScan(e.AccountType, func(HardwareScan) HardwareScan {
			scan := newEmptyHardwareScan()
			scan.Accounts = append(scan.Accounts, e.Accounts...)
			if e.OnAccountChosen != nil {
				scan.OnChosen = e.OnAccountChosen
			}
			return scan
		})
	case HardwareAccountsError:
		next.updateHardwareScan(e.AccountType, func(scan HardwareScan) HardwareScan {
			scan.Connecting = false
			scan.Error = true
			return scan
		})
	case HardwareAccountConnected:
		next.updateHardwareScan(e.AccountType, func(HardwareScan) HardwareScan {
			return newEmptyHardwareScan()
		})
	case HardwareAccountError:
		next.updateHardwareScan(e.AccountType, func(scan HardwareScan) HardwareScan {
			scan.Error = true
			return scan
		})
	}

	return next
}

func (s *State) addAccount(account Account) {
	account.Address = NormalizeAddress(account.Address)
	if i := s.indexOf(account.Address); i >= 0 {
		s.Accounts[i] = account
		return
	}
	s.Accounts = append(s.Accounts, account)
}

func (s *State) updateAccount(update AccountUpdate) {
	i := s.indexOf(update.Address)
	if i < 0 {
		return
	}
	s.Accounts[i] = s.Accounts[i].Merge(update)
}

// applyMkrDelta moves the MKR balance and the proxy voting power of the
// acting account by delta, then propagates the new values to the accounts
// sharing its proxy. Related accounts are located first and updated after,
// so that a single event is a single pass over the store.
func (s *State) applyMkrDelta(address string, delta decimal.Decimal) {
	if address == "" {
		address = s.ActiveAccount
	}
	i := s.indexOf(address)
	if i < 0 {
		return
	}

	acting := s.Accounts[i]
	acting.MkrBalance = acting.GetMkrBalance().Add(delta).String()
	if !acting.IsLinkedToProxy() {
		s.Accounts[i] = acting
		return
	}
	acting.Proxy.VotingPower = acting.Proxy.GetVotingPower().Add(delta).String()

	sharing := make([]int, 0, 1)
	counterpart := -1
	for j, other := range s.Accounts {
		if j == i || !acting.SharesProxyWith(other) {
			continue
		}
		sharing = append(sharing, j)
		if counterpart < 0 && isCounterpart(acting, other) {
			counterpart = j
		}
	}

	for _, j := range sharing {
		other := s.Accounts[j]
		other.Proxy.VotingPower = acting.Proxy.VotingPower
		if j == counterpart {
			other.Proxy.LinkedAccount.MkrBalance = acting.MkrBalance
		}
		s.Accounts[j] = other
	}
	if counterpart >= 0 {
		acting.Proxy.LinkedAccount.MkrBalance = s.Accounts[counterpart].MkrBalance
	}
	s.Accounts[i] = acting
}

func isCounterpart(acting, other Account) bool {
	if other.IsCounterpartOf(acting) {
		return true
	}
	return acting.ProxyRole != ProxyRoleNone &&
		other.ProxyRole == acting.ProxyRole.Counterpart()
}

func (s *State) updateHardwareScan(
	accountType AccountType, updateFn func(HardwareScan) HardwareScan,
) {
	scan, ok := s.HardwareAccountsAvailable[accountType]
	if !ok {
		return
	}
	s.HardwareAccountsAvailable[accountType] = updateFn(scan)
}

func (s State) indexOf(address string) int {
	address = NormalizeAddress(address)
	if address == "" {
		return -1
	}
	for i, a := range s.Accounts {
		if a.Address == address {
			return i
		}
	}
	return -1
}

func (s State) copy() State {
	accounts := make([]Account, len(s.Accounts))
	copy(accounts, s.Accounts)

	hw := make(map[AccountType]HardwareScan, len(s.HardwareAccountsAvailable))
	for t, scan := range s.HardwareAccountsAvailable {
		hw[t] = scan.copy()
	}

	return State{
		Accounts:                  accounts,
		ActiveAccount:             s.ActiveAccount,
		FetchingAccountData:       s.FetchingAccountData,
		HardwareAccountsAvailable: hw,
	}
}
