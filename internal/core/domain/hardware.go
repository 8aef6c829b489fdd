package domain

// FinalizeFunc completes a hardware scan. It is called with a nil error and
// the chosen address to pin that account, or with a non-nil error to abort
// the pending scan.
type FinalizeFunc func(err error, address string) error

// HardwareAccount is a candidate address discovered during a device scan.
type HardwareAccount struct {
	Address string      `json:"address"`
	Type    AccountType `json:"type"`
}

// HardwareScan is the outcome of the latest device scan for one hardware
// account type.
type HardwareScan struct {
	Accounts []HardwareAccount `json:"accounts"`
	// OnChosen finalizes exactly one of Accounts.
	OnChosen FinalizeFunc `json:"-"`
	// Connecting is true while a scan is in progress.
	Connecting bool `json:"connecting"`
	// Error is true if the last scan or finalization failed.
	Error bool `json:"error"`
}

// HasPendingChoice returns whether the scan still waits for an account to be
// chosen.
func (s HardwareScan) HasPendingChoice() bool {
	return len(s.Accounts) > 0
}

func (s HardwareScan) copy() HardwareScan {
	accounts := make([]HardwareAccount, len(s.Accounts))
	copy(accounts, s.Accounts)
	s.Accounts = accounts
	return s
}

func newEmptyHardwareScan() HardwareScan {
	return HardwareScan{
		Accounts: []HardwareAccount{},
		OnChosen: func(error, string) error { return nil },
	}
}

// NewHardwareAccounts wraps the given addresses as candidates of the given
// account type, keeping their order.
func NewHardwareAccounts(
	accountType AccountType, addresses []string,
) []HardwareAccount {
	accounts := make([]HardwareAccount, 0, len(addresses))
	for _, addr := range addresses {
		accounts = append(accounts, HardwareAccount{
			Address: addr,
			Type:    accountType,
		})
	}
	return accounts
}
