package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AccountTypePlain  AccountType = "plain"
	AccountTypeTrezor AccountType = "trezor"
	AccountTypeLedger AccountType = "ledger"

	ProxyRoleNone ProxyRole = ""
	ProxyRoleHot  ProxyRole = "hot"
	ProxyRoleCold ProxyRole = "cold"
)

// AccountType tells how an account is controlled.
type AccountType string

func (t AccountType) IsHardware() bool {
	return t == AccountTypeTrezor || t == AccountTypeLedger
}

func (t AccountType) IsValid() bool {
	return t == AccountTypePlain || t.IsHardware()
}

// ProxyRole is the role an account holds within its vote proxy.
type ProxyRole string

// Counterpart returns the role of the other side of the proxy.
func (r ProxyRole) Counterpart() ProxyRole {
	switch r {
	case ProxyRoleHot:
		return ProxyRoleCold
	case ProxyRoleCold:
		return ProxyRoleHot
	default:
		return ProxyRoleNone
	}
}

// LinkedAccount is a snapshot of the counterpart of an account within a vote
// proxy. The zero value means no counterpart is known.
type LinkedAccount struct {
	Address    string    `json:"address,omitempty"`
	MkrBalance string    `json:"mkrBalance,omitempty"`
	ProxyRole  ProxyRole `json:"proxyRole,omitempty"`
}

func (l LinkedAccount) IsZero() bool {
	return l == LinkedAccount{}
}

// Proxy holds the vote proxy state as seen from one of its accounts.
type Proxy struct {
	Address           string        `json:"address"`
	HasInfMkrApproval bool          `json:"hasInfMkrApproval"`
	VotingPower       string        `json:"votingPower"`
	LinkedAccount     LinkedAccount `json:"linkedAccount"`
}

func (p Proxy) GetVotingPower() decimal.Decimal {
	vp, _ := decimal.NewFromString(p.VotingPower)
	return vp
}

// Account defines a wallet controlled identity enriched with on-chain state.
type Account struct {
	// Address is the lowercase hex address, unique within the store.
	Address           string      `json:"address"`
	Type              AccountType `json:"type"`
	MkrBalance        string      `json:"mkrBalance"`
	HasInfMkrApproval bool        `json:"hasInfMkrApproval"`
	HasProxy          bool        `json:"hasProxy"`
	ProxyRole         ProxyRole   `json:"proxyRole"`
	// VotingFor is the first proposal the proxy voted for, if any.
	VotingFor string `json:"votingFor"`
	Proxy     Proxy  `json:"proxy"`
}

// NewAccountWithoutProxy returns an account not linked to any vote proxy.
func NewAccountWithoutProxy(
	address string, accountType AccountType,
	mkrBalance decimal.Decimal, hasInfMkrApproval bool,
) *Account {
	return &Account{
		Address:           NormalizeAddress(address),
		Type:              accountType,
		MkrBalance:        mkrBalance.String(),
		HasInfMkrApproval: hasInfMkrApproval,
		Proxy: Proxy{
			VotingPower: decimal.Zero.String(),
		},
	}
}

func (a Account) GetMkrBalance() decimal.Decimal {
	b, _ := decimal.NewFromString(a.MkrBalance)
	return b
}

// IsLinkedToProxy returns whether the account takes part in a vote proxy,
// either by flag or because the proxy record carries linkage info.
func (a Account) IsLinkedToProxy() bool {
	return a.HasProxy ||
		a.Proxy.Address != "" ||
		a.Proxy.LinkedAccount.Address != ""
}

// SharesProxyWith returns whether both accounts belong to the same vote
// proxy, either by proxy address or by hot/cold back-reference.
func (a Account) SharesProxyWith(other Account) bool {
	if a.Address == other.Address {
		return false
	}
	if a.Proxy.Address != "" &&
		strings.EqualFold(a.Proxy.Address, other.Proxy.Address) {
		return true
	}
	return a.IsCounterpartOf(other)
}

// IsCounterpartOf returns whether the account is the other side of the given
// account's proxy.
func (a Account) IsCounterpartOf(other Account) bool {
	if a.Address == other.Address {
		return false
	}
	return strings.EqualFold(other.Proxy.LinkedAccount.Address, a.Address) ||
		strings.EqualFold(a.Proxy.LinkedAccount.Address, other.Address)
}

// NormalizeAddress returns the canonical lowercase form of an address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
