package ports

import (
	"context"
	"math/big"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ChooseFunc is invoked by the provider exactly once, when the device scan
// completes, with the candidate addresses and the callback that pins one of
// them.
type ChooseFunc func(addresses []string, finalize domain.FinalizeFunc)

type AddAccountOpts struct {
	Type domain.AccountType
	// Path is the base derivation path, empty for devices with a fixed one.
	Path           string
	AccountsLength int
	Choose         ChooseFunc
}

// WalletProvider is the capability surface of the chain and wallet SDK the
// core depends on.
type WalletProvider interface {
	Token(symbol string) Token
	ProxyRegistry() ProxyRegistry
	// AddAccount connects to a hardware device and scans its accounts. It
	// returns once the chosen account has been finalized, or with an error
	// if the device could not be reached.
	AddAccount(ctx context.Context, opts AddAccountOpts) error
	Close()
}

type Token interface {
	BalanceOf(ctx context.Context, address string) (decimal.Decimal, error)
	// Allowance returns the raw amount the owner approved the governance
	// contract to spend.
	Allowance(ctx context.Context, owner string) (*big.Int, error)
}

type ProxyRegistry interface {
	GetVoteProxy(ctx context.Context, address string) (*VoteProxyInfo, error)
}

type VoteProxyInfo struct {
	HasProxy  bool
	VoteProxy VoteProxy
}

// VoteProxy is a deployed proxy contract linking a cold and a hot address.
type VoteProxy interface {
	VotedProposalAddresses(ctx context.Context) ([]string, error)
	NumDeposits(ctx context.Context) (decimal.Decimal, error)
	ColdAddress() string
	HotAddress() string
	ProxyAddress() string
}
