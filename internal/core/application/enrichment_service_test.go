package application_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/polling-network/polling-daemon/internal/core/application"
	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	hotAddress      = "0xh07"
	coldAddress     = "0xc01d"
	proxyAddress    = "0x9r0xy"
	proposalAddress = "0xPROPOSAL"
)

func newProxiedProvider(proposals []string) *mockWalletProvider {
	provider := newMockWalletProvider()
	voteProxy := &mockVoteProxy{cold: coldAddress, hot: "0xH07", proxy: proxyAddress}
	voteProxy.On("VotedProposalAddresses", mock.Anything).Return(proposals, nil)
	voteProxy.On("NumDeposits", mock.Anything).
		Return(decimal.RequireFromString("3"), nil)

	provider.token.On("BalanceOf", mock.Anything, hotAddress).
		Return(decimal.RequireFromString("200.2"), nil)
	provider.token.On("BalanceOf", mock.Anything, coldAddress).
		Return(decimal.RequireFromString("150"), nil)
	provider.token.On("Allowance", mock.Anything, mock.Anything).
		Return(new(big.Int).Set(math.MaxBig256), nil)
	provider.registry.On("GetVoteProxy", mock.Anything, mock.Anything).
		Return(&ports.VoteProxyInfo{HasProxy: true, VoteProxy: voteProxy}, nil)
	return provider
}

func TestEnrichHotAccount(t *testing.T) {
	provider := newProxiedProvider([]string{proposalAddress, "0xother"})
	svc := application.NewEnrichmentService(provider, nil)

	account, err := svc.Enrich(ctx, "0xH07", domain.AccountTypePlain)
	require.NoError(t, err)
	require.Equal(t, domain.Account{
		Address:           hotAddress,
		Type:              domain.AccountTypePlain,
		MkrBalance:        "200.2",
		HasInfMkrApproval: true,
		HasProxy:          true,
		ProxyRole:         domain.ProxyRoleHot,
		VotingFor:         "0xproposal",
		Proxy: domain.Proxy{
			Address:           proxyAddress,
			HasInfMkrApproval: true,
			VotingPower:       "3",
			LinkedAccount: domain.LinkedAccount{
				Address:    coldAddress,
				MkrBalance: "150",
				ProxyRole:  domain.ProxyRoleCold,
			},
		},
	}, *account)
}

func TestEnrichColdAccountNotVoting(t *testing.T) {
	provider := newProxiedProvider([]string{})
	svc := application.NewEnrichmentService(provider, nil)

	account, err := svc.Enrich(ctx, coldAddress, domain.AccountTypeLedger)
	require.NoError(t, err)
	require.Equal(t, domain.ProxyRoleCold, account.ProxyRole)
	require.Empty(t, account.VotingFor)
	require.Equal(t, "0xh07", account.Proxy.LinkedAccount.Address)
	require.Equal(t, "200.2", account.Proxy.LinkedAccount.MkrBalance)
	require.Equal(t, domain.ProxyRoleHot, account.Proxy.LinkedAccount.ProxyRole)
}

func TestEnrichAccountWithoutProxy(t *testing.T) {
	provider := newMockWalletProvider()
	provider.token.On("BalanceOf", mock.Anything, "0xdead").
		Return(decimal.RequireFromString("1.5"), nil)
	provider.token.On("Allowance", mock.Anything, "0xdead").
		Return(big.NewInt(100), nil)
	provider.registry.On("GetVoteProxy", mock.Anything, "0xdead").
		Return(&ports.VoteProxyInfo{HasProxy: false}, nil)

	svc := application.NewEnrichmentService(provider, nil)

	account, err := svc.Enrich(ctx, "0xdead", domain.AccountTypePlain)
	require.NoError(t, err)
	require.Equal(t, domain.Account{
		Address:    "0xdead",
		Type:       domain.AccountTypePlain,
		MkrBalance: "1.5",
		Proxy:      domain.Proxy{VotingPower: "0"},
	}, *account)
	require.True(t, account.Proxy.LinkedAccount.IsZero())
}

func TestEnrichFailure(t *testing.T) {
	rpcErr := errors.New("connection refused")

	t.Run("balance", func(t *testing.T) {
		provider := newMockWalletProvider()
		provider.token.On("BalanceOf", mock.Anything, mock.Anything).
			Return(nil, rpcErr)
		provider.token.On("Allowance", mock.Anything, mock.Anything).
			Return(big.NewInt(0), nil)
		provider.registry.On("GetVoteProxy", mock.Anything, mock.Anything).
			Return(&ports.VoteProxyInfo{}, nil)

		svc := application.NewEnrichmentService(provider, nil)
		account, err := svc.Enrich(ctx, "0xdead", domain.AccountTypePlain)
		require.ErrorIs(t, err, rpcErr)
		require.Nil(t, account)
	})

	t.Run("proxy_deposits", func(t *testing.T) {
		provider := newMockWalletProvider()
		voteProxy := &mockVoteProxy{cold: coldAddress, hot: hotAddress, proxy: proxyAddress}
		voteProxy.On("VotedProposalAddresses", mock.Anything).Return([]string{}, nil)
		voteProxy.On("NumDeposits", mock.Anything).Return(nil, rpcErr)
		provider.token.On("BalanceOf", mock.Anything, mock.Anything).
			Return(decimal.Zero, nil)
		provider.token.On("Allowance", mock.Anything, mock.Anything).
			Return(big.NewInt(0), nil)
		provider.registry.On("GetVoteProxy", mock.Anything, mock.Anything).
			Return(&ports.VoteProxyInfo{HasProxy: true, VoteProxy: voteProxy}, nil)

		svc := application.NewEnrichmentService(provider, nil)
		_, err := svc.Enrich(ctx, hotAddress, domain.AccountTypePlain)
		require.ErrorIs(t, err, rpcErr)
	})

	t.Run("invalid_input", func(t *testing.T) {
		svc := application.NewEnrichmentService(newMockWalletProvider(), nil)

		_, err := svc.Enrich(ctx, "", domain.AccountTypePlain)
		require.ErrorIs(t, err, application.ErrInvalidAddress)

		_, err = svc.Enrich(ctx, "0xdead", "metamask")
		require.ErrorIs(t, err, application.ErrUnknownAccountType)
	})
}
