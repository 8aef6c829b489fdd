package application_test

import (
	"context"
	"math/big"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// **** Wallet provider ****

type mockWalletProvider struct {
	mock.Mock
	token    *mockToken
	registry *mockProxyRegistry
}

func newMockWalletProvider() *mockWalletProvider {
	return &mockWalletProvider{
		token:    &mockToken{},
		registry: &mockProxyRegistry{},
	}
}

func (m *mockWalletProvider) Token(symbol string) ports.Token {
	return m.token
}

func (m *mockWalletProvider) ProxyRegistry() ports.ProxyRegistry {
	return m.registry
}

func (m *mockWalletProvider) AddAccount(
	ctx context.Context, opts ports.AddAccountOpts,
) error {
	args := m.Called(ctx, opts)
	return args.Error(0)
}

func (m *mockWalletProvider) Close() {}

// **** Token ****

type mockToken struct {
	mock.Mock
}

func (m *mockToken) BalanceOf(
	ctx context.Context, address string,
) (decimal.Decimal, error) {
	args := m.Called(ctx, address)

	var res decimal.Decimal
	if a := args.Get(0); a != nil {
		res = a.(decimal.Decimal)
	}
	return res, args.Error(1)
}

func (m *mockToken) Allowance(
	ctx context.Context, owner string,
) (*big.Int, error) {
	args := m.Called(ctx, owner)

	var res *big.Int
	if a := args.Get(0); a != nil {
		res = a.(*big.Int)
	}
	return res, args.Error(1)
}

// **** Proxy registry ****

type mockProxyRegistry struct {
	mock.Mock
}

func (m *mockProxyRegistry) GetVoteProxy(
	ctx context.Context, address string,
) (*ports.VoteProxyInfo, error) {
	args := m.Called(ctx, address)

	var res *ports.VoteProxyInfo
	if a := args.Get(0); a != nil {
		res = a.(*ports.VoteProxyInfo)
	}
	return res, args.Error(1)
}

// **** Vote proxy ****

type mockVoteProxy struct {
	mock.Mock
	cold, hot, proxy string
}

func (m *mockVoteProxy) VotedProposalAddresses(
	ctx context.Context,
) ([]string, error) {
	args := m.Called(ctx)

	var res []string
	if a := args.Get(0); a != nil {
		res = a.([]string)
	}
	return res, args.Error(1)
}

func (m *mockVoteProxy) NumDeposits(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)

	var res decimal.Decimal
	if a := args.Get(0); a != nil {
		res = a.(decimal.Decimal)
	}
	return res, args.Error(1)
}

func (m *mockVoteProxy) ColdAddress() string  { return m.cold }
func (m *mockVoteProxy) HotAddress() string   { return m.hot }
func (m *mockVoteProxy) ProxyAddress() string { return m.proxy }

// **** Enrichment ****

type mockEnrichmentService struct {
	mock.Mock
}

func (m *mockEnrichmentService) Enrich(
	ctx context.Context, address string, accountType domain.AccountType,
) (*domain.Account, error) {
	args := m.Called(ctx, address, accountType)

	var res *domain.Account
	if a := args.Get(0); a != nil {
		res = a.(*domain.Account)
	}
	return res, args.Error(1)
}

// **** PubSub ****

type mockPubSub struct {
	mock.Mock
}

func (m *mockPubSub) Subscribe(topic, endpoint, secret string) (string, error) {
	args := m.Called(topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockPubSub) Unsubscribe(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *mockPubSub) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	args := m.Called(topic)

	var res []ports.Subscription
	if a := args.Get(0); a != nil {
		res = a.([]ports.Subscription)
	}
	return res
}

func (m *mockPubSub) Publish(topic string, message string) error {
	args := m.Called(topic, message)
	return args.Error(0)
}

func (m *mockPubSub) Close() error {
	args := m.Called()
	return args.Error(0)
}

type testSubscription struct {
	id, topic, endpoint string
	secured             bool
}

func (s testSubscription) Topic() string    { return s.topic }
func (s testSubscription) Id() string       { return s.id }
func (s testSubscription) IsSecured() bool  { return s.secured }
func (s testSubscription) NotifyAt() string { return s.endpoint }
