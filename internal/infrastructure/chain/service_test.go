package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	mkrAddress     = "0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2"
	chiefAddress   = "0x0a3f6849f78076aefaDf113F5BED87720274dDC0"
	factoryAddress = "0x6FCD258af181B3221073A96dD90D1f7AE7eEc408"

	coldAddress  = common.HexToAddress("0x00000000000000000000000000000000000c01d0")
	hotAddress   = common.HexToAddress("0x0000000000000000000000000000000000000407")
	proxyAddress = common.HexToAddress("0x00000000000000000000000000000000000f0a01")
	proposalA    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	proposalB    = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func TestTokenBalanceAndAllowance(t *testing.T) {
	chain := newFakeChain(t)
	chain.handle(mkrAddress, erc20ABI, "balanceOf", func(args []interface{}) ([]interface{}, error) {
		require.Equal(t, coldAddress, args[0])
		balance, _ := new(big.Int).SetString("1500000000000000000", 10)
		return []interface{}{balance}, nil
	})
	chain.handle(mkrAddress, erc20ABI, "allowance", func(args []interface{}) ([]interface{}, error) {
		require.Equal(t, coldAddress, args[0])
		require.Equal(t, common.HexToAddress(chiefAddress), args[1])
		return []interface{}{math.MaxBig256}, nil
	})

	svc := newTestService(t, chain)

	balance, err := svc.Token("mkr").BalanceOf(ctx, coldAddress.Hex())
	require.NoError(t, err)
	require.Equal(t, "1.5", balance.String())

	allowance, err := svc.Token("MKR").Allowance(ctx, coldAddress.Hex())
	require.NoError(t, err)
	require.Zero(t, allowance.Cmp(math.MaxBig256))

	_, err = svc.Token("MKR").BalanceOf(ctx, "0xnotanaddress")
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, err = svc.Token("DAI").BalanceOf(ctx, coldAddress.Hex())
	require.ErrorIs(t, err, ErrUnknownToken)
}

func TestGetVoteProxy(t *testing.T) {
	tests := []struct {
		name     string
		address  common.Address
		hasProxy bool
	}{
		{
			name:     "cold wallet",
			address:  coldAddress,
			hasProxy: true,
		},
		{
			name:     "hot wallet",
			address:  hotAddress,
			hasProxy: true,
		},
		{
			name:     "no proxy",
			address:  proposalA,
			hasProxy: false,
		},
	}

	chain := newFakeChainWithProxy(t)
	svc := newTestService(t, chain)

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.ProxyRegistry().GetVoteProxy(ctx, tt.address.Hex())
			require.NoError(t, err)
			require.NotNil(t, info)
			require.Equal(t, tt.hasProxy, info.HasProxy)
			if !tt.hasProxy {
				require.Nil(t, info.VoteProxy)
				return
			}

			proxy := info.VoteProxy
			require.Equal(t, coldAddress.Hex(), proxy.ColdAddress())
			require.Equal(t, hotAddress.Hex(), proxy.HotAddress())
			require.Equal(t, proxyAddress.Hex(), proxy.ProxyAddress())

			deposits, err := proxy.NumDeposits(ctx)
			require.NoError(t, err)
			require.Equal(t, "5.7", deposits.String())

			proposals, err := proxy.VotedProposalAddresses(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{proposalA.Hex(), proposalB.Hex()}, proposals)
		})
	}
}

func TestVotedProposalAddressesEmptySlate(t *testing.T) {
	chain := newFakeChainWithProxy(t)
	chain.handle(chiefAddress, chiefABI, "votes", func([]interface{}) ([]interface{}, error) {
		return []interface{}{[32]byte{}}, nil
	})
	svc := newTestService(t, chain)

	info, err := svc.ProxyRegistry().GetVoteProxy(ctx, coldAddress.Hex())
	require.NoError(t, err)

	proposals, err := info.VoteProxy.VotedProposalAddresses(ctx)
	require.NoError(t, err)
	require.Empty(t, proposals)
}

func TestCallFailure(t *testing.T) {
	chain := newFakeChainWithProxy(t)
	chain.handle(chiefAddress, chiefABI, "deposits", func([]interface{}) ([]interface{}, error) {
		return nil, fmt.Errorf("connection refused")
	})
	svc := newTestService(t, chain)

	info, err := svc.ProxyRegistry().GetVoteProxy(ctx, hotAddress.Hex())
	require.NoError(t, err)

	_, err = info.VoteProxy.NumDeposits(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		RPCEndpoint:         "http://localhost:8545",
		Tokens:              map[string]string{"MKR": mkrAddress},
		ChiefAddress:        chiefAddress,
		ProxyFactoryAddress: factoryAddress,
	}
	require.NoError(t, valid.validate())

	tests := []struct {
		name   string
		update func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.RPCEndpoint = "" }},
		{"missing tokens", func(c *Config) { c.Tokens = nil }},
		{"invalid token", func(c *Config) { c.Tokens = map[string]string{"MKR": "0x1"} }},
		{"invalid chief", func(c *Config) { c.ChiefAddress = "chief" }},
		{"invalid factory", func(c *Config) { c.ProxyFactoryAddress = "" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.update(&cfg)
			require.Error(t, cfg.validate())
		})
	}
}

func newTestService(t *testing.T, chain *fakeChain) *service {
	svc, err := newService(chain, Config{
		Tokens:              map[string]string{"MKR": mkrAddress},
		ChiefAddress:        chiefAddress,
		ProxyFactoryAddress: factoryAddress,
		RequestsPerSecond:   -1,
	})
	require.NoError(t, err)
	return svc
}

// newFakeChainWithProxy deploys a proxy linking coldAddress and hotAddress,
// with 5.7 MKR deposited and voting for proposalA and proposalB.
func newFakeChainWithProxy(t *testing.T) *fakeChain {
	chain := newFakeChain(t)

	lookup := func(owner common.Address) func([]interface{}) ([]interface{}, error) {
		return func(args []interface{}) ([]interface{}, error) {
			if args[0] == owner {
				return []interface{}{proxyAddress}, nil
			}
			return []interface{}{common.Address{}}, nil
		}
	}
	chain.handle(factoryAddress, proxyFactoryABI, "coldMap", lookup(coldAddress))
	chain.handle(factoryAddress, proxyFactoryABI, "hotMap", lookup(hotAddress))

	chain.handle(proxyAddress.Hex(), voteProxyABI, "cold", func([]interface{}) ([]interface{}, error) {
		return []interface{}{coldAddress}, nil
	})
	chain.handle(proxyAddress.Hex(), voteProxyABI, "hot", func([]interface{}) ([]interface{}, error) {
		return []interface{}{hotAddress}, nil
	})

	slate := [32]byte{1}
	chain.handle(chiefAddress, chiefABI, "deposits", func(args []interface{}) ([]interface{}, error) {
		require.Equal(t, proxyAddress, args[0])
		deposits, _ := new(big.Int).SetString("5700000000000000000", 10)
		return []interface{}{deposits}, nil
	})
	chain.handle(chiefAddress, chiefABI, "votes", func([]interface{}) ([]interface{}, error) {
		return []interface{}{slate}, nil
	})
	chain.handle(chiefAddress, chiefABI, "slates", func(args []interface{}) ([]interface{}, error) {
		require.Equal(t, slate, args[0])
		proposals := []common.Address{proposalA, proposalB}
		i := args[1].(*big.Int).Int64()
		if i >= int64(len(proposals)) {
			return nil, errors.New("execution reverted")
		}
		return []interface{}{proposals[i]}, nil
	})

	return chain
}

type callHandler func(args []interface{}) ([]interface{}, error)

type fakeContract struct {
	abi      abi.ABI
	handlers map[string]callHandler
}

// fakeChain answers eth_call requests by decoding them against the ABI
// registered for the target address.
type fakeChain struct {
	t         *testing.T
	contracts map[common.Address]*fakeContract
}

func newFakeChain(t *testing.T) *fakeChain {
	return &fakeChain{t, make(map[common.Address]*fakeContract)}
}

func (c *fakeChain) handle(
	address, abiJSON, method string, handler callHandler,
) {
	addr := common.HexToAddress(address)
	fc, ok := c.contracts[addr]
	if !ok {
		parsed, err := abi.JSON(strings.NewReader(abiJSON))
		require.NoError(c.t, err)
		fc = &fakeContract{parsed, make(map[string]callHandler)}
		c.contracts[addr] = fc
	}
	fc.handlers[method] = handler
}

func (c *fakeChain) CallContract(
	_ context.Context, msg ethereum.CallMsg, _ *big.Int,
) ([]byte, error) {
	fc, ok := c.contracts[*msg.To]
	if !ok {
		return nil, nil
	}
	method, err := fc.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	handler, ok := fc.handlers[method.Name]
	if !ok {
		return nil, fmt.Errorf("unexpected call to %s", method.Name)
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	outputs, err := handler(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outputs...)
}
