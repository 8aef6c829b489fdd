package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

const DefaultRequestsPerSecond = 10

type Config struct {
	RPCEndpoint string
	// Tokens maps a token symbol to its contract address.
	Tokens              map[string]string
	ChiefAddress        string
	ProxyFactoryAddress string
	// RequestsPerSecond caps the rate of calls to the RPC endpoint. Zero
	// means DefaultRequestsPerSecond, a negative value disables the limit.
	RequestsPerSecond int
}

func (c Config) validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("missing rpc endpoint")
	}
	if len(c.Tokens) <= 0 {
		return fmt.Errorf("missing token addresses")
	}
	for symbol, addr := range c.Tokens {
		if _, err := parseAddress(addr); err != nil {
			return fmt.Errorf("invalid %s address: %w", symbol, err)
		}
	}
	if _, err := parseAddress(c.ChiefAddress); err != nil {
		return fmt.Errorf("invalid chief address: %w", err)
	}
	if _, err := parseAddress(c.ProxyFactoryAddress); err != nil {
		return fmt.Errorf("invalid proxy factory address: %w", err)
	}
	return nil
}

func (c Config) limiter() ratelimit.Limiter {
	if c.RequestsPerSecond < 0 {
		return ratelimit.NewUnlimited()
	}
	if c.RequestsPerSecond == 0 {
		return ratelimit.New(DefaultRequestsPerSecond)
	}
	return ratelimit.New(c.RequestsPerSecond)
}

type service struct {
	client   *ethclient.Client
	tokens   map[string]*token
	registry *proxyRegistry
	hardware *hardwareWallets
}

// NewService dials the RPC endpoint and binds the governance contracts.
func NewService(ctx context.Context, cfg Config) (ports.WalletProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach rpc endpoint: %w", err)
	}
	log.Debugf("connected to chain %s", chainID)

	svc, err := newService(client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	svc.client = client
	return svc, nil
}

func newService(caller ethereum.ContractCaller, cfg Config) (*service, error) {
	limiter := cfg.limiter()
	bind := func(address, abiJSON string) (*contract, error) {
		return newContract(common.HexToAddress(address), abiJSON, caller, limiter)
	}

	chief, err := bind(cfg.ChiefAddress, chiefABI)
	if err != nil {
		return nil, err
	}
	factory, err := bind(cfg.ProxyFactoryAddress, proxyFactoryABI)
	if err != nil {
		return nil, err
	}

	tokens := make(map[string]*token, len(cfg.Tokens))
	for symbol, address := range cfg.Tokens {
		tokenContract, err := bind(address, erc20ABI)
		if err != nil {
			return nil, err
		}
		tokens[strings.ToUpper(symbol)] = &token{
			contract: tokenContract,
			spender:  chief.address,
		}
	}

	return &service{
		tokens: tokens,
		registry: &proxyRegistry{
			factory: factory,
			chief:   chief,
			newProxyContract: func(addr common.Address) (*contract, error) {
				return newContract(addr, voteProxyABI, caller, limiter)
			},
		},
		hardware: newHardwareWallets(),
	}, nil
}

func (s *service) Token(symbol string) ports.Token {
	if t, ok := s.tokens[strings.ToUpper(symbol)]; ok {
		return t
	}
	return unknownToken{symbol}
}

func (s *service) ProxyRegistry() ports.ProxyRegistry {
	return s.registry
}

func (s *service) AddAccount(
	ctx context.Context, opts ports.AddAccountOpts,
) error {
	return s.hardware.AddAccount(ctx, opts)
}

func (s *service) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
