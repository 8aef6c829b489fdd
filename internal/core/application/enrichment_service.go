package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/polling-network/polling-daemon/pkg/stats"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const MkrTokenSymbol = "MKR"

// EnrichmentService builds account records out of bare addresses by querying
// the chain. It never touches the store.
type EnrichmentService interface {
	Enrich(
		ctx context.Context, address string, accountType domain.AccountType,
	) (*domain.Account, error)
}

type enrichmentService struct {
	provider ports.WalletProvider
	metrics  *stats.Metrics
}

func NewEnrichmentService(
	provider ports.WalletProvider, metrics *stats.Metrics,
) EnrichmentService {
	if metrics == nil {
		metrics = stats.NewMetrics(nil)
	}
	return &enrichmentService{provider, metrics}
}

func (s *enrichmentService) Enrich(
	ctx context.Context, address string, accountType domain.AccountType,
) (account *domain.Account, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveEnrichment(start, err) }()

	address = domain.NormalizeAddress(address)
	if address == "" {
		return nil, ErrInvalidAddress
	}
	if !accountType.IsValid() {
		return nil, ErrUnknownAccountType
	}

	mkr := s.provider.Token(MkrTokenSymbol)

	var (
		balance   decimal.Decimal
		approval  bool
		proxyInfo *ports.VoteProxyInfo
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		b, err := mkr.BalanceOf(egCtx, address)
		if err != nil {
			return fmt.Errorf("failed to fetch MKR balance: %w", err)
		}
		balance = b
		return nil
	})
	eg.Go(func() error {
		allowance, err := mkr.Allowance(egCtx, address)
		if err != nil {
			return fmt.Errorf("failed to fetch MKR allowance: %w", err)
		}
		approval = allowance != nil && allowance.Cmp(math.MaxBig256) == 0
		return nil
	})
	eg.Go(func() error {
		info, err := s.provider.ProxyRegistry().GetVoteProxy(egCtx, address)
		if err != nil {
			return fmt.Errorf("failed to fetch vote proxy: %w", err)
		}
		proxyInfo = info
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	account = domain.NewAccountWithoutProxy(address, accountType, balance, approval)
	if proxyInfo == nil || !proxyInfo.HasProxy || proxyInfo.VoteProxy == nil {
		return account, nil
	}

	if err := s.addProxyInfo(ctx, account, proxyInfo.VoteProxy); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *enrichmentService) addProxyInfo(
	ctx context.Context, account *domain.Account, voteProxy ports.VoteProxy,
) error {
	role, linkedAddress := proxyRoleOf(account.Address, voteProxy)
	account.HasProxy = true
	account.ProxyRole = role
	account.Proxy.Address = domain.NormalizeAddress(voteProxy.ProxyAddress())
	account.Proxy.HasInfMkrApproval = account.HasInfMkrApproval

	var (
		votingFor     string
		votingPower   decimal.Decimal
		linkedBalance decimal.Decimal
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		proposals, err := voteProxy.VotedProposalAddresses(egCtx)
		if err != nil {
			return fmt.Errorf("failed to fetch voted proposals: %w", err)
		}
		if len(proposals) > 0 {
			votingFor = domain.NormalizeAddress(proposals[0])
		}
		return nil
	})
	eg.Go(func() error {
		deposits, err := voteProxy.NumDeposits(egCtx)
		if err != nil {
			return fmt.Errorf("failed to fetch proxy deposits: %w", err)
		}
		votingPower = deposits
		return nil
	})
	if linkedAddress != "" {
		eg.Go(func() error {
			b, err := s.provider.Token(MkrTokenSymbol).BalanceOf(egCtx, linkedAddress)
			if err != nil {
				return fmt.Errorf("failed to fetch linked account balance: %w", err)
			}
			linkedBalance = b
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	account.VotingFor = votingFor
	account.Proxy.VotingPower = votingPower.String()
	if linkedAddress != "" {
		account.Proxy.LinkedAccount = domain.LinkedAccount{
			Address:    linkedAddress,
			MkrBalance: linkedBalance.String(),
			ProxyRole:  role.Counterpart(),
		}
	}
	return nil
}

// proxyRoleOf returns the role of address within the proxy and the address
// of its counterpart. Both are empty if address is neither the hot nor the
// cold side.
func proxyRoleOf(
	address string, voteProxy ports.VoteProxy,
) (domain.ProxyRole, string) {
	hot := domain.NormalizeAddress(voteProxy.HotAddress())
	cold := domain.NormalizeAddress(voteProxy.ColdAddress())

	switch {
	case strings.EqualFold(address, cold):
		return domain.ProxyRoleCold, hot
	case strings.EqualFold(address, hot):
		return domain.ProxyRoleHot, cold
	default:
		return domain.ProxyRoleNone, ""
	}
}
