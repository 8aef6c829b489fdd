package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// The chief caps the number of proposals a single slate can vote for.
const maxSlateSize = 5

type proxyRegistry struct {
	factory *contract
	chief   *contract
	// newProxyContract binds the vote proxy ABI to a proxy address.
	newProxyContract func(common.Address) (*contract, error)
}

// GetVoteProxy looks the address up as cold wallet first, then as hot one.
func (r *proxyRegistry) GetVoteProxy(
	ctx context.Context, address string,
) (*ports.VoteProxyInfo, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	var proxyAddr common.Address
	if err := r.factory.call(ctx, &proxyAddr, "coldMap", addr); err != nil {
		return nil, err
	}
	if proxyAddr == (common.Address{}) {
		if err := r.factory.call(ctx, &proxyAddr, "hotMap", addr); err != nil {
			return nil, err
		}
	}
	if proxyAddr == (common.Address{}) {
		return &ports.VoteProxyInfo{HasProxy: false}, nil
	}

	proxy, err := r.voteProxy(ctx, proxyAddr)
	if err != nil {
		return nil, err
	}
	return &ports.VoteProxyInfo{HasProxy: true, VoteProxy: proxy}, nil
}

func (r *proxyRegistry) voteProxy(
	ctx context.Context, proxyAddr common.Address,
) (*voteProxy, error) {
	proxyContract, err := r.newProxyContract(proxyAddr)
	if err != nil {
		return nil, err
	}

	proxy := &voteProxy{address: proxyAddr, chief: r.chief}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return proxyContract.call(gctx, &proxy.cold, "cold")
	})
	g.Go(func() error {
		return proxyContract.call(gctx, &proxy.hot, "hot")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return proxy, nil
}

type voteProxy struct {
	address common.Address
	cold    common.Address
	hot     common.Address
	chief   *contract
}

func (p *voteProxy) ColdAddress() string {
	return p.cold.Hex()
}

func (p *voteProxy) HotAddress() string {
	return p.hot.Hex()
}

func (p *voteProxy) ProxyAddress() string {
	return p.address.Hex()
}

func (p *voteProxy) NumDeposits(ctx context.Context) (decimal.Decimal, error) {
	var deposits *big.Int
	if err := p.chief.call(ctx, &deposits, "deposits", p.address); err != nil {
		return decimal.Zero, err
	}
	return toMkr(deposits), nil
}

// VotedProposalAddresses returns the proposals in the slate the proxy is
// currently voting for, in slate order.
func (p *voteProxy) VotedProposalAddresses(
	ctx context.Context,
) ([]string, error) {
	var slate [32]byte
	if err := p.chief.call(ctx, &slate, "votes", p.address); err != nil {
		return nil, err
	}
	if slate == ([32]byte{}) {
		return []string{}, nil
	}

	proposals := make([]string, 0, 1)
	for i := 0; i < maxSlateSize; i++ {
		var proposal common.Address
		err := p.chief.call(ctx, &proposal, "slates", slate, big.NewInt(int64(i)))
		if isRevert(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, proposal.Hex())
	}
	return proposals, nil
}
