package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ErrUnknownToken is returned by every call on a token whose symbol is not
// configured.
var ErrUnknownToken = errors.New("unknown token")

type token struct {
	contract *contract
	// spender is the governance contract whose allowance is checked.
	spender common.Address
}

func (t *token) BalanceOf(
	ctx context.Context, address string,
) (decimal.Decimal, error) {
	owner, err := parseAddress(address)
	if err != nil {
		return decimal.Zero, err
	}

	var balance *big.Int
	if err := t.contract.call(ctx, &balance, "balanceOf", owner); err != nil {
		return decimal.Zero, err
	}
	return toMkr(balance), nil
}

func (t *token) Allowance(ctx context.Context, owner string) (*big.Int, error) {
	ownerAddr, err := parseAddress(owner)
	if err != nil {
		return nil, err
	}

	var allowance *big.Int
	if err := t.contract.call(
		ctx, &allowance, "allowance", ownerAddr, t.spender,
	); err != nil {
		return nil, err
	}
	return allowance, nil
}

type unknownToken struct {
	symbol string
}

func (t unknownToken) BalanceOf(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownToken, t.symbol)
}

func (t unknownToken) Allowance(context.Context, string) (*big.Int, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnknownToken, t.symbol)
}
