package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"
)

// Amounts of MKR and of deposits in the governance contract carry 18 decimals.
const mkrDecimals = 18

var (
	// ErrInvalidAddress is returned when an address is not a 20 bytes hex
	// string.
	ErrInvalidAddress = errors.New("invalid ethereum address")
)

// contract binds an ABI to a deployed address. Every read goes through the
// shared rate limiter, a single dashboard action fans out to a handful of
// calls and public RPC endpoints throttle aggressively.
type contract struct {
	address common.Address
	abi     abi.ABI
	caller  ethereum.ContractCaller
	limiter ratelimit.Limiter
}

func newContract(
	address common.Address, abiJSON string,
	caller ethereum.ContractCaller, limiter ratelimit.Limiter,
) (*contract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	return &contract{address, parsed, caller, limiter}, nil
}

func (c *contract) call(
	ctx context.Context, out interface{}, method string, args ...interface{},
) error {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	c.limiter.Take()
	msg := ethereum.CallMsg{To: &c.address, Data: data}
	result, err := c.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return fmt.Errorf("failed to call %s on %s: %w", method, c.address, err)
	}

	if err := c.abi.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return nil
}

func parseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address), nil
}

func toMkr(amount *big.Int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -mkrDecimals)
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}
