package hdpath

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const (
	purposeBIP44 = hdkeychain.HardenedKeyStart + 44
	coinTypeEth  = hdkeychain.HardenedKeyStart + 60
)

var (
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New("path must contain at least one elem")
	// ErrInvalidDerivationPath is returned for path elems that aren't valid
	// indexes.
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrNotEthereumPath is returned for paths not rooted at m/44'/60'.
	ErrNotEthereumPath = errors.New("derivation path is not a BIP44 ethereum path")
)

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet account
type DerivationPath []uint32

// ParseDerivationPath converts a derivation path string to the
// internal binary representation. The leading "m/" is optional.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strings.TrimSpace(strPath) == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}
	if len(elems) == 0 {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}

		var value uint32
		if strings.HasSuffix(elem, "'") {
			value = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		bigval, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf(
				"%w: invalid elem '%s'", ErrInvalidDerivationPath, elem,
			)
		}

		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			if value == 0 {
				return nil, fmt.Errorf(
					"%w: elem %v must be in range [0, %d]",
					ErrInvalidDerivationPath, bigval, max,
				)
			}
			return nil, fmt.Errorf(
				"%w: elem %v must be in hardened range [0, %d]",
				ErrInvalidDerivationPath, bigval, max,
			)
		}
		value += uint32(bigval.Uint64())

		path = append(path, value)
	}

	return path, nil
}

// ParseEthereumPath parses the path and makes sure it is rooted at the
// BIP44 ethereum purpose and coin type.
func ParseEthereumPath(strPath string) (DerivationPath, error) {
	path, err := ParseDerivationPath(strPath)
	if err != nil {
		return nil, err
	}
	if !path.IsEthereum() {
		return nil, ErrNotEthereumPath
	}
	return path, nil
}

func (path DerivationPath) IsEthereum() bool {
	return len(path) >= 2 && path[0] == purposeBIP44 && path[1] == coinTypeEth
}

// Child returns a copy of the path extended with the given components.
func (path DerivationPath) Child(components ...uint32) DerivationPath {
	child := make(DerivationPath, 0, len(path)+len(components))
	child = append(child, path...)
	return append(child, components...)
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= hdkeychain.HardenedKeyStart {
			component -= hdkeychain.HardenedKeyStart
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}
