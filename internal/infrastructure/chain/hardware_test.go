package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/stretchr/testify/require"
)

func TestAccountPaths(t *testing.T) {
	tests := []struct {
		name     string
		basePath string
		expected []string
	}{
		{
			name:     "default",
			basePath: "",
			expected: []string{"m/44'/60'/0'/0/0", "m/44'/60'/0'/0/1", "m/44'/60'/0'/0/2"},
		},
		{
			name:     "ledger legacy",
			basePath: "44'/60'/0'/0",
			expected: []string{"m/44'/60'/0'/0/0", "m/44'/60'/0'/0/1", "m/44'/60'/0'/0/2"},
		},
		{
			name:     "ledger live",
			basePath: "44'/60'/0'",
			expected: []string{"m/44'/60'/0'/0/0", "m/44'/60'/1'/0/0", "m/44'/60'/2'/0/0"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			paths, err := accountPaths(tt.basePath, len(tt.expected))
			require.NoError(t, err)

			got := make([]string, 0, len(paths))
			for _, p := range paths {
				got = append(got, p.String())
			}
			require.Equal(t, tt.expected, got)
		})
	}

	_, err := accountPaths("44'/0'/0'", 3)
	require.Error(t, err)
	_, err = accountPaths("", 0)
	require.Error(t, err)
}

func TestHardwareAddAccount(t *testing.T) {
	wallet := &fakeWallet{}
	hw := newTestHardwareWallets(wallet)

	chosen := make(chan chosenScan, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- hw.AddAccount(ctx, ports.AddAccountOpts{
			Type:           domain.AccountTypeLedger,
			Path:           "44'/60'/0'",
			AccountsLength: 3,
			Choose: func(addresses []string, finalize domain.FinalizeFunc) {
				chosen <- chosenScan{addresses, finalize}
			},
		})
	}()

	scan := waitForScan(t, chosen)
	require.Len(t, scan.addresses, 3)
	require.True(t, wallet.isOpen())

	err := scan.finalize(nil, scan.addresses[1])
	require.NoError(t, err)
	require.NoError(t, waitForResult(t, errCh))

	require.True(t, wallet.isOpen())
	require.Equal(t, []string{"m/44'/60'/1'/0/0"}, wallet.pinnedPaths())

	err = scan.finalize(nil, scan.addresses[0])
	require.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestHardwareAddAccountAborted(t *testing.T) {
	wallet := &fakeWallet{}
	hw := newTestHardwareWallets(wallet)

	chosen := make(chan chosenScan, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- hw.AddAccount(ctx, ports.AddAccountOpts{
			Type:           domain.AccountTypeLedger,
			AccountsLength: 2,
			Choose: func(addresses []string, finalize domain.FinalizeFunc) {
				chosen <- chosenScan{addresses, finalize}
			},
		})
	}()

	scan := waitForScan(t, chosen)

	err := scan.finalize(nil, "0x0000000000000000000000000000000000000bad")
	require.ErrorIs(t, err, ErrUnknownDeviceAccount)
	require.ErrorIs(t, waitForResult(t, errCh), ErrUnknownDeviceAccount)
	require.False(t, wallet.isOpen())
	require.Empty(t, wallet.pinnedPaths())

	// The scan can't be finalized again once failed.
	err = scan.finalize(domain.ErrScanSuperseded, "")
	require.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestHardwareAddAccountCanceled(t *testing.T) {
	wallet := &fakeWallet{}
	hw := newTestHardwareWallets(wallet)

	scanCtx, cancel := context.WithCancel(ctx)
	chosen := make(chan chosenScan, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- hw.AddAccount(scanCtx, ports.AddAccountOpts{
			Type:           domain.AccountTypeLedger,
			AccountsLength: 2,
			Choose: func(addresses []string, finalize domain.FinalizeFunc) {
				chosen <- chosenScan{addresses, finalize}
			},
		})
	}()

	scan := waitForScan(t, chosen)
	cancel()

	require.ErrorIs(t, waitForResult(t, errCh), context.Canceled)
	require.False(t, wallet.isOpen())
	require.ErrorIs(t, scan.finalize(nil, scan.addresses[0]), ErrAlreadyFinalized)
}

func TestHardwareAddAccountSharedDevice(t *testing.T) {
	startScan := func(
		hw *hardwareWallets, path string,
	) (chosenScan, chan error) {
		chosen := make(chan chosenScan, 1)
		errCh := make(chan error, 1)
		go func() {
			errCh <- hw.AddAccount(ctx, ports.AddAccountOpts{
				Type:           domain.AccountTypeLedger,
				Path:           path,
				AccountsLength: 2,
				Choose: func(addresses []string, finalize domain.FinalizeFunc) {
					chosen <- chosenScan{addresses, finalize}
				},
			})
		}()
		return waitForScan(t, chosen), errCh
	}

	t.Run("superseded scan keeps device open", func(t *testing.T) {
		wallet := &fakeWallet{}
		hw := newTestHardwareWallets(wallet)

		first, firstErr := startScan(hw, "44'/60'/0'/0")
		second, secondErr := startScan(hw, "44'/60'/0'")
		require.Equal(t, 1, wallet.openCount())

		err := first.finalize(domain.ErrScanSuperseded, "")
		require.NoError(t, err)
		require.ErrorIs(t, waitForResult(t, firstErr), domain.ErrScanSuperseded)
		require.True(t, wallet.isOpen())

		err = second.finalize(nil, second.addresses[1])
		require.NoError(t, err)
		require.NoError(t, waitForResult(t, secondErr))
		require.True(t, wallet.isOpen())
		require.Equal(t, []string{"m/44'/60'/1'/0/0"}, wallet.pinnedPaths())
	})

	t.Run("last aborted scan closes device", func(t *testing.T) {
		wallet := &fakeWallet{}
		hw := newTestHardwareWallets(wallet)

		first, firstErr := startScan(hw, "")
		second, secondErr := startScan(hw, "")

		require.NoError(t, first.finalize(domain.ErrScanSuperseded, ""))
		require.ErrorIs(t, waitForResult(t, firstErr), domain.ErrScanSuperseded)
		require.True(t, wallet.isOpen())

		require.NoError(t, second.finalize(context.Canceled, ""))
		require.ErrorIs(t, waitForResult(t, secondErr), context.Canceled)
		require.False(t, wallet.isOpen())

		// A new scan opens the device again.
		third, thirdErr := startScan(hw, "")
		require.True(t, wallet.isOpen())
		require.Equal(t, 2, wallet.openCount())
		require.NoError(t, third.finalize(nil, third.addresses[0]))
		require.NoError(t, waitForResult(t, thirdErr))
		require.Equal(t, []string{"m/44'/60'/0'/0/0"}, wallet.pinnedPaths())
	})
}

func TestHardwareAddAccountFailure(t *testing.T) {
	opts := ports.AddAccountOpts{
		Type:           domain.AccountTypeTrezor,
		AccountsLength: 2,
		Choose: func([]string, domain.FinalizeFunc) {
			t.Fatal("unexpected scan result")
		},
	}

	t.Run("no device", func(t *testing.T) {
		hw := newTestHardwareWallets()
		err := hw.AddAccount(ctx, opts)
		require.ErrorIs(t, err, ErrNoDevice)
	})

	t.Run("unsupported type", func(t *testing.T) {
		hw := newTestHardwareWallets(&fakeWallet{})
		opts := opts
		opts.Type = domain.AccountTypePlain
		err := hw.AddAccount(ctx, opts)
		require.ErrorIs(t, err, ErrUnsupportedDevice)
	})

	t.Run("derivation failure", func(t *testing.T) {
		wallet := &fakeWallet{deriveErr: errors.New("device locked")}
		hw := newTestHardwareWallets(wallet)
		err := hw.AddAccount(ctx, opts)
		require.Error(t, err)
		require.False(t, wallet.isOpen())
	})
}

type chosenScan struct {
	addresses []string
	finalize  domain.FinalizeFunc
}

func waitForScan(t *testing.T, ch chan chosenScan) chosenScan {
	select {
	case scan := <-ch:
		return scan
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for device scan")
	}
	return chosenScan{}
}

func waitForResult(t *testing.T, ch chan error) error {
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for AddAccount to return")
	}
	return nil
}

func newTestHardwareWallets(wallets ...accounts.Wallet) *hardwareWallets {
	hub := fakeHub(wallets)
	factory := func() (walletHub, error) { return hub, nil }
	return &hardwareWallets{
		factories: map[domain.AccountType]hubFactory{
			domain.AccountTypeLedger: factory,
			domain.AccountTypeTrezor: factory,
		},
		hubs:     make(map[domain.AccountType]walletHub),
		sessions: make(map[accounts.Wallet]int),
	}
}

type fakeHub []accounts.Wallet

func (h fakeHub) Wallets() []accounts.Wallet {
	return h
}

// fakeWallet derives a deterministic address from every path. Like a real
// device it can't be opened twice nor derive anything once closed.
type fakeWallet struct {
	accounts.Wallet

	lock      sync.Mutex
	open      bool
	opens     int
	pinned    []string
	deriveErr error
}

func (w *fakeWallet) URL() accounts.URL {
	return accounts.URL{Scheme: "hid", Path: "fake"}
}

func (w *fakeWallet) Open(string) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.open {
		return accounts.ErrWalletAlreadyOpen
	}
	w.open = true
	w.opens++
	return nil
}

func (w *fakeWallet) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.open = false
	return nil
}

func (w *fakeWallet) Derive(
	path accounts.DerivationPath, pin bool,
) (accounts.Account, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	if !w.open {
		return accounts.Account{}, accounts.ErrWalletClosed
	}
	if w.deriveErr != nil {
		return accounts.Account{}, w.deriveErr
	}
	if pin {
		w.pinned = append(w.pinned, path.String())
	}

	seed := new(big.Int)
	for _, component := range path {
		seed.Mul(seed, big.NewInt(31))
		seed.Add(seed, new(big.Int).SetUint64(uint64(component)))
	}
	return accounts.Account{Address: common.BigToAddress(seed)}, nil
}

func (w *fakeWallet) isOpen() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.open
}

func (w *fakeWallet) openCount() int {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.opens
}

func (w *fakeWallet) pinnedPaths() []string {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]string{}, w.pinned...)
}
