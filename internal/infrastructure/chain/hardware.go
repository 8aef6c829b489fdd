package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/usbwallet"
	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/polling-network/polling-daemon/pkg/hdpath"
	log "github.com/sirupsen/logrus"
)

// defaultBasePath is used for devices that don't let the user pick one.
const defaultBasePath = "m/44'/60'/0'/0"

var (
	// ErrNoDevice is returned if no device of the requested type is plugged.
	ErrNoDevice = errors.New("no hardware device found")
	// ErrUnsupportedDevice is returned for account types not backed by a
	// hardware device.
	ErrUnsupportedDevice = errors.New("unsupported hardware device type")
	// ErrAlreadyFinalized is returned when a scan is finalized more than once.
	ErrAlreadyFinalized = errors.New("hardware scan already finalized")
	// ErrUnknownDeviceAccount is returned when finalizing an address that
	// wasn't offered by the scan.
	ErrUnknownDeviceAccount = errors.New("address not derived by the device")
)

// walletHub is the subset of usbwallet.Hub used to enumerate devices.
type walletHub interface {
	Wallets() []accounts.Wallet
}

type hubFactory func() (walletHub, error)

func ledgerHub() (walletHub, error) {
	return usbwallet.NewLedgerHub()
}

func trezorHub() (walletHub, error) {
	return usbwallet.NewTrezorHubWithHID()
}

// hardwareWallets opens the usb hubs lazily, so that a daemon running on a
// host without usb support only fails when a device scan is requested.
// A device is shared by every scan of its type: sessions counts the scans
// holding each wallet open, the last one released closes it.
type hardwareWallets struct {
	lock      sync.Mutex
	factories map[domain.AccountType]hubFactory
	hubs      map[domain.AccountType]walletHub
	sessions  map[accounts.Wallet]int
}

func newHardwareWallets() *hardwareWallets {
	return &hardwareWallets{
		factories: map[domain.AccountType]hubFactory{
			domain.AccountTypeLedger: ledgerHub,
			domain.AccountTypeTrezor: trezorHub,
		},
		hubs:     make(map[domain.AccountType]walletHub),
		sessions: make(map[accounts.Wallet]int),
	}
}

func (h *hardwareWallets) hub(accountType domain.AccountType) (walletHub, error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if hub, ok := h.hubs[accountType]; ok {
		return hub, nil
	}
	factory, ok := h.factories[accountType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDevice, accountType)
	}
	hub, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s hub: %w", accountType, err)
	}
	h.hubs[accountType] = hub
	return hub, nil
}

// AddAccount derives the candidate accounts from the first device of the
// requested type, hands them to opts.Choose and waits for the scan to be
// finalized. The device is held open only if an account gets pinned.
func (h *hardwareWallets) AddAccount(
	ctx context.Context, opts ports.AddAccountOpts,
) error {
	paths, err := accountPaths(opts.Path, opts.AccountsLength)
	if err != nil {
		return err
	}

	hub, err := h.hub(opts.Type)
	if err != nil {
		return err
	}
	wallets := hub.Wallets()
	if len(wallets) <= 0 {
		return fmt.Errorf("%w: %s", ErrNoDevice, opts.Type)
	}
	wallet := wallets[0]

	release, err := h.openSession(wallet)
	if err != nil {
		return err
	}

	scan, err := deriveAccounts(wallet, paths, release)
	if err != nil {
		release()
		return err
	}
	log.Debugf(
		"derived %d accounts from %s starting at %s",
		len(paths), wallet.URL(), paths[0],
	)

	opts.Choose(scan.addresses, scan.finalize)

	select {
	case err := <-scan.done:
		return err
	case <-ctx.Done():
		//nolint
		scan.finalize(ctx.Err(), "")
		return ctx.Err()
	}
}

// openSession opens the wallet unless another scan already holds it. The
// returned func releases this scan's hold, it's safe to call more than once.
func (h *hardwareWallets) openSession(wallet accounts.Wallet) (func(), error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.sessions[wallet] <= 0 {
		if err := wallet.Open(""); err != nil &&
			!errors.Is(err, accounts.ErrWalletAlreadyOpen) {
			return nil, fmt.Errorf("failed to open %s: %w", wallet.URL(), err)
		}
	}
	h.sessions[wallet]++

	once := &sync.Once{}
	return func() {
		once.Do(func() { h.closeSession(wallet) })
	}, nil
}

func (h *hardwareWallets) closeSession(wallet accounts.Wallet) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.sessions[wallet]--
	if h.sessions[wallet] > 0 {
		return
	}
	delete(h.sessions, wallet)
	if err := wallet.Close(); err != nil {
		log.WithError(err).Debugf("failed to close %s", wallet.URL())
	}
}

// deviceScan is the single-shot session between a device scan and the
// choice of one of its accounts. A pinned account keeps its hold on the
// device, any other outcome releases it.
type deviceScan struct {
	wallet    accounts.Wallet
	release   func()
	addresses []string
	paths     map[string]accounts.DerivationPath
	once      sync.Once
	done      chan error
}

func deriveAccounts(
	wallet accounts.Wallet, paths []hdpath.DerivationPath, release func(),
) (*deviceScan, error) {
	scan := &deviceScan{
		wallet:    wallet,
		release:   release,
		addresses: make([]string, 0, len(paths)),
		paths:     make(map[string]accounts.DerivationPath, len(paths)),
		done:      make(chan error, 1),
	}
	for _, p := range paths {
		path := accounts.DerivationPath(p)
		account, err := wallet.Derive(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to derive account at %s: %w", p, err)
		}
		address := account.Address.Hex()
		scan.addresses = append(scan.addresses, address)
		scan.paths[strings.ToLower(address)] = path
	}
	return scan, nil
}

func (s *deviceScan) finalize(err error, address string) error {
	result := ErrAlreadyFinalized
	s.once.Do(func() {
		if err != nil {
			s.release()
			s.done <- err
			result = nil
			return
		}
		result = s.pin(address)
		if result != nil {
			s.release()
		}
		s.done <- result
	})
	return result
}

func (s *deviceScan) pin(address string) error {
	path, ok := s.paths[strings.ToLower(address)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDeviceAccount, address)
	}
	if _, err := s.wallet.Derive(path, true); err != nil {
		return fmt.Errorf("failed to pin account %s: %w", address, err)
	}
	return nil
}

// accountPaths returns the derivation paths of the first n accounts under the
// given base path:
//   - a 3 levels base (Ledger Live) increments the account level, m/44'/60'/i'/0/0
//   - any other base gets the index appended, base/i
func accountPaths(basePath string, n int) ([]hdpath.DerivationPath, error) {
	if basePath == "" {
		basePath = defaultBasePath
	}
	base, err := hdpath.ParseEthereumPath(basePath)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("number of accounts must be positive, got %d", n)
	}

	paths := make([]hdpath.DerivationPath, 0, n)
	for i := 0; i < n; i++ {
		index := uint32(i)
		if len(base) == 3 {
			path := base.Child(0, 0)
			path[2] += index
			paths = append(paths, path)
			continue
		}
		paths = append(paths, base.Child(index))
	}
	return paths, nil
}
