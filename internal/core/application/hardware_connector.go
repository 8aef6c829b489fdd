package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/polling-network/polling-daemon/pkg/hdpath"
	"github.com/polling-network/polling-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
)

const (
	// LedgerLivePath is the base path used by Ledger Live.
	LedgerLivePath = "44'/60'/0'"
	// LedgerLegacyPath is the base path used by the legacy Ledger apps.
	LedgerLegacyPath = "44'/60'/0'/0"

	DefaultHardwareAccountsLength = 25
)

type ConnectOpts struct {
	// Live selects the Ledger Live derivation path, ignored for Trezor.
	Live bool
}

// HardwareConnector drives the connect, choose and finalize protocol of
// hardware wallets.
type HardwareConnector interface {
	// Connect scans the device of the given type and returns the candidate
	// accounts. The scan result is also stored and waits for ChooseAccount.
	Connect(
		ctx context.Context, accountType domain.AccountType, opts ConnectOpts,
	) ([]domain.HardwareAccount, error)
	// ChooseAccount finalizes one of the candidates of the pending scan and
	// adds it to the store once enriched.
	ChooseAccount(
		ctx context.Context, address string, accountType domain.AccountType,
	) (*domain.Account, error)
}

type hardwareConnector struct {
	provider       ports.WalletProvider
	enrichment     EnrichmentService
	store          *Store
	accountsLength int
	metrics        *stats.Metrics

	// scanLocks guard the hand-over between consecutive scans of the same
	// type, scanIDs identify the latest one.
	scanLocks map[domain.AccountType]*sync.Mutex
	scanIDs   map[domain.AccountType]uint64
}

func NewHardwareConnector(
	provider ports.WalletProvider,
	enrichment EnrichmentService,
	store *Store,
	accountsLength int,
	metrics *stats.Metrics,
) HardwareConnector {
	if accountsLength <= 0 {
		accountsLength = DefaultHardwareAccountsLength
	}
	if metrics == nil {
		metrics = stats.NewMetrics(nil)
	}
	scanLocks := make(map[domain.AccountType]*sync.Mutex)
	for _, t := range domain.HardwareAccountTypes {
		scanLocks[t] = &sync.Mutex{}
	}
	return &hardwareConnector{
		provider:       provider,
		enrichment:     enrichment,
		store:          store,
		accountsLength: accountsLength,
		metrics:        metrics,
		scanLocks:      scanLocks,
		scanIDs:        make(map[domain.AccountType]uint64),
	}
}

type chosenCandidates struct {
	addresses []string
	finalize  domain.FinalizeFunc
}

func (c *hardwareConnector) Connect(
	ctx context.Context, accountType domain.AccountType, opts ConnectOpts,
) (accounts []domain.HardwareAccount, err error) {
	lock, ok := c.scanLocks[accountType]
	if !ok {
		return nil, ErrUnknownAccountType
	}
	path, err := derivationPath(accountType, opts)
	if err != nil {
		return nil, err
	}

	lock.Lock()
	c.cancelPendingScan(accountType)
	c.scanIDs[accountType]++
	scanID := c.scanIDs[accountType]
	c.store.Dispatch(domain.HardwareAccountsConnecting{AccountType: accountType})
	lock.Unlock()

	defer func() { c.metrics.ObserveHardwareScan(string(accountType), err) }()

	// The device session outlives the request that started it, it ends once
	// a candidate is finalized or the scan fails.
	scanCtx, cancelScan := context.WithCancel(context.WithoutCancel(ctx))

	chosenCh := make(chan chosenCandidates, 1)
	errCh := make(chan error, 1)
	once := &sync.Once{}

	choose := func(addresses []string, finalize domain.FinalizeFunc) {
		once.Do(func() {
			chosenCh <- chosenCandidates{
				addresses: addresses,
				finalize: func(err error, address string) error {
					defer cancelScan()
					return finalize(err, address)
				},
			}
		})
	}

	go func() {
		err := c.provider.AddAccount(scanCtx, ports.AddAccountOpts{
			Type:           accountType,
			Path:           path,
			AccountsLength: c.accountsLength,
			Choose:         choose,
		})
		if err != nil {
			errCh <- err
		}
	}()

	select {
	case chosen := <-chosenCh:
		accounts = domain.NewHardwareAccounts(accountType, chosen.addresses)

		lock.Lock()
		defer lock.Unlock()
		if c.scanIDs[accountType] != scanID {
			if err := chosen.finalize(domain.ErrScanSuperseded, ""); err != nil {
				log.WithError(err).Warnf(
					"failed to release superseded %s scan", accountType,
				)
			}
			return nil, domain.ErrScanSuperseded
		}
		c.store.Dispatch(domain.HardwareAccountsConnected{
			AccountType:     accountType,
			Accounts:        accounts,
			OnAccountChosen: chosen.finalize,
		})
		log.Debugf("found %d %s accounts", len(accounts), accountType)
		return accounts, nil
	case err := <-errCh:
		cancelScan()
		c.dispatchScanError(accountType, scanID)
		return nil, fmt.Errorf("failed to connect %s device: %w", accountType, err)
	case <-ctx.Done():
		cancelScan()
		c.dispatchScanError(accountType, scanID)
		return nil, ctx.Err()
	}
}

func (c *hardwareConnector) dispatchScanError(
	accountType domain.AccountType, scanID uint64,
) {
	lock := c.scanLocks[accountType]
	lock.Lock()
	defer lock.Unlock()

	if c.scanIDs[accountType] == scanID {
		c.store.Dispatch(domain.HardwareAccountsError{AccountType: accountType})
	}
}

func (c *hardwareConnector) ChooseAccount(
	ctx context.Context, address string, accountType domain.AccountType,
) (*domain.Account, error) {
	lock, ok := c.scanLocks[accountType]
	if !ok {
		return nil, ErrUnknownAccountType
	}
	lock.Lock()
	defer lock.Unlock()

	scan, _ := c.store.State().GetHardwareScan(accountType)
	if !scan.HasPendingChoice() {
		return nil, ErrNoPendingScan
	}
	candidate, ok := findCandidate(scan, address)
	if !ok {
		return nil, ErrUnknownCandidate
	}

	if err := scan.OnChosen(nil, candidate); err != nil {
		c.store.Dispatch(domain.HardwareAccountError{AccountType: accountType})
		return nil, fmt.Errorf("failed to finalize %s account: %w", accountType, err)
	}

	// The device scan is consumed from here on, its candidates can't be
	// chosen again.
	account, err := c.enrichment.Enrich(ctx, address, accountType)
	if err != nil {
		c.store.Dispatch(domain.HardwareAccountConnected{AccountType: accountType})
		c.store.Dispatch(domain.HardwareAccountError{AccountType: accountType})
		return nil, err
	}

	c.store.Dispatch(domain.AccountAdded{Account: *account})
	c.store.Dispatch(domain.HardwareAccountConnected{AccountType: accountType})
	return account, nil
}

// cancelPendingScan aborts the previous scan for the type, if still waiting
// for a choice, so that the provider can release the device.
func (c *hardwareConnector) cancelPendingScan(accountType domain.AccountType) {
	scan, _ := c.store.State().GetHardwareScan(accountType)
	if !scan.HasPendingChoice() {
		return
	}
	if err := scan.OnChosen(domain.ErrScanSuperseded, ""); err != nil {
		log.WithError(err).Warnf("failed to cancel pending %s scan", accountType)
	}
}

func derivationPath(
	accountType domain.AccountType, opts ConnectOpts,
) (string, error) {
	if accountType != domain.AccountTypeLedger {
		return "", nil
	}

	path := LedgerLegacyPath
	if opts.Live {
		path = LedgerLivePath
	}
	if _, err := hdpath.ParseEthereumPath(path); err != nil {
		return "", err
	}
	return path, nil
}

func findCandidate(scan domain.HardwareScan, address string) (string, bool) {
	for _, a := range scan.Accounts {
		if strings.EqualFold(a.Address, address) {
			return a.Address, true
		}
	}
	return "", false
}
