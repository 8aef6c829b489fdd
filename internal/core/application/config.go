package application

import (
	"fmt"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	dbbadger "github.com/polling-network/polling-daemon/internal/infrastructure/storage/db/badger"
	"github.com/polling-network/polling-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/polling-network/polling-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
)

const (
	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBInMemory: {},
	}
)

type Config struct {
	DBType string
	// DBConfig is the db directory for badger, unused for inmemory.
	DBConfig interface{}

	WalletProvider         ports.WalletProvider
	PubSub                 ports.PubSub
	HardwareAccountsLength int
	Metrics                *stats.Metrics

	store       *Store
	repo        ports.RepoManager
	enrichment  EnrichmentService
	hardware    HardwareConnector
	account     AccountService
	pubsub      PubSubService
	broadcaster *EventBroadcaster
}

func (c *Config) Validate() error {
	if c.WalletProvider == nil {
		return fmt.Errorf("missing wallet provider")
	}
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("unsupported db type %s", c.DBType)
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Store() *Store {
	if c.store == nil {
		c.store = NewStore()
		c.store.Subscribe(c.observeEvent)
	}
	return c.store
}

func (c *Config) RepoManager() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) EnrichmentService() EnrichmentService {
	if c.enrichment == nil {
		c.enrichment = NewEnrichmentService(c.WalletProvider, c.metrics())
	}
	return c.enrichment
}

func (c *Config) HardwareConnector() HardwareConnector {
	if c.hardware == nil {
		c.hardware = NewHardwareConnector(
			c.WalletProvider, c.EnrichmentService(), c.Store(),
			c.HardwareAccountsLength, c.metrics(),
		)
	}
	return c.hardware
}

func (c *Config) AccountService() AccountService {
	if c.account == nil {
		var repo domain.TrackedAccountRepository
		if repoManager, _ := c.repoManager(); repoManager != nil {
			repo = repoManager.TrackedAccountRepository()
		}
		c.account = NewAccountService(c.Store(), c.EnrichmentService(), repo)
	}
	return c.account
}

// PubSubService returns nil if no pubsub is configured.
func (c *Config) PubSubService() PubSubService {
	if c.pubsub == nil && c.PubSub != nil {
		c.pubsub = NewPubSubService(c.PubSub, c.metrics())
	}
	return c.pubsub
}

func (c *Config) EventBroadcaster() *EventBroadcaster {
	if c.broadcaster == nil {
		c.broadcaster = NewEventBroadcaster(0)
		c.broadcaster.Listen(c.Store())
	}
	return c.broadcaster
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.New())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		case DBInMemory:
			c.repo = inmemory.NewRepoManager()
		}
	}
	return c.repo, nil
}

func (c *Config) metrics() *stats.Metrics {
	if c.Metrics == nil {
		c.Metrics = stats.NewMetrics(nil)
	}
	return c.Metrics
}

func (c *Config) observeEvent(event domain.Event, state domain.State) {
	m := c.metrics()
	m.StoreEvents.WithLabelValues(event.Type().String()).Inc()
	m.TrackedAccounts.Set(float64(len(state.Accounts)))
}
