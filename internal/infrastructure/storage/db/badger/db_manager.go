package dbbadger

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const gcInterval = 30 * time.Minute

type repoManager struct {
	accountsStore *badgerhold.Store

	trackedAccountRepository domain.TrackedAccountRepository
	stopGC                   func()
}

// NewRepoManager opens (or creates if not exists) the badger stores in the
// given directory. An empty directory makes them run in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var accountsDir string
	if len(baseDbDir) > 0 {
		accountsDir = filepath.Join(baseDbDir, "accounts")
	}

	accountsDb, stopGC, err := createDb(accountsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening accounts db: %w", err)
	}

	return &repoManager{
		accountsStore:            accountsDb,
		trackedAccountRepository: NewTrackedAccountRepositoryImpl(accountsDb),
		stopGC:                   stopGC,
	}, nil
}

func (d *repoManager) TrackedAccountRepository() domain.TrackedAccountRepository {
	return d.trackedAccountRepository
}

func (d *repoManager) Close() {
	d.stopGC()
	if err := d.accountsStore.Close(); err != nil {
		log.WithError(err).Warn("failed to close accounts db")
	}
}

func createDb(
	dbDir string, logger badger.Logger,
) (*badgerhold.Store, func(), error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, nil, err
	}

	if isInMemory {
		return db, func() {}, nil
	}

	ticker := time.NewTicker(gcInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return db, func() { close(done) }, nil
}
