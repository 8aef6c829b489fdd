package pubsub

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

type store struct {
	db     *badgerhold.Store
	stopGC func()
}

// newStore opens the subscriptions db in the given directory, or in memory
// if empty.
func newStore(baseDbDir string, logger badger.Logger) (*store, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "pubsub")
	}
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
		return nil, err
	}

	s := &store{db: db, stopGC: func() {}}
	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)
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
		s.stopGC = func() { close(done) }
	}
	return s, nil
}

func (s *store) add(sub Subscription) error {
	return s.db.Insert(sub.ID, &sub)
}

func (s *store) get(id string) (*Subscription, error) {
	var sub Subscription
	if err := s.db.Get(id, &sub); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *store) remove(id string) error {
	return s.db.Delete(id, Subscription{})
}

// listForTopic returns the subscriptions for the topic in registration
// order. An unspecified topic returns all of them.
func (s *store) listForTopic(topic string) (subscriptions, error) {
	var query *badgerhold.Query
	if topic != ports.UnspecifiedTopic {
		query = badgerhold.Where("Event").Eq(topic).Index("Event")
	}

	var subs subscriptions
	if err := s.db.Find(&subs, query); err != nil {
		return nil, err
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt < subs[j].CreatedAt
	})
	return subs, nil
}

func (s *store) close() error {
	s.stopGC()
	return s.db.Close()
}
