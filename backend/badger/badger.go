/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package badger

import (
	"fmt"
	"time"

	badgerDB "github.com/dgraph-io/badger/v3"
	"github.com/gmbyapa/ktopics/backend"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/tryfix/metrics"
)

type config struct {
	StorageDir                   string
	InMemory                     bool
	ExpiredRecordCleanupInterval time.Duration
	MetricsReporter              metrics.Reporter
}

func NewConfig() *config {
	conf := new(config)
	conf.parse()

	return conf
}

func (c *config) parse() {
	if c.ExpiredRecordCleanupInterval == time.Duration(0) {
		c.ExpiredRecordCleanupInterval = 1 * time.Minute
	}

	if c.StorageDir == `` {
		c.StorageDir = `storage`
	}

	if c.MetricsReporter == nil {
		c.MetricsReporter = metrics.NoopReporter()
	}
}

type badger struct {
	name    string
	db      *badgerDB.DB
	stop    chan struct{}
	metrics struct {
		readLatency   metrics.Observer
		updateLatency metrics.Observer
	}
}

func Builder(config *config) backend.Builder {
	return func(name string) (backend.Backend, error) {
		return NewBadgerBackend(name, config)
	}
}

func NewBadgerBackend(name string, config *config) (backend.Backend, error) {
	config.parse()
	storageDir := fmt.Sprintf(`%s/backends/badger/%s`, config.StorageDir, name)
	if config.InMemory {
		storageDir = ``
	}

	db, err := badgerDB.
		Open(badgerDB.DefaultOptions(storageDir).
			WithLoggingLevel(badgerDB.ERROR).
			WithInMemory(config.InMemory))
	if err != nil {
		return nil, errors.Wrapf(err, `db open error, backend:%s`, name)
	}

	m := &badger{
		name: name,
		db:   db,
		stop: make(chan struct{}),
	}

	constLabels := map[string]string{`name`: name, `type`: `badger`}
	m.metrics.readLatency = config.MetricsReporter.Observer(metrics.MetricConf{Path: `backend_read_latency_microseconds`, ConstLabels: constLabels})
	m.metrics.updateLatency = config.MetricsReporter.Observer(metrics.MetricConf{Path: `backend_update_latency_microseconds`, ConstLabels: constLabels})

	if !config.InMemory {
		go m.runCleaner(config.ExpiredRecordCleanupInterval)
	}

	return m, nil
}

func (m *badger) runCleaner(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			for m.db.RunValueLogGC(0.5) == nil {
			}
		}
	}
}

func (m *badger) Name() string {
	return m.name
}

func (m *badger) String() string {
	return `badger`
}

func (m *badger) Persistent() bool {
	return true
}

func (m *badger) Set(key []byte, value []byte) error {
	defer func(begin time.Time) {
		m.metrics.updateLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), nil)
	}(time.Now())

	return m.db.Update(func(txn *badgerDB.Txn) error {
		return txn.Set(key, value)
	})
}

func (m *badger) Get(key []byte) ([]byte, error) {
	defer func(begin time.Time) {
		m.metrics.readLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), nil)
	}(time.Now())

	var v []byte

	if err := m.db.View(func(txn *badgerDB.Txn) error {
		itm, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badgerDB.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		v, err = itm.ValueCopy(nil)
		return err
	}); err != nil {
		return nil, errors.Wrap(err, `badger read failed`)
	}

	return v, nil
}

// PrefixedIterator holds a read transaction open on a separate goroutine until the iterator is closed.
func (m *badger) PrefixedIterator(keyPrefix []byte) backend.Iterator {
	closed := make(chan struct{})
	i := &Iterator{closed: closed, done: make(chan struct{})}

	assigned := make(chan struct{})
	go func() {
		defer close(i.done)
		i.viewErr = m.db.View(func(txn *badgerDB.Txn) error {
			opts := badgerDB.DefaultIteratorOptions
			opts.Prefix = keyPrefix
			i.itr = txn.NewIterator(opts)
			close(assigned)

			<-closed
			return nil
		})
	}()

	<-assigned

	return i
}

func (m *badger) Close() error {
	close(m.stop)
	return m.db.Close()
}
