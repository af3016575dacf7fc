/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package memory

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"github.com/gmbyapa/ktopics/backend"
	"github.com/tryfix/metrics"
)

type config struct {
	MetricsReporter metrics.Reporter
}

func NewConfig() *config {
	conf := new(config)
	conf.parse()

	return conf
}

func (c *config) parse() {
	if c.MetricsReporter == nil {
		c.MetricsReporter = metrics.NoopReporter()
	}
}

type memory struct {
	name    string
	mu      sync.RWMutex
	records map[string][]byte
	metrics struct {
		readLatency   metrics.Observer
		updateLatency metrics.Observer
		storageSize   metrics.Gauge
	}
}

func Builder(config *config) backend.Builder {
	return func(name string) (backend backend.Backend, err error) {
		return NewMemoryBackend(name, config), nil
	}
}

func NewMemoryBackend(name string, config *config) backend.Backend {
	config.parse()
	m := &memory{
		name:    name,
		records: map[string][]byte{},
	}

	labels := []string{`name`, `type`}
	m.metrics.readLatency = config.MetricsReporter.Observer(metrics.MetricConf{Path: `backend_read_latency_microseconds`, Labels: labels})
	m.metrics.updateLatency = config.MetricsReporter.Observer(metrics.MetricConf{Path: `backend_update_latency_microseconds`, Labels: labels})
	m.metrics.storageSize = config.MetricsReporter.Gauge(metrics.MetricConf{Path: `backend_storage_size`, Labels: labels})

	return m
}

func (m *memory) Name() string {
	return m.name
}

func (m *memory) String() string {
	return `memory`
}

func (m *memory) Persistent() bool {
	return false
}

func (m *memory) labels() map[string]string {
	return map[string]string{`name`: m.Name(), `type`: `memory`}
}

func (m *memory) Set(key []byte, value []byte) error {
	defer func(begin time.Time) {
		m.metrics.updateLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), m.labels())
	}(time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[string(key)] = append([]byte(nil), value...)
	m.metrics.storageSize.Count(float64(len(m.records)), m.labels())

	return nil
}

func (m *memory) Get(key []byte) ([]byte, error) {
	defer func(begin time.Time) {
		m.metrics.readLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), m.labels())
	}(time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.records[string(key)]
	if !ok {
		return nil, nil
	}

	return append([]byte(nil), val...), nil
}

func (m *memory) PrefixedIterator(keyPrefix []byte) backend.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []ByteRecord
	for k, v := range m.records {
		if bytes.HasPrefix([]byte(k), keyPrefix) {
			records = append(records, ByteRecord{Key: []byte(k), Value: append([]byte(nil), v...)})
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return bytes.Compare(records[i].Key, records[j].Key) < 0
	})

	return NewMemoryIterator(records)
}

func (m *memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = map[string][]byte{}
	return nil
}
