/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package mocks

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
)

var ErrUnknownTopic = errors.Sentinel(`unknown topic or partition`)

type MockPartition struct {
	id      int32
	records []kafka.Record
	mu      sync.Mutex
}

func (p *MockPartition) Append(topic string, key, value []byte) kafka.Record {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := &Record{
		MTopic:     topic,
		MPartition: p.id,
		MOffset:    int64(len(p.records)),
		MKey:       key,
		MValue:     value,
		MTimestamp: time.Now(),
	}
	p.records = append(p.records, r)

	return r
}

// Latest returns the offset of the next record to be appended.
func (p *MockPartition) Latest() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return int64(len(p.records))
}

func (p *MockPartition) FetchAll() []kafka.Record {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]kafka.Record(nil), p.records...)
}

// Fetch returns at most limit records starting from offset start.
func (p *MockPartition) Fetch(start int64, limit int) []kafka.Record {
	p.mu.Lock()
	defer p.mu.Unlock()

	if start < 0 || start >= int64(len(p.records)) {
		return nil
	}

	to := int(start) + limit
	if to > len(p.records) {
		to = len(p.records)
	}

	return append([]kafka.Record(nil), p.records[start:to]...)
}

type MockTopic struct {
	Name       string
	Meta       *kafka.Topic
	partitions []*MockPartition
}

func (tp *MockTopic) Partition(id int32) (*MockPartition, error) {
	if id < 0 || int(id) >= len(tp.partitions) {
		return nil, ErrUnknownTopic
	}

	return tp.partitions[id], nil
}

func (tp *MockTopic) Partitions() []*MockPartition {
	return tp.partitions
}

// PartitionFor picks a partition by key hash, nil keys go to partition 0.
func (tp *MockTopic) PartitionFor(key []byte) *MockPartition {
	if key == nil {
		return tp.partitions[0]
	}

	h := fnv.New32a()
	_, _ = h.Write(key)

	return tp.partitions[h.Sum32()%uint32(len(tp.partitions))]
}

type Topics struct {
	mu     sync.Mutex
	topics map[string]*MockTopic
}

func NewMockTopics() *Topics {
	return &Topics{
		topics: make(map[string]*MockTopic),
	}
}

func (td *Topics) AddTopic(meta *kafka.Topic) (*MockTopic, error) {
	td.mu.Lock()
	defer td.mu.Unlock()

	if _, ok := td.topics[meta.Name]; ok {
		return nil, errors.Mark(errors.Errorf(`topic %s already exists`, meta.Name), kafka.ErrTopicExists)
	}

	numPartitions := meta.NumPartitions
	if numPartitions < 1 {
		numPartitions = 1
	}

	topic := &MockTopic{
		Name:       meta.Name,
		Meta:       meta,
		partitions: make([]*MockPartition, numPartitions),
	}

	for i := int32(0); i < numPartitions; i++ {
		topic.partitions[i] = &MockPartition{id: i}
	}

	td.topics[meta.Name] = topic

	return topic, nil
}

func (td *Topics) Topic(name string) (*MockTopic, error) {
	td.mu.Lock()
	defer td.mu.Unlock()

	t, ok := td.topics[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTopic, `topic %s`, name)
	}

	return t, nil
}

func (td *Topics) Names() []string {
	td.mu.Lock()
	defer td.mu.Unlock()

	var names []string
	for name := range td.topics {
		names = append(names, name)
	}

	return names
}
