package mocks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
)

// Cluster is an in-memory broker. Every connection handed out by its builders is counted
// until closed, so tests can assert that no connection leaks.
type Cluster struct {
	Topics *Topics

	unavailable  atomic.Bool
	open         atomic.Int64
	pollInterval time.Duration

	mu           sync.Mutex
	groupConfigs []*kafka.GroupConsumerConfig
}

func NewCluster() *Cluster {
	return &Cluster{
		Topics:       NewMockTopics(),
		pollInterval: 5 * time.Millisecond,
	}
}

// SetAvailable toggles the cluster. While unavailable every connect attempt fails and running
// consumers fail on their next poll.
func (c *Cluster) SetAvailable(available bool) {
	c.unavailable.Store(!available)
}

// OpenConnections returns the number of connections not yet closed.
func (c *Cluster) OpenConnections() int64 {
	return c.open.Load()
}

// GroupConfigs returns the configs of every consumer built so far.
func (c *Cluster) GroupConfigs() []*kafka.GroupConsumerConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*kafka.GroupConsumerConfig(nil), c.groupConfigs...)
}

// Produce appends a record to the topic, bypassing any producer connection.
func (c *Cluster) Produce(topic string, key, value []byte) (kafka.Record, error) {
	tp, err := c.Topics.Topic(topic)
	if err != nil {
		return nil, err
	}

	return tp.PartitionFor(key).Append(topic, key, value), nil
}

func (c *Cluster) connect() error {
	if c.unavailable.Load() {
		return errors.Mark(errors.New(`connection refused`), kafka.ErrBrokerUnavailable)
	}
	c.open.Add(1)

	return nil
}

type connection struct {
	cluster *Cluster
	once    sync.Once
}

func (conn *connection) release() {
	conn.once.Do(func() {
		conn.cluster.open.Add(-1)
	})
}

func (c *Cluster) AdminBuilder() kafka.AdminBuilder {
	return func(ctx context.Context) (kafka.Admin, error) {
		if err := c.connect(); err != nil {
			return nil, err
		}

		return &MockKafkaAdmin{connection: connection{cluster: c}}, nil
	}
}

func (c *Cluster) GroupConsumerBuilder() kafka.GroupConsumerBuilder {
	return func(configure func(*kafka.GroupConsumerConfig)) (kafka.GroupConsumer, error) {
		conf := kafka.NewConfig()
		configure(conf)

		c.mu.Lock()
		c.groupConfigs = append(c.groupConfigs, conf)
		c.mu.Unlock()

		if err := c.connect(); err != nil {
			return nil, err
		}

		return &MockGroupConsumer{connection: connection{cluster: c}, config: conf}, nil
	}
}

func (c *Cluster) ProducerBuilder() kafka.ProducerBuilder {
	return func(ctx context.Context) (kafka.Producer, error) {
		if err := c.connect(); err != nil {
			return nil, err
		}

		return &MockProducer{connection: connection{cluster: c}}, nil
	}
}

type MockKafkaAdmin struct {
	connection
}

func (m *MockKafkaAdmin) CreateTopics(_ context.Context, topics []*kafka.Topic) error {
	if m.cluster.unavailable.Load() {
		return errors.Mark(errors.New(`request timed out`), kafka.ErrBrokerUnavailable)
	}

	for _, topic := range topics {
		if _, err := m.cluster.Topics.AddTopic(topic); err != nil {
			return err
		}
	}

	return nil
}

func (m *MockKafkaAdmin) Close() error {
	m.release()
	return nil
}

type MockProducer struct {
	connection
}

func (p *MockProducer) Produce(_ context.Context, topic string, key, value []byte) (kafka.Delivery, error) {
	if p.cluster.unavailable.Load() {
		return kafka.Delivery{}, errors.Mark(errors.New(`request timed out`), kafka.ErrBrokerUnavailable)
	}

	r, err := p.cluster.Produce(topic, key, value)
	if err != nil {
		return kafka.Delivery{}, err
	}

	return kafka.Delivery{Topic: topic, Partition: r.Partition(), Offset: r.Offset()}, nil
}

func (p *MockProducer) Close() error {
	p.release()
	return nil
}

type MockGroupConsumer struct {
	connection
	config *kafka.GroupConsumerConfig
}

func (g *MockGroupConsumer) Consume(ctx context.Context, topics []string, handler kafka.GroupHandler) error {
	positions := map[*MockPartition]int64{}
	var assigned []kafka.TopicPartition
	for _, name := range topics {
		tp, err := g.cluster.Topics.Topic(name)
		if err != nil {
			// the broker keeps the member waiting for a topic that does not exist yet
			continue
		}

		for _, pt := range tp.Partitions() {
			pos := int64(0)
			if g.config.Offsets.Initial == kafka.Latest {
				pos = pt.Latest()
			}
			positions[pt] = pos
			assigned = append(assigned, kafka.TopicPartition{Topic: name, Partition: pt.id})
		}
	}

	if err := handler.OnPartitionAssigned(ctx, assigned); err != nil {
		return err
	}

	ticker := time.NewTicker(g.cluster.pollInterval)
	defer ticker.Stop()

	for {
		if g.cluster.unavailable.Load() {
			return errors.Mark(errors.New(`connection reset`), kafka.ErrBrokerUnavailable)
		}

		for pt, pos := range positions {
			for _, r := range pt.Fetch(pos, 100) {
				if err := handler.OnRecord(ctx, r); err != nil {
					return err
				}
				positions[pt] = r.Offset() + 1
			}
		}

		select {
		case <-ctx.Done():
			return handler.OnPartitionRevoked(context.Background(), assigned)
		case <-ticker.C:
		}
	}
}

func (g *MockGroupConsumer) Close() error {
	g.release()
	return nil
}
