/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package sarama

import (
	"context"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

type groupConsumer struct {
	group   sarama.ConsumerGroup
	config  *kafka.GroupConsumerConfig
	logger  log.Logger
	latency metrics.Observer
}

func newLatencyObserver(reporter metrics.Reporter) metrics.Observer {
	return reporter.Observer(metrics.MetricConf{
		Path:   `ktopics_group_consumer_end_to_end_latency_microseconds`,
		Labels: []string{`topic`},
	})
}

// NewGroupConsumerBuilder returns a builder creating sarama consumer group members from a copy of base.
func NewGroupConsumerBuilder(base *kafka.GroupConsumerConfig, options ...AdminOption) kafka.GroupConsumerBuilder {
	opts := new(adminOptions)
	opts.apply(options...)
	// consumers are short lived, they share one observer
	latency := newLatencyObserver(opts.MetricsReporter)

	return func(configure func(*kafka.GroupConsumerConfig)) (kafka.GroupConsumer, error) {
		conf := base.Copy()
		configure(conf)

		saramaConf := opts.saramaConfig()
		if conf.Id != `` {
			saramaConf.ClientID = conf.Id
		}
		saramaConf.Consumer.IsolationLevel = sarama.IsolationLevel(conf.IsolationLevel)
		saramaConf.Consumer.Offsets.AutoCommit.Enable = conf.Offsets.Commit.Auto
		saramaConf.Consumer.Offsets.AutoCommit.Interval = conf.Offsets.Commit.Interval
		saramaConf.Consumer.Offsets.Initial = sarama.OffsetOldest
		if conf.Offsets.Initial == kafka.Latest {
			saramaConf.Consumer.Offsets.Initial = sarama.OffsetNewest
		}

		return newGroupConsumer(conf, saramaConf, latency)
	}
}

func NewGroupConsumer(config *kafka.GroupConsumerConfig, saramaConf *sarama.Config) (kafka.GroupConsumer, error) {
	return newGroupConsumer(config, saramaConf, newLatencyObserver(config.MetricsReporter))
}

func newGroupConsumer(config *kafka.GroupConsumerConfig, saramaConf *sarama.Config, latency metrics.Observer) (kafka.GroupConsumer, error) {
	group, err := sarama.NewConsumerGroup(config.BootstrapServers, config.GroupId, saramaConf)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, `new consumer failed`), kafka.ErrBrokerUnavailable)
	}

	return &groupConsumer{
		group:   group,
		config:  config,
		logger:  config.Logger.NewLog(log.Prefixed(fmt.Sprintf(`GroupConsumer(%s)`, config.GroupId))),
		latency: latency,
	}, nil
}

func (g *groupConsumer) Consume(ctx context.Context, topics []string, handler kafka.GroupHandler) error {
	gHandler := &groupHandler{
		handler: handler,
		logger:  g.logger,
		latency: g.latency,
	}

	g.logger.Info(fmt.Sprintf(`Subscribing to topics %v`, topics))

	// Consume returns on every rebalance, the session is re-joined until ctx is done
	for {
		if err := g.group.Consume(ctx, topics, gHandler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}

			return errors.Mark(errors.Wrap(err, `consume failed`), kafka.ErrBrokerUnavailable)
		}

		if ctx.Err() != nil {
			g.logger.Info(`Consumer stopped`)
			return nil
		}
	}
}

func (g *groupConsumer) Close() error {
	if err := g.group.Close(); err != nil {
		return errors.Wrap(err, `consumer close failed`)
	}

	return nil
}

type groupHandler struct {
	handler kafka.GroupHandler
	logger  log.Logger
	latency metrics.Observer
}

func (g *groupHandler) Setup(session sarama.ConsumerGroupSession) error {
	return g.handler.OnPartitionAssigned(session.Context(), g.extractTps(session.Claims()))
}

func (g *groupHandler) Cleanup(session sarama.ConsumerGroupSession) error {
	return g.handler.OnPartitionRevoked(session.Context(), g.extractTps(session.Claims()))
}

func (g *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil

		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			t := time.Since(msg.Timestamp)
			g.latency.Observe(float64(t.Microseconds()), map[string]string{`topic`: msg.Topic})

			record := &Record{msg: msg}
			g.logger.Debug(fmt.Sprintf(`record %s received after %s`, record, t))

			if err := g.handler.OnRecord(session.Context(), record); err != nil {
				return err
			}
		}
	}
}

func (g *groupHandler) extractTps(claims map[string][]int32) []kafka.TopicPartition {
	tps := make([]kafka.TopicPartition, 0)
	for topic, partitions := range claims {
		for _, p := range partitions {
			tps = append(tps, kafka.TopicPartition{
				Topic:     topic,
				Partition: p,
			})
		}
	}

	return tps
}
