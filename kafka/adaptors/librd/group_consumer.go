/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package librd

import (
	"context"
	"fmt"
	"time"

	librdKafka "github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

type groupConsumer struct {
	consumer *librdKafka.Consumer
	config   *GroupConsumerConfig
	logger   log.Logger
	metrics  *consumerMetrics
}

type consumerMetrics struct {
	endToEndLatency  metrics.Observer
	rebalanceLatency metrics.Observer
}

func newConsumerMetrics(reporter metrics.Reporter) *consumerMetrics {
	reporter = reporter.Reporter(metrics.ReporterConf{Subsystem: `ktopics_group_consumer`})

	return &consumerMetrics{
		endToEndLatency: reporter.Observer(metrics.MetricConf{
			Path:   `end_to_end_latency_microseconds`,
			Labels: []string{`topic`},
		}),
		rebalanceLatency: reporter.Observer(metrics.MetricConf{
			Path: `rebalance_latency_microseconds`,
		}),
	}
}

// NewGroupConsumerBuilder returns a builder creating librdkafka consumer group members from a copy of base.
func NewGroupConsumerBuilder(base *GroupConsumerConfig) kafka.GroupConsumerBuilder {
	// consumers are short lived, they share one set of observers
	m := newConsumerMetrics(base.MetricsReporter)

	return func(configure func(*kafka.GroupConsumerConfig)) (kafka.GroupConsumer, error) {
		conf := base.copy()
		configure(conf.GroupConsumerConfig)

		if err := conf.setUp(); err != nil {
			return nil, errors.Wrap(err, `consumer config failed`)
		}

		return newGroupConsumer(conf, m)
	}
}

func NewGroupConsumer(config *GroupConsumerConfig) (kafka.GroupConsumer, error) {
	if err := config.setUp(); err != nil {
		return nil, errors.Wrap(err, `consumer config failed`)
	}

	return newGroupConsumer(config, newConsumerMetrics(config.MetricsReporter))
}

func newGroupConsumer(config *GroupConsumerConfig, m *consumerMetrics) (kafka.GroupConsumer, error) {
	con, err := librdKafka.NewConsumer(config.Librd)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, `new consumer failed`), kafka.ErrBrokerUnavailable)
	}

	g := &groupConsumer{
		consumer: con,
		config:   config,
		logger:   config.Logger.NewLog(log.Prefixed(fmt.Sprintf(`GroupConsumer(%s)`, config.GroupId))),
		metrics:  m,
	}

	if v, _ := config.Librd.Get(`go.logs.channel.enable`, false); v == true {
		go g.printLogs()
	}

	return g, nil
}

func (g *groupConsumer) Consume(ctx context.Context, topics []string, handler kafka.GroupHandler) error {
	g.logger.Info(fmt.Sprintf(`Subscribing to topics %v`, topics))

	var rebalanceErr error
	rebalance := func(c *librdKafka.Consumer, event librdKafka.Event) error {
		if err := g.rebalance(ctx, c, event, handler); err != nil {
			rebalanceErr = err
			return err
		}

		return nil
	}

	if err := g.consumer.SubscribeTopics(topics, rebalance); err != nil {
		return errors.Mark(errors.Wrap(err, `consumer subscribe failed`), kafka.ErrBrokerUnavailable)
	}

	pollMs := int(g.config.PollTimeout.Milliseconds())
	for ctx.Err() == nil {
		// rebalance callbacks run inside Poll
		ev := g.consumer.Poll(pollMs)
		if rebalanceErr != nil {
			return rebalanceErr
		}

		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *librdKafka.Message:
			if e.TopicPartition.Error != nil {
				g.logger.Warn(fmt.Sprintf(`Consume error on %s due to %s`, e.TopicPartition, e.TopicPartition.Error))
				continue
			}

			record := &Record{librd: e}
			t := time.Since(e.Timestamp)
			g.metrics.endToEndLatency.Observe(float64(t.Microseconds()), map[string]string{`topic`: record.Topic()})
			g.logger.Debug(fmt.Sprintf(`Message %s with key (%s) received in %s`, record, record.Key(), t))

			if err := handler.OnRecord(ctx, record); err != nil {
				return err
			}

		case librdKafka.Error:
			if e.IsFatal() || e.Code() == librdKafka.ErrAllBrokersDown {
				return errors.Mark(e, kafka.ErrBrokerUnavailable)
			}
			g.logger.Warn(fmt.Sprintf(`Consume error due to %s`, e))

		case librdKafka.PartitionEOF:
			g.logger.Debug(fmt.Sprintf(`Partition end %s`, e))
		}
	}

	g.logger.Info(`Consumer stopped`)

	return nil
}

func (g *groupConsumer) rebalance(ctx context.Context, c *librdKafka.Consumer, event librdKafka.Event, handler kafka.GroupHandler) error {
	defer func(since time.Time) {
		g.metrics.rebalanceLatency.Observe(float64(time.Since(since).Microseconds()), nil)
	}(time.Now())

	switch ev := event.(type) {
	case librdKafka.AssignedPartitions:
		g.logger.Info(fmt.Sprintf(`Partitions %v assigning...`, ev.Partitions))
		if err := handler.OnPartitionAssigned(ctx, toTopicPartitions(ev.Partitions)); err != nil {
			return errors.Wrap(err, `OnPartitionAssigned failed`)
		}

		if err := c.Assign(ev.Partitions); err != nil {
			return errors.Mark(errors.Wrap(err, `assign failed`), kafka.ErrBrokerUnavailable)
		}

	case librdKafka.RevokedPartitions:
		g.logger.Info(fmt.Sprintf(`Partitions %v revoking...`, ev.Partitions))
		if err := handler.OnPartitionRevoked(ctx, toTopicPartitions(ev.Partitions)); err != nil {
			return errors.Wrap(err, `OnPartitionRevoked failed`)
		}

		if err := c.Unassign(); err != nil {
			return errors.Mark(errors.Wrap(err, `unassign failed`), kafka.ErrBrokerUnavailable)
		}
	}

	return nil
}

func (g *groupConsumer) Close() error {
	g.logger.Info(`Consumer closing...`)
	defer g.logger.Info(`Consumer closed`)

	if err := g.consumer.Close(); err != nil {
		return errors.Wrap(err, `consumer close failed`)
	}

	return nil
}

func (g *groupConsumer) printLogs() {
	logger := g.logger.NewLog(log.Prefixed(`Librdkafka`))
	for lg := range g.consumer.Logs() {
		switch lg.Level {
		case 0, 1, 2:
			logger.Error(lg.String())
		case 3, 4, 5:
			logger.Warn(lg.String())
		case 6:
			logger.Info(lg.String())
		case 7:
			logger.Debug(lg.String())
		}
	}
}

func toTopicPartitions(partitions []librdKafka.TopicPartition) []kafka.TopicPartition {
	tps := make([]kafka.TopicPartition, 0, len(partitions))
	for _, pt := range partitions {
		tps = append(tps, kafka.TopicPartition{
			Topic:     *pt.Topic,
			Partition: pt.Partition,
		})
	}

	return tps
}
