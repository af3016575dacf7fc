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
	"strings"
	"time"

	librdKafka "github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/tryfix/log"
)

type librdProducer struct {
	baseProducer *librdKafka.Producer
	logger       log.Logger
	flushTimeout time.Duration
}

// NewProducerBuilder returns a builder which creates a fresh librdkafka producer on every call.
func NewProducerBuilder(bootstrapServers []string, acks kafka.RequiredAcks, options ...AdminOption) kafka.ProducerBuilder {
	opts := new(adminOptions)
	opts.apply(options...)
	logger := opts.Logger.NewLog(log.Prefixed(`Producer(librdkafka)`))

	return func(ctx context.Context) (kafka.Producer, error) {
		producer, err := librdKafka.NewProducer(&librdKafka.ConfigMap{
			`bootstrap.servers`:  strings.Join(bootstrapServers, `,`),
			`acks`:               int(acks),
			`message.timeout.ms`: int(opts.Timeout.Milliseconds()),
		})
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, `producer init failed`), kafka.ErrBrokerUnavailable)
		}

		return &librdProducer{
			baseProducer: producer,
			logger:       logger,
			flushTimeout: opts.Timeout,
		}, nil
	}
}

func (p *librdProducer) Produce(ctx context.Context, topic string, key, value []byte) (kafka.Delivery, error) {
	deliveries := make(chan librdKafka.Event, 1)
	err := p.baseProducer.Produce(&librdKafka.Message{
		TopicPartition: librdKafka.TopicPartition{
			Topic:     &topic,
			Partition: librdKafka.PartitionAny,
		},
		Key:   key,
		Value: value,
	}, deliveries)
	if err != nil {
		return kafka.Delivery{}, errors.Mark(errors.Wrapf(err, `produce to [%s] failed`, topic), kafka.ErrBrokerUnavailable)
	}

	select {
	case <-ctx.Done():
		return kafka.Delivery{}, errors.Wrap(ctx.Err(), `delivery report not received`)
	case ev := <-deliveries:
		msg, ok := ev.(*librdKafka.Message)
		if !ok {
			return kafka.Delivery{}, errors.Errorf(`unexpected delivery event %s`, ev)
		}

		if msg.TopicPartition.Error != nil {
			return kafka.Delivery{}, errors.Mark(errors.Wrapf(msg.TopicPartition.Error, `delivery to [%s] failed`, topic), kafka.ErrBrokerUnavailable)
		}

		d := kafka.Delivery{
			Topic:     topic,
			Partition: msg.TopicPartition.Partition,
			Offset:    int64(msg.TopicPartition.Offset),
		}
		p.logger.Debug(fmt.Sprintf(`message delivered to %s`, d))

		return d, nil
	}
}

func (p *librdProducer) Close() error {
	if remaining := p.baseProducer.Flush(int(p.flushTimeout.Milliseconds())); remaining > 0 {
		p.logger.Warn(fmt.Sprintf(`%d messages not flushed before close`, remaining))
	}
	p.baseProducer.Close()

	return nil
}
