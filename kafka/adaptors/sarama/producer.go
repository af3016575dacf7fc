package sarama

import (
	"context"

	"github.com/Shopify/sarama"
	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/tryfix/log"
)

type syncProducer struct {
	producer sarama.SyncProducer
	logger   log.Logger
}

// NewProducerBuilder returns a builder which dials a fresh sarama.SyncProducer on every call.
func NewProducerBuilder(bootstrapServers []string, acks kafka.RequiredAcks, options ...AdminOption) kafka.ProducerBuilder {
	opts := new(adminOptions)
	opts.apply(options...)
	logger := opts.Logger.NewLog(log.Prefixed(`Producer(sarama)`))

	return func(ctx context.Context) (kafka.Producer, error) {
		conf := opts.saramaConfig()
		conf.Producer.Return.Successes = true
		conf.Producer.RequiredAcks = sarama.RequiredAcks(acks)
		conf.Producer.Partitioner = sarama.NewHashPartitioner

		producer, err := sarama.NewSyncProducer(bootstrapServers, conf)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, `producer init failed`), kafka.ErrBrokerUnavailable)
		}

		return &syncProducer{producer: producer, logger: logger}, nil
	}
}

func (p *syncProducer) Produce(_ context.Context, topic string, key, value []byte) (kafka.Delivery, error) {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}

	if key != nil {
		msg.Key = sarama.ByteEncoder(key)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return kafka.Delivery{}, errors.Mark(errors.Wrapf(err, `produce to [%s] failed`, topic), kafka.ErrBrokerUnavailable)
	}

	return kafka.Delivery{Topic: topic, Partition: partition, Offset: offset}, nil
}

func (p *syncProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		return errors.Wrap(err, `producer close failed`)
	}

	return nil
}
