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

type adminOptions struct {
	Timeout time.Duration
	Logger  log.Logger
}

func (opts *adminOptions) apply(options ...AdminOption) {
	opts.Logger = log.NewNoopLogger()
	opts.Timeout = 10 * time.Second
	for _, opt := range options {
		opt(opts)
	}
}

type AdminOption func(*adminOptions)

func WithLogger(logger log.Logger) AdminOption {
	return func(options *adminOptions) {
		options.Logger = logger
	}
}

func WithTimeout(duration time.Duration) AdminOption {
	return func(options *adminOptions) {
		options.Timeout = duration
	}
}

type kAdmin struct {
	admin   *librdKafka.AdminClient
	logger  log.Logger
	timeout time.Duration
}

// NewAdminBuilder returns a builder which creates a fresh librdkafka admin client on every call.
func NewAdminBuilder(bootstrapServers []string, options ...AdminOption) kafka.AdminBuilder {
	opts := new(adminOptions)
	opts.apply(options...)
	logger := opts.Logger.NewLog(log.Prefixed(`kafka-admin`))

	return func(ctx context.Context) (kafka.Admin, error) {
		admin, err := librdKafka.NewAdminClient(&librdKafka.ConfigMap{
			`bootstrap.servers`: strings.Join(bootstrapServers, `,`),
		})
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, `admin client failed`), kafka.ErrBrokerUnavailable)
		}

		return &kAdmin{
			admin:   admin,
			logger:  logger,
			timeout: opts.Timeout,
		}, nil
	}
}

func (a *kAdmin) CreateTopics(ctx context.Context, topics []*kafka.Topic) error {
	var specifications []librdKafka.TopicSpecification
	for _, info := range topics {
		specifications = append(specifications, librdKafka.TopicSpecification{
			Topic:             info.Name,
			NumPartitions:     int(info.NumPartitions),
			ReplicationFactor: int(info.ReplicationFactor),
			Config:            info.ConfigEntries,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.admin.CreateTopics(ctx, specifications, librdKafka.SetAdminOperationTimeout(a.timeout))
	if err != nil {
		return errors.Mark(errors.Wrapf(err, `could not create topics [%d]`, len(topics)), kafka.ErrBrokerUnavailable)
	}

	for _, res := range result {
		switch res.Error.Code() {
		case librdKafka.ErrNoError:
			a.logger.Info(fmt.Sprintf(`topic [%s] created`, res.Topic))
		case librdKafka.ErrTopicAlreadyExists:
			return errors.Mark(res.Error, kafka.ErrTopicExists)
		case librdKafka.ErrTransport, librdKafka.ErrAllBrokersDown, librdKafka.ErrTimedOut:
			return errors.Mark(errors.Wrapf(res.Error, `topic create failed for [%s]`, res.Topic), kafka.ErrBrokerUnavailable)
		default:
			return errors.Wrapf(res.Error, `topic create error response for [%s]`, res.Topic)
		}
	}

	return nil
}

func (a *kAdmin) Close() error {
	a.admin.Close()
	return nil
}
