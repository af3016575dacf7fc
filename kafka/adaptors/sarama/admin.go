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

	"github.com/Shopify/sarama"
	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/tryfix/log"
)

type kAdmin struct {
	admin  sarama.ClusterAdmin
	logger log.Logger
}

// NewAdminBuilder returns a builder which dials a fresh sarama.ClusterAdmin on every call.
func NewAdminBuilder(bootstrapServers []string, options ...AdminOption) kafka.AdminBuilder {
	opts := new(adminOptions)
	opts.apply(options...)
	logger := opts.Logger.NewLog(log.Prefixed(`kafka-admin`))

	return func(ctx context.Context) (kafka.Admin, error) {
		return NewAdmin(bootstrapServers, opts.saramaConfig(), logger)
	}
}

func NewAdmin(bootstrapServers []string, conf *sarama.Config, logger log.Logger) (kafka.Admin, error) {
	admin, err := sarama.NewClusterAdmin(bootstrapServers, conf)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, `admin client failed`), kafka.ErrBrokerUnavailable)
	}

	return &kAdmin{
		admin:  admin,
		logger: logger,
	}, nil
}

func (a *kAdmin) CreateTopics(_ context.Context, topics []*kafka.Topic) error {
	for _, info := range topics {
		details := &sarama.TopicDetail{
			NumPartitions:     info.NumPartitions,
			ReplicationFactor: info.ReplicationFactor,
			ConfigEntries:     map[string]*string{},
		}

		for cName := range info.ConfigEntries {
			conf := info.ConfigEntries[cName]
			details.ConfigEntries[cName] = &conf
		}

		err := a.admin.CreateTopic(info.Name, details, false)
		if err != nil {
			var topicErr *sarama.TopicError
			if errors.As(err, &topicErr) {
				if topicErr.Err == sarama.ErrTopicAlreadyExists {
					return errors.Mark(err, kafka.ErrTopicExists)
				}

				return errors.Wrapf(err, `could not create topic [%s]`, info.Name)
			}

			return errors.Mark(errors.Wrapf(err, `could not create topic [%s]`, info.Name), kafka.ErrBrokerUnavailable)
		}

		a.logger.Info(fmt.Sprintf(`topic [%s] created`, info.Name))
	}

	return nil
}

func (a *kAdmin) Close() error {
	if err := a.admin.Close(); err != nil {
		return errors.Wrap(err, `admin close failed`)
	}

	return nil
}
