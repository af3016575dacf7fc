/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package librd

import (
	"strings"
	"time"

	librdKafka "github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
)

type GroupConsumerConfig struct {
	*kafka.GroupConsumerConfig
	Librd *librdKafka.ConfigMap
	// PollTimeout bounds a single Poll call, ctx is checked between polls.
	PollTimeout time.Duration
}

func (conf *GroupConsumerConfig) copy() *GroupConsumerConfig {
	return &GroupConsumerConfig{
		GroupConsumerConfig: conf.GroupConsumerConfig.Copy(),
		Librd:               copyConfigMap(conf.Librd),
		PollTimeout:         conf.PollTimeout,
	}
}

func NewGroupConsumerConfig() *GroupConsumerConfig {
	return &GroupConsumerConfig{
		Librd:               defaultLibrdGroupConfig(),
		GroupConsumerConfig: kafka.NewConfig(),
		PollTimeout:         100 * time.Millisecond,
	}
}

func (conf *GroupConsumerConfig) setUp() error {
	offset := `earliest`
	if conf.Offsets.Initial == kafka.Latest {
		offset = `latest`
	}

	isolation := `read_committed`
	if conf.IsolationLevel == kafka.ReadUncommitted {
		isolation = `read_uncommitted`
	}

	keys := map[string]librdKafka.ConfigValue{
		`bootstrap.servers`:  strings.Join(conf.BootstrapServers, `,`),
		`group.id`:           conf.GroupId,
		`auto.offset.reset`:  offset,
		`enable.auto.commit`: conf.Offsets.Commit.Auto,
		`isolation.level`:    isolation,
	}

	if conf.Id != `` {
		keys[`client.id`] = conf.Id
	}

	for key, val := range keys {
		if err := conf.Librd.SetKey(key, val); err != nil {
			return errors.Wrapf(err, `config key %s`, key)
		}
	}

	return nil
}

func defaultLibrdGroupConfig() *librdKafka.ConfigMap {
	return &librdKafka.ConfigMap{
		"session.timeout.ms":            6000,
		"partition.assignment.strategy": "range",
		"go.logs.channel.enable":        true,
		"log_level":                     6,
	}
}

func copyConfigMap(m *librdKafka.ConfigMap) *librdKafka.ConfigMap {
	librdCopy := librdKafka.ConfigMap{}
	for key, val := range *m {
		librdCopy[key] = val
	}

	return &librdCopy
}
