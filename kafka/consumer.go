/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

type Offset int64

const (
	Earliest Offset = -2
	Latest   Offset = -1
)

func (o Offset) String() string {
	switch o {
	case -2:
		return `Earliest`
	case -1:
		return `Latest`
	default:
		return fmt.Sprint(int(o))
	}
}

type IsolationLevel int8

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
)

// GroupHandler receives the lifecycle events of a consumer group session.
type GroupHandler interface {
	OnPartitionAssigned(ctx context.Context, tps []TopicPartition) error
	OnPartitionRevoked(ctx context.Context, tps []TopicPartition) error
	// OnRecord is called for every record in partition order. Returning an error ends the session.
	OnRecord(ctx context.Context, record Record) error
}

// GroupConsumer is a single consumer group member.
type GroupConsumer interface {
	// Consume joins the group, subscribes to topics and blocks until ctx is done or the session fails.
	// A cancelled ctx is not an error.
	Consume(ctx context.Context, topics []string, handler GroupHandler) error
	Close() error
}

type GroupConsumerConfig struct {
	Id               string
	BootstrapServers []string
	GroupId          string
	IsolationLevel   IsolationLevel
	Offsets          struct {
		Initial Offset
		Commit  struct {
			Auto     bool
			Interval time.Duration
		}
	}

	Logger          log.Logger
	MetricsReporter metrics.Reporter
}

func NewConfig() *GroupConsumerConfig {
	conf := &GroupConsumerConfig{
		IsolationLevel:  ReadCommitted,
		Logger:          log.NewNoopLogger(),
		MetricsReporter: metrics.NoopReporter(),
	}
	conf.Offsets.Initial = Earliest
	conf.Offsets.Commit.Interval = 1 * time.Second

	return conf
}

func (conf *GroupConsumerConfig) Copy() *GroupConsumerConfig {
	cp := *conf
	cp.BootstrapServers = append([]string(nil), conf.BootstrapServers...)

	return &cp
}

// GroupConsumerBuilder creates a new group consumer from a copy of the builder's base config.
type GroupConsumerBuilder func(configure func(*GroupConsumerConfig)) (GroupConsumer, error)
