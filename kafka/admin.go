/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package kafka

import (
	"context"

	"github.com/gmbyapa/ktopics/pkg/errors"
)

var (
	// ErrTopicExists is matched by errors returned when the broker already hosts the topic.
	ErrTopicExists = errors.Sentinel(`topic already exists`)
	// ErrBrokerUnavailable is matched by connection and protocol level failures.
	ErrBrokerUnavailable = errors.Sentinel(`broker unavailable`)
)

type Topic struct {
	Name              string
	NumPartitions     int32
	ReplicationFactor int16
	ConfigEntries     map[string]string
}

// Admin is a single administrative connection to the cluster.
type Admin interface {
	CreateTopics(ctx context.Context, topics []*Topic) error
	Close() error
}

// AdminBuilder opens a new administrative connection. The caller owns the returned Admin
// and must Close it.
type AdminBuilder func(ctx context.Context) (Admin, error)
