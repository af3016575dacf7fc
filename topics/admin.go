/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package topics

import (
	"context"
	"fmt"
	"time"

	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

// AdminManager creates broker topics over a connection scoped to a single call.
type AdminManager struct {
	admins            kafka.AdminBuilder
	partitions        int32
	replicationFactor int16
	configEntries     map[string]string
	logger            log.Logger
	metrics           struct {
		createLatency metrics.Observer
		createErrors  metrics.Counter
	}
}

func NewAdminManager(admins kafka.AdminBuilder, conf *Config) *AdminManager {
	conf.parse()
	m := &AdminManager{
		admins:            admins,
		partitions:        conf.Topic.Partitions,
		replicationFactor: conf.Topic.ReplicationFactor,
		configEntries:     conf.Topic.ConfigEntries,
		logger:            conf.Logger.NewLog(log.Prefixed(`AdminManager`)),
	}

	m.metrics.createLatency = conf.MetricsReporter.Observer(metrics.MetricConf{
		Path: `ktopics_admin_create_latency_microseconds`,
	})
	m.metrics.createErrors = conf.MetricsReporter.Counter(metrics.MetricConf{
		Path:   `ktopics_admin_create_error_count`,
		Labels: []string{`error`},
	})

	return m
}

// CreateTopic creates name with the configured partition count and replication factor.
// Errors match ErrConflict when the topic exists and ErrBrokerUnavailable otherwise.
// Nothing is retried.
func (m *AdminManager) CreateTopic(ctx context.Context, name string) error {
	defer func(begin time.Time) {
		m.metrics.createLatency.Observe(float64(time.Since(begin).Microseconds()), nil)
	}(time.Now())

	admin, err := m.admins(ctx)
	if err != nil {
		m.metrics.createErrors.Count(1, map[string]string{`error`: `connect`})
		return errors.Mark(errors.Wrapf(err, `admin connect failed for [%s]`, name), ErrBrokerUnavailable)
	}

	defer func() {
		if err := admin.Close(); err != nil {
			m.logger.Warn(fmt.Sprintf(`admin connection close failed: %s`, err))
		}
	}()

	err = admin.CreateTopics(ctx, []*kafka.Topic{{
		Name:              name,
		NumPartitions:     m.partitions,
		ReplicationFactor: m.replicationFactor,
		ConfigEntries:     m.configEntries,
	}})

	switch {
	case err == nil:
		m.logger.Info(fmt.Sprintf(`topic [%s] created`, name))
		return nil
	case errors.Is(err, kafka.ErrTopicExists):
		m.metrics.createErrors.Count(1, map[string]string{`error`: `conflict`})
		return errors.Mark(err, ErrConflict)
	default:
		m.metrics.createErrors.Count(1, map[string]string{`error`: `broker`})
		return errors.Mark(errors.Wrapf(err, `create topic [%s] failed`, name), ErrBrokerUnavailable)
	}
}
