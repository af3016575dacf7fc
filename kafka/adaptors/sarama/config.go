/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package sarama

import (
	"time"

	"github.com/Shopify/sarama"
	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

type adminOptions struct {
	KafkaVersion    sarama.KafkaVersion
	Timeout         time.Duration
	ClientId        string
	Logger          log.Logger
	MetricsReporter metrics.Reporter
}

func (opts *adminOptions) apply(options ...AdminOption) {
	opts.KafkaVersion = sarama.V2_4_0_0
	opts.Timeout = 20 * time.Second
	opts.ClientId = `ktopics`
	opts.Logger = log.NewNoopLogger()
	opts.MetricsReporter = metrics.NoopReporter()
	for _, opt := range options {
		opt(opts)
	}
}

// AdminOption configures sarama backed admin, consumer and producer connections.
type AdminOption func(*adminOptions)

func WithKafkaVersion(version sarama.KafkaVersion) AdminOption {
	return func(options *adminOptions) {
		options.KafkaVersion = version
	}
}

func WithTimeout(timeout time.Duration) AdminOption {
	return func(options *adminOptions) {
		options.Timeout = timeout
	}
}

func WithClientId(id string) AdminOption {
	return func(options *adminOptions) {
		options.ClientId = id
	}
}

func WithLogger(logger log.Logger) AdminOption {
	return func(options *adminOptions) {
		options.Logger = logger
	}
}

func WithMetricsReporter(reporter metrics.Reporter) AdminOption {
	return func(options *adminOptions) {
		options.MetricsReporter = reporter
	}
}

func (opts *adminOptions) saramaConfig() *sarama.Config {
	conf := sarama.NewConfig()
	conf.Version = opts.KafkaVersion
	conf.ClientID = opts.ClientId
	conf.Admin.Timeout = opts.Timeout
	conf.Net.DialTimeout = opts.Timeout
	conf.Metadata.Retry.Max = 1

	return conf
}
