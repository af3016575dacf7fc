package topics

import (
	"time"

	"github.com/gmbyapa/ktopics/kafka"
	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

type Config struct {
	Topic struct {
		Partitions        int32
		ReplicationFactor int16
		ConfigEntries     map[string]string
	}
	Drain struct {
		// Window is how long every drain waits for messages, it is never shortened.
		Window        time.Duration
		BufferSize    int
		GroupIdPrefix string
	}

	Logger          log.Logger
	MetricsReporter metrics.Reporter
}

func NewConfig() *Config {
	conf := new(Config)
	conf.Topic.Partitions = 1
	conf.Topic.ReplicationFactor = 1
	conf.Drain.Window = 5 * time.Second
	conf.Drain.BufferSize = 1000
	conf.Drain.GroupIdPrefix = `ktopics-drain`
	conf.parse()

	return conf
}

func (c *Config) parse() {
	if c.Logger == nil {
		c.Logger = log.NewNoopLogger()
	}

	if c.MetricsReporter == nil {
		c.MetricsReporter = metrics.NoopReporter()
	}

	if c.Drain.BufferSize < 1 {
		c.Drain.BufferSize = 1
	}
}

// Broker holds the connection builders of the cluster every topic lives on.
type Broker struct {
	Admin    kafka.AdminBuilder
	Consumer kafka.GroupConsumerBuilder
	Producer kafka.ProducerBuilder
}
