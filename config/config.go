// Package config loads the configuration of the ktopics binary.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/tryfix/log"
	"gopkg.in/yaml.v3"
)

const envPrefix = `KTOPICS_`

type Config struct {
	Http   HttpConfig   `yaml:"http"`
	Log    LogConfig    `yaml:"log"`
	Broker BrokerConfig `yaml:"broker"`
	Store  StoreConfig  `yaml:"store"`
	Topic  TopicConfig  `yaml:"topic"`
	Drain  DrainConfig  `yaml:"drain"`
}

type HttpConfig struct {
	Address     string `yaml:"address" validate:"required"`
	OwnerHeader string `yaml:"owner_header" validate:"required"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Colors bool   `yaml:"colors"`
}

type BrokerConfig struct {
	// Client selects the protocol adaptor, sarama (pure go) or librd (librdkafka).
	Client           string        `yaml:"client" validate:"oneof=sarama librd"`
	BootstrapServers []string      `yaml:"bootstrap_servers" validate:"min=1,dive,required"`
	ClientId         string        `yaml:"client_id"`
	KafkaVersion     string        `yaml:"kafka_version"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
}

type StoreConfig struct {
	Backend string `yaml:"backend" validate:"oneof=memory badger pebble"`
	Dir     string `yaml:"dir" validate:"required_unless=Backend memory"`
}

type TopicConfig struct {
	Partitions        int32             `yaml:"partitions" validate:"min=1"`
	ReplicationFactor int16             `yaml:"replication_factor" validate:"min=1"`
	ConfigEntries     map[string]string `yaml:"config_entries"`
}

type DrainConfig struct {
	Window        time.Duration `yaml:"window" validate:"gt=0"`
	BufferSize    int           `yaml:"buffer_size" validate:"min=1"`
	GroupIdPrefix string        `yaml:"group_id_prefix" validate:"required"`
}

func DefaultConfig() Config {
	return Config{
		Http: HttpConfig{
			Address:     `:8080`,
			OwnerHeader: `X-Owner-Id`,
		},
		Log: LogConfig{
			Level: `info`,
		},
		Broker: BrokerConfig{
			Client:           `sarama`,
			BootstrapServers: []string{`localhost:9092`},
			ClientId:         `ktopics`,
			KafkaVersion:     `2.4.0`,
			Timeout:          10 * time.Second,
		},
		Store: StoreConfig{
			Backend: `badger`,
			Dir:     `data`,
		},
		Topic: TopicConfig{
			Partitions:        1,
			ReplicationFactor: 1,
		},
		Drain: DrainConfig{
			Window:        5 * time.Second,
			BufferSize:    1000,
			GroupIdPrefix: `ktopics-drain`,
		},
	}
}

// Load reads the yaml file at path on top of the defaults and applies KTOPICS_* environment
// overrides, including those from a .env file in the working directory. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, `load .env failed`)
	}

	conf := DefaultConfig()
	if path != `` {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, `read config file [%s] failed`, path)
		}

		if err := yaml.Unmarshal(data, &conf); err != nil {
			return nil, errors.Wrapf(err, `parse config file [%s] failed`, path)
		}
	}

	if err := conf.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, target *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*target = v
		}
	}

	str(`HTTP_ADDRESS`, &c.Http.Address)
	str(`HTTP_OWNER_HEADER`, &c.Http.OwnerHeader)
	str(`LOG_LEVEL`, &c.Log.Level)
	str(`BROKER_CLIENT`, &c.Broker.Client)
	str(`BROKER_CLIENT_ID`, &c.Broker.ClientId)
	str(`BROKER_KAFKA_VERSION`, &c.Broker.KafkaVersion)
	str(`STORE_BACKEND`, &c.Store.Backend)
	str(`STORE_DIR`, &c.Store.Dir)
	str(`DRAIN_GROUP_ID_PREFIX`, &c.Drain.GroupIdPrefix)

	if v, ok := lookup(envPrefix + `BOOTSTRAP_SERVERS`); ok {
		c.Broker.BootstrapServers = strings.Split(v, `,`)
	}

	if v, ok := lookup(envPrefix + `DRAIN_WINDOW`); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, `invalid %sDRAIN_WINDOW`, envPrefix)
		}
		c.Drain.Window = d
	}

	if v, ok := lookup(envPrefix + `TOPIC_PARTITIONS`); ok {
		p, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return errors.Wrapf(err, `invalid %sTOPIC_PARTITIONS`, envPrefix)
		}
		c.Topic.Partitions = int32(p)
	}

	if v, ok := lookup(envPrefix + `TOPIC_REPLICATION_FACTOR`); ok {
		r, err := strconv.ParseInt(v, 10, 16)
		if err != nil {
			return errors.Wrapf(err, `invalid %sTOPIC_REPLICATION_FACTOR`, envPrefix)
		}
		c.Topic.ReplicationFactor = int16(r)
	}

	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, `invalid config`)
	}

	return nil
}

// LogLevel maps the configured level name to the logger level.
func (c LogConfig) LogLevel() log.Level {
	switch strings.ToLower(c.Level) {
	case `trace`:
		return log.TRACE
	case `debug`:
		return log.DEBUG
	case `warn`:
		return log.WARN
	case `error`:
		return log.ERROR
	default:
		return log.INFO
	}
}
