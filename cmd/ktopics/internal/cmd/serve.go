package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	saramaLib "github.com/Shopify/sarama"
	"github.com/gmbyapa/ktopics/api"
	"github.com/gmbyapa/ktopics/backend"
	"github.com/gmbyapa/ktopics/backend/badger"
	"github.com/gmbyapa/ktopics/backend/memory"
	"github.com/gmbyapa/ktopics/backend/pebble"
	"github.com/gmbyapa/ktopics/config"
	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/kafka/adaptors/librd"
	"github.com/gmbyapa/ktopics/kafka/adaptors/sarama"
	"github.com/gmbyapa/ktopics/pkg/async"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/gmbyapa/ktopics/store"
	"github.com/gmbyapa/ktopics/topics"
	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"
	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

const shutdownTimeout = 10 * time.Second

var configPath string

var serveCmd = &cobra.Command{
	Use:   `serve`,
	Short: `Run the HTTP server`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(configPath)
		if err != nil {
			return err
		}

		return serve(conf)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, `config`, `c`, ``, `path to the yaml config file`)
	rootCmd.AddCommand(serveCmd)
}

func serve(conf *config.Config) error {
	logger := log.Constructor.Log(
		log.WithLevel(conf.Log.LogLevel()),
		log.WithColors(conf.Log.Colors),
		log.WithFilePath(false),
	)

	reporter := metrics.PrometheusReporter(metrics.ReporterConf{
		System:      `ktopics`,
		ConstLabels: map[string]string{`broker_client`: conf.Broker.Client},
	})

	records, err := newBackend(conf, reporter)
	if err != nil {
		return err
	}

	recordStore := store.NewBackendStore(records, logger)
	defer func() {
		if err := recordStore.Close(); err != nil {
			logger.Error(fmt.Sprintf(`store close failed: %s`, err))
		}
	}()

	broker, err := newBroker(conf, logger, reporter)
	if err != nil {
		return err
	}

	topicsConf := topics.NewConfig()
	topicsConf.Topic.Partitions = conf.Topic.Partitions
	topicsConf.Topic.ReplicationFactor = conf.Topic.ReplicationFactor
	topicsConf.Topic.ConfigEntries = conf.Topic.ConfigEntries
	topicsConf.Drain.Window = conf.Drain.Window
	topicsConf.Drain.BufferSize = conf.Drain.BufferSize
	topicsConf.Drain.GroupIdPrefix = conf.Drain.GroupIdPrefix
	topicsConf.Logger = logger
	topicsConf.MetricsReporter = reporter

	service := topics.NewService(recordStore, broker, topicsConf)
	router := api.MakeHandler(service, api.HeaderOwnerResolver{Header: conf.Http.OwnerHeader}, logger)

	server := &http.Server{
		Addr:              conf.Http.Address,
		Handler:           handlers.CombinedLoggingHandler(os.Stdout, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group := async.NewRunGroup(logger)
	group.Add(async.Signals(os.Interrupt, syscall.SIGTERM))
	group.Add(func(opts *async.Opts) error {
		listener, err := net.Listen(`tcp`, server.Addr)
		if err != nil {
			return errors.Wrapf(err, `listen on %s failed`, server.Addr)
		}

		opts.Ready()
		logger.Info(fmt.Sprintf(`Http server started on %s`, listener.Addr()))

		served := make(chan error, 1)
		go func() {
			served <- server.Serve(listener)
		}()

		select {
		case err := <-served:
			return errors.Wrap(err, `http server stopped`)
		case <-opts.Stopping():
		}

		// in flight drains hold a request for up to a full window
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout+conf.Drain.Window)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return errors.Wrap(err, `http server shutdown failed`)
		}

		return nil
	})

	err = group.Run()
	if errors.Is(err, async.ErrInterrupted) {
		return nil
	}

	return err
}

func newBackend(conf *config.Config, reporter metrics.Reporter) (backend.Backend, error) {
	switch conf.Store.Backend {
	case `memory`:
		memConf := memory.NewConfig()
		memConf.MetricsReporter = reporter
		return memory.NewMemoryBackend(`records`, memConf), nil
	case `badger`:
		badgerConf := badger.NewConfig()
		badgerConf.StorageDir = conf.Store.Dir
		badgerConf.MetricsReporter = reporter
		return badger.NewBadgerBackend(`records`, badgerConf)
	case `pebble`:
		pebbleConf := pebble.NewConfig()
		pebbleConf.Dir = conf.Store.Dir
		pebbleConf.MetricsReporter = reporter
		return pebble.NewPebbleBackend(`records`, pebbleConf)
	default:
		return nil, errors.Errorf(`unknown store backend %s`, conf.Store.Backend)
	}
}

func newBroker(conf *config.Config, logger log.Logger, reporter metrics.Reporter) (topics.Broker, error) {
	servers := conf.Broker.BootstrapServers

	switch conf.Broker.Client {
	case `sarama`:
		version := saramaLib.V2_4_0_0
		if conf.Broker.KafkaVersion != `` {
			v, err := saramaLib.ParseKafkaVersion(conf.Broker.KafkaVersion)
			if err != nil {
				return topics.Broker{}, errors.Wrapf(err, `invalid kafka version %s`, conf.Broker.KafkaVersion)
			}
			version = v
		}

		opts := []sarama.AdminOption{
			sarama.WithKafkaVersion(version),
			sarama.WithTimeout(conf.Broker.Timeout),
			sarama.WithClientId(conf.Broker.ClientId),
			sarama.WithLogger(logger),
			sarama.WithMetricsReporter(reporter),
		}

		consumerConf := kafka.NewConfig()
		consumerConf.BootstrapServers = servers
		consumerConf.Logger = logger
		consumerConf.MetricsReporter = reporter

		return topics.Broker{
			Admin:    sarama.NewAdminBuilder(servers, opts...),
			Consumer: sarama.NewGroupConsumerBuilder(consumerConf, opts...),
			Producer: sarama.NewProducerBuilder(servers, kafka.WaitForAll, opts...),
		}, nil

	case `librd`:
		opts := []librd.AdminOption{
			librd.WithTimeout(conf.Broker.Timeout),
			librd.WithLogger(logger),
		}

		consumerConf := librd.NewGroupConsumerConfig()
		consumerConf.BootstrapServers = servers
		consumerConf.Logger = logger
		consumerConf.MetricsReporter = reporter

		return topics.Broker{
			Admin:    librd.NewAdminBuilder(servers, opts...),
			Consumer: librd.NewGroupConsumerBuilder(consumerConf),
			Producer: librd.NewProducerBuilder(servers, kafka.WaitForAll, opts...),
		}, nil

	default:
		return topics.Broker{}, errors.Errorf(`unknown broker client %s`, conf.Broker.Client)
	}
}
