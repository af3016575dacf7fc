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

// Service exposes the owner scoped topic operations. It keeps no broker connection or
// record between calls.
type Service struct {
	store     Store
	admin     *AdminManager
	drain     *DrainController
	producers kafka.ProducerBuilder
	logger    log.Logger
	metrics   struct {
		operations metrics.Counter
	}
}

func NewService(store Store, broker Broker, conf *Config) *Service {
	conf.parse()
	s := &Service{
		store:     store,
		admin:     NewAdminManager(broker.Admin, conf),
		drain:     NewDrainController(broker.Consumer, conf),
		producers: broker.Producer,
		logger:    conf.Logger.NewLog(log.Prefixed(`Topics`)),
	}

	s.metrics.operations = conf.MetricsReporter.Counter(metrics.MetricConf{
		Path:   `ktopics_operation_count`,
		Labels: []string{`operation`, `status`},
	})

	return s
}

func (s *Service) count(operation string, err error) {
	status := `ok`
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		status = `invalid`
	case errors.Is(err, ErrConflict):
		status = `conflict`
	case errors.Is(err, ErrNotFound):
		status = `not_found`
	case errors.Is(err, ErrBrokerUnavailable):
		status = `broker_unavailable`
	default:
		status = `error`
	}

	s.metrics.operations.Count(1, map[string]string{`operation`: operation, `status`: status})
}

// Create creates the owner's topic on the broker and then persists its ownership record.
// No record is written unless the broker created the topic.
func (s *Service) Create(ctx context.Context, ownerId, shortName string) (record *TopicRecord, err error) {
	defer func() { s.count(`create`, err) }()

	if ownerId == `` || shortName == `` {
		return nil, errors.Wrap(ErrValidation, `owner and topic name are required`)
	}

	name := Resolve(ownerId, shortName)
	if err := ValidateTopicName(name); err != nil {
		return nil, err
	}

	if err := s.admin.CreateTopic(ctx, name); err != nil {
		return nil, err
	}

	record, err = s.store.Save(ctx, &TopicRecord{
		Name:      name,
		OwnerId:   ownerId,
		ShortName: shortName,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error(fmt.Sprintf(`topic [%s] exists on the broker but its record was not saved: %s`, name, err))
		return nil, errors.Wrapf(err, `save record for [%s] failed`, name)
	}

	return record, nil
}

// List returns every record owned by ownerId in store order.
func (s *Service) List(ctx context.Context, ownerId string) (records []*TopicRecord, err error) {
	defer func() { s.count(`list`, err) }()

	records, err = s.store.FindAllByOwner(ctx, ownerId)
	if err != nil {
		return nil, errors.Wrap(err, `list records failed`)
	}

	if records == nil {
		records = make([]*TopicRecord, 0)
	}

	return records, nil
}

// GetWithMessages returns the owner's record together with a drained snapshot of its topic.
// A record owned by someone else is reported exactly like a missing one.
func (s *Service) GetWithMessages(ctx context.Context, ownerId, recordId string) (result *TopicMessages, err error) {
	defer func() { s.count(`get`, err) }()

	record, err := s.find(ctx, ownerId, recordId)
	if err != nil {
		return nil, err
	}

	messages, err := s.drain.Drain(ctx, record.Name)
	if err != nil {
		return nil, err
	}

	return &TopicMessages{Record: record, Messages: messages}, nil
}

// Publish writes a single message to the owner's topic over a producer connection scoped to the call.
func (s *Service) Publish(ctx context.Context, ownerId, recordId string, key, value []byte) (delivery kafka.Delivery, err error) {
	defer func() { s.count(`publish`, err) }()

	record, err := s.find(ctx, ownerId, recordId)
	if err != nil {
		return kafka.Delivery{}, err
	}

	producer, err := s.producers(ctx)
	if err != nil {
		return kafka.Delivery{}, errors.Mark(errors.Wrapf(err, `producer connect failed for [%s]`, record.Name), ErrBrokerUnavailable)
	}

	defer func() {
		if err := producer.Close(); err != nil {
			s.logger.Warn(fmt.Sprintf(`producer close failed: %s`, err))
		}
	}()

	delivery, err = producer.Produce(ctx, record.Name, key, value)
	if err != nil {
		return kafka.Delivery{}, errors.Mark(err, ErrBrokerUnavailable)
	}

	return delivery, nil
}

func (s *Service) find(ctx context.Context, ownerId, recordId string) (*TopicRecord, error) {
	if ownerId == `` || recordId == `` {
		return nil, ErrNotFound
	}

	record, err := s.store.FindOne(ctx, Query{Id: recordId, OwnerId: ownerId})
	if err != nil {
		return nil, errors.Wrap(err, `find record failed`)
	}

	if record == nil {
		return nil, ErrNotFound
	}

	return record, nil
}
