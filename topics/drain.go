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
	"sync"
	"time"

	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/google/uuid"
	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

type DrainState int

const (
	StateIdle DrainState = iota
	StateConnecting
	StateSubscribed
	StateDraining
	StateTerminated
)

func (s DrainState) String() string {
	switch s {
	case StateIdle:
		return `Idle`
	case StateConnecting:
		return `Connecting`
	case StateSubscribed:
		return `Subscribed`
	case StateDraining:
		return `Draining`
	case StateTerminated:
		return `Terminated`
	default:
		return fmt.Sprintf(`DrainState(%d)`, int(s))
	}
}

// DrainController reads a time bounded snapshot of a topic's full history. Every Drain call
// runs its own consumer group session which is released before the call returns.
type DrainController struct {
	consumers     kafka.GroupConsumerBuilder
	window        time.Duration
	bufferSize    int
	groupIdPrefix string
	logger        log.Logger

	// onTransition is called on every state change of every session.
	onTransition func(topic string, from, to DrainState)

	metrics struct {
		drainLatency metrics.Observer
		messages     metrics.Counter
		failures     metrics.Counter
	}
}

func NewDrainController(consumers kafka.GroupConsumerBuilder, conf *Config) *DrainController {
	conf.parse()
	d := &DrainController{
		consumers:     consumers,
		window:        conf.Drain.Window,
		bufferSize:    conf.Drain.BufferSize,
		groupIdPrefix: conf.Drain.GroupIdPrefix,
		logger:        conf.Logger.NewLog(log.Prefixed(`DrainController`)),
	}

	d.metrics.drainLatency = conf.MetricsReporter.Observer(metrics.MetricConf{
		Path: `ktopics_drain_latency_microseconds`,
	})
	d.metrics.messages = conf.MetricsReporter.Counter(metrics.MetricConf{
		Path: `ktopics_drain_message_count`,
	})
	d.metrics.failures = conf.MetricsReporter.Counter(metrics.MetricConf{
		Path: `ktopics_drain_failure_count`,
	})

	return d
}

// Drain subscribes to topic from the earliest offset and returns every message delivered within
// the configured window. The window is always waited out and ctx cancellation is ignored once
// the call started. Errors match ErrBrokerUnavailable.
func (d *DrainController) Drain(ctx context.Context, topic string) ([]Message, error) {
	groupId := fmt.Sprintf(`%s-%s`, d.groupIdPrefix, uuid.New())
	s := &drainSession{
		controller: d,
		topic:      topic,
		groupId:    groupId,
		state:      StateIdle,
		logger:     d.logger.NewLog(log.Prefixed(groupId)),
	}

	defer func(begin time.Time) {
		d.metrics.drainLatency.Observe(float64(time.Since(begin).Microseconds()), nil)
	}(time.Now())

	messages, err := s.run(context.WithoutCancel(ctx))
	if err != nil {
		d.metrics.failures.Count(1, nil)
		return nil, err
	}

	d.metrics.messages.Count(float64(len(messages)), nil)

	return messages, nil
}

type drainSession struct {
	controller *DrainController
	topic      string
	groupId    string
	state      DrainState
	logger     log.Logger
}

func (s *drainSession) transition(to DrainState) {
	from := s.state
	s.state = to
	s.logger.Debug(fmt.Sprintf(`[%s] %s -> %s`, s.topic, from, to))

	if s.controller.onTransition != nil {
		s.controller.onTransition(s.topic, from, to)
	}
}

func (s *drainSession) run(ctx context.Context) ([]Message, error) {
	s.transition(StateConnecting)
	consumer, err := s.controller.consumers(func(conf *kafka.GroupConsumerConfig) {
		conf.Id = s.groupId
		conf.GroupId = s.groupId
		conf.Offsets.Initial = kafka.Earliest
		conf.Offsets.Commit.Auto = false
	})
	if err != nil {
		s.transition(StateTerminated)
		return nil, errors.Mark(errors.Wrapf(err, `consumer connect failed for [%s]`, s.topic), ErrBrokerUnavailable)
	}

	defer func() {
		s.transition(StateTerminated)
		if err := consumer.Close(); err != nil {
			s.logger.Warn(fmt.Sprintf(`consumer close failed: %s`, err))
		}
	}()

	sessionCtx, stop := context.WithCancel(ctx)
	defer stop()

	handler := &drainHandler{
		records:  make(chan kafka.Record, s.controller.bufferSize),
		assigned: make(chan struct{}),
		stopping: sessionCtx.Done(),
	}

	consumed := make(chan error, 1)
	go func(done chan<- error) {
		done <- consumer.Consume(sessionCtx, []string{s.topic}, handler)
	}(consumed)
	s.transition(StateSubscribed)

	window := time.NewTimer(s.controller.window)
	defer window.Stop()

	messages := make([]Message, 0)
	assigned := handler.assigned
	exited := false

	for {
		select {
		case <-assigned:
			assigned = nil
			s.transition(StateDraining)

		case record := <-handler.records:
			messages = append(messages, newMessage(record))

		case err := <-consumed:
			exited = true
			consumed = nil
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, `consume failed for [%s]`, s.topic), ErrBrokerUnavailable)
			}

		case <-window.C:
			stop()
			if !exited {
				if err := <-consumed; err != nil {
					s.logger.Warn(fmt.Sprintf(`consumer stopped with error after the window: %s`, err))
				}
			}

			// the consumer has returned, whatever is buffered was delivered within the window
			for {
				select {
				case record := <-handler.records:
					messages = append(messages, newMessage(record))
				default:
					return messages, nil
				}
			}
		}
	}
}

type drainHandler struct {
	records      chan kafka.Record
	assigned     chan struct{}
	assignedOnce sync.Once
	stopping     <-chan struct{}
}

func (h *drainHandler) OnPartitionAssigned(_ context.Context, _ []kafka.TopicPartition) error {
	h.assignedOnce.Do(func() {
		close(h.assigned)
	})

	return nil
}

func (h *drainHandler) OnPartitionRevoked(context.Context, []kafka.TopicPartition) error {
	return nil
}

func (h *drainHandler) OnRecord(_ context.Context, record kafka.Record) error {
	select {
	case h.records <- record:
		return nil
	case <-h.stopping:
		return nil
	}
}
