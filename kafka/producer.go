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
)

type RequiredAcks int

const (
	// NoResponse doesn't send any response, the TCP ACK is all you get.
	NoResponse RequiredAcks = 0

	// WaitForLeader waits for only the local commit to succeed before responding.
	WaitForLeader RequiredAcks = 1

	// WaitForAll waits for all in-sync replicas to commit before responding.
	WaitForAll RequiredAcks = -1
)

func (ack RequiredAcks) String() string {
	a := `NoResponse`

	if ack == WaitForLeader {
		a = `WaitForLeader`
	}

	if ack == WaitForAll {
		a = `WaitForAll`
	}

	return a
}

// Delivery is the broker acknowledgement of a produced message.
type Delivery struct {
	Topic     string `json:"topic"`
	Partition int32  `json:"partition"`
	Offset    int64  `json:"offset"`
}

func (d Delivery) String() string {
	return fmt.Sprintf(`%s[%d]@%d`, d.Topic, d.Partition, d.Offset)
}

// Producer is a single synchronous producer connection.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) (Delivery, error)
	Close() error
}

// ProducerBuilder opens a new producer connection. The caller owns the returned Producer.
type ProducerBuilder func(ctx context.Context) (Producer, error)
