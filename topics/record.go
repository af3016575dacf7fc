package topics

import (
	"time"

	"github.com/gmbyapa/ktopics/kafka"
)

// TopicRecord is the ownership record of a broker topic.
type TopicRecord struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerId   string    `json:"ownerId"`
	ShortName string    `json:"shortName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a record observed during a drain window.
type Message struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func newMessage(record kafka.Record) Message {
	return Message{
		Key:   string(record.Key()),
		Value: string(record.Value()),
	}
}

type TopicMessages struct {
	Record   *TopicRecord
	Messages []Message
}
