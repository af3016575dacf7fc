package sarama

import (
	"time"

	"github.com/Shopify/sarama"
	"github.com/gmbyapa/ktopics/kafka"
)

type Record struct {
	msg *sarama.ConsumerMessage
}

func (r *Record) Key() []byte {
	return r.msg.Key
}

func (r *Record) Value() []byte {
	return r.msg.Value
}

func (r *Record) Topic() string {
	return r.msg.Topic
}

func (r *Record) Partition() int32 {
	return r.msg.Partition
}

func (r *Record) Offset() int64 {
	return r.msg.Offset
}

func (r *Record) Timestamp() time.Time {
	return r.msg.Timestamp
}

func (r *Record) Headers() kafka.RecordHeaders {
	headers := make(kafka.RecordHeaders, 0, len(r.msg.Headers))
	for _, h := range r.msg.Headers {
		if h == nil {
			continue
		}
		headers = append(headers, kafka.RecordHeader{
			Key:   h.Key,
			Value: h.Value,
		})
	}

	return headers
}

func (r *Record) String() string {
	return kafka.RecordString(r)
}
