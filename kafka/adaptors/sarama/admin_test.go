package sarama

import (
	"context"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_CreateTopics(t *testing.T) {
	broker := sarama.NewMockBroker(t, 1)
	defer broker.Close()

	broker.SetHandlerByMap(map[string]sarama.MockResponse{
		`MetadataRequest`: sarama.NewMockMetadataResponse(t).
			SetController(broker.BrokerID()).
			SetBroker(broker.Addr(), broker.BrokerID()),
		`CreateTopicsRequest`: sarama.NewMockCreateTopicsResponse(t),
	})

	builder := NewAdminBuilder([]string{broker.Addr()}, WithKafkaVersion(sarama.V0_10_2_0), WithTimeout(time.Second))
	admin, err := builder(context.Background())
	require.NoError(t, err)
	defer admin.Close()

	err = admin.CreateTopics(context.Background(), []*kafka.Topic{{
		Name:              `u1-orders`,
		NumPartitions:     1,
		ReplicationFactor: 1,
		ConfigEntries:     map[string]string{`retention.ms`: `3600000`},
	}})
	assert.NoError(t, err)
}

func TestAdmin_ConnectFailure(t *testing.T) {
	builder := NewAdminBuilder([]string{`127.0.0.1:1`}, WithTimeout(200*time.Millisecond))

	_, err := builder(context.Background())
	assert.True(t, errors.Is(err, kafka.ErrBrokerUnavailable))
}

func TestAdminOptions(t *testing.T) {
	opts := new(adminOptions)
	opts.apply(WithClientId(`svc`), WithTimeout(3*time.Second), WithKafkaVersion(sarama.V2_8_0_0))

	conf := opts.saramaConfig()
	assert.Equal(t, `svc`, conf.ClientID)
	assert.Equal(t, 3*time.Second, conf.Admin.Timeout)
	assert.Equal(t, sarama.V2_8_0_0, conf.Version)
	assert.NoError(t, conf.Validate())
}
