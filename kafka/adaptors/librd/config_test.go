package librd

import (
	"testing"

	"github.com/gmbyapa/ktopics/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupConsumerConfig_SetUp(t *testing.T) {
	conf := NewGroupConsumerConfig()
	conf.BootstrapServers = []string{`k1:9092`, `k2:9092`}
	conf.GroupId = `ktopics-drain-1`
	conf.Id = `ktopics-drain-1`
	conf.Offsets.Initial = kafka.Earliest
	conf.Offsets.Commit.Auto = false

	require.NoError(t, conf.setUp())

	get := func(key string) interface{} {
		v, err := conf.Librd.Get(key, nil)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, `k1:9092,k2:9092`, get(`bootstrap.servers`))
	assert.Equal(t, `ktopics-drain-1`, get(`group.id`))
	assert.Equal(t, `ktopics-drain-1`, get(`client.id`))
	assert.Equal(t, `earliest`, get(`auto.offset.reset`))
	assert.Equal(t, false, get(`enable.auto.commit`))
}

func TestGroupConsumerConfig_Copy(t *testing.T) {
	base := NewGroupConsumerConfig()
	base.GroupId = `base`

	c := base.copy()
	c.GroupId = `copy`
	require.NoError(t, c.Librd.SetKey(`session.timeout.ms`, 10000))

	assert.Equal(t, `base`, base.GroupId)
	v, err := base.Librd.Get(`session.timeout.ms`, nil)
	require.NoError(t, err)
	assert.Equal(t, 6000, v)
}
