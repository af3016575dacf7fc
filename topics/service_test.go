package topics_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/gmbyapa/ktopics/backend/memory"
	"github.com/gmbyapa/ktopics/kafka/mocks"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/gmbyapa/ktopics/store"
	"github.com/gmbyapa/ktopics/topics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cluster *mocks.Cluster
	store   *store.BackendStore
	service *topics.Service
}

func newFixture() *fixture {
	cluster := mocks.NewCluster()
	st := store.NewBackendStore(memory.NewMemoryBackend(`records`, memory.NewConfig()), nil)

	conf := topics.NewConfig()
	conf.Drain.Window = 100 * time.Millisecond

	return &fixture{
		cluster: cluster,
		store:   st,
		service: topics.NewService(st, topics.Broker{
			Admin:    cluster.AdminBuilder(),
			Consumer: cluster.GroupConsumerBuilder(),
			Producer: cluster.ProducerBuilder(),
		}, conf),
	}
}

func TestService_EndToEnd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	record, err := f.service.Create(ctx, `u1`, `orders`)
	require.NoError(t, err)
	assert.Equal(t, `u1-orders`, record.Name)
	assert.Equal(t, `u1`, record.OwnerId)
	assert.Equal(t, `orders`, record.ShortName)
	assert.NotEmpty(t, record.Id)
	assert.False(t, record.CreatedAt.IsZero())

	for _, m := range []string{`m1`, `m2`, `m3`} {
		_, err := f.service.Publish(ctx, `u1`, record.Id, nil, []byte(m))
		require.NoError(t, err)
	}

	result, err := f.service.GetWithMessages(ctx, `u1`, record.Id)
	require.NoError(t, err)
	assert.Equal(t, `u1-orders`, result.Record.Name)
	require.Len(t, result.Messages, 3)
	for i, m := range []string{`m1`, `m2`, `m3`} {
		assert.Equal(t, m, result.Messages[i].Value)
	}

	_, err = f.service.GetWithMessages(ctx, `u2`, record.Id)
	assert.True(t, errors.Is(err, topics.ErrNotFound))

	assert.Equal(t, int64(0), f.cluster.OpenConnections())
}

func TestService_Create_SameShortNameDifferentOwners(t *testing.T) {
	f := newFixture()

	r1, err := f.service.Create(context.Background(), `u1`, `orders`)
	require.NoError(t, err)
	r2, err := f.service.Create(context.Background(), `u2`, `orders`)
	require.NoError(t, err)

	assert.NotEqual(t, r1.Name, r2.Name)
	assert.ElementsMatch(t, []string{`u1-orders`, `u2-orders`}, f.cluster.Topics.Names())
}

func TestService_Create_Conflict(t *testing.T) {
	f := newFixture()

	_, err := f.service.Create(context.Background(), `u1`, `orders`)
	require.NoError(t, err)

	_, err = f.service.Create(context.Background(), `u1`, `orders`)
	assert.True(t, errors.Is(err, topics.ErrConflict))

	records, err := f.service.List(context.Background(), `u1`)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestService_Create_CrossOwnerCollision(t *testing.T) {
	f := newFixture()

	_, err := f.service.Create(context.Background(), `u1`, `a-b`)
	require.NoError(t, err)

	_, err = f.service.Create(context.Background(), `u1-a`, `b`)
	assert.True(t, errors.Is(err, topics.ErrConflict))

	records, err := f.service.List(context.Background(), `u1-a`)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestService_Create_Concurrent(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Create(context.Background(), `u1`, `orders`)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var created, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, topics.ErrConflict):
			conflicts++
		}
	}

	assert.Equal(t, 1, created)
	assert.Equal(t, 9, conflicts)

	records, err := f.service.List(context.Background(), `u1`)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestService_Create_BrokerUnavailable(t *testing.T) {
	f := newFixture()
	f.cluster.SetAvailable(false)

	_, err := f.service.Create(context.Background(), `u1`, `orders`)
	assert.True(t, errors.Is(err, topics.ErrBrokerUnavailable))

	records, err := f.service.List(context.Background(), `u1`)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int64(0), f.cluster.OpenConnections())
}

func TestService_Create_Invalid(t *testing.T) {
	f := newFixture()

	cases := []struct{ owner, name string }{
		{``, `orders`},
		{`u1`, ``},
		{`u1`, `my orders`},
		{`u1`, `orders/2`},
	}

	for _, c := range cases {
		_, err := f.service.Create(context.Background(), c.owner, c.name)
		assert.True(t, errors.Is(err, topics.ErrValidation), fmt.Sprintf(`%q %q`, c.owner, c.name))
	}

	assert.Empty(t, f.cluster.Topics.Names())
}

func TestService_List(t *testing.T) {
	f := newFixture()

	owner := faker.Username()
	for i := 0; i < 3; i++ {
		_, err := f.service.Create(context.Background(), owner, fmt.Sprintf(`topic-%d`, i))
		require.NoError(t, err)
	}
	_, err := f.service.Create(context.Background(), `other`, `topic-0`)
	require.NoError(t, err)

	records, err := f.service.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, owner, r.OwnerId)
	}

	records, err = f.service.List(context.Background(), `nobody`)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Equal(t, int64(0), f.cluster.OpenConnections())
}

func TestService_GetWithMessages_NotOwnedMatchesMissing(t *testing.T) {
	f := newFixture()

	record, err := f.service.Create(context.Background(), `u1`, `orders`)
	require.NoError(t, err)

	_, notOwned := f.service.GetWithMessages(context.Background(), `u2`, record.Id)
	_, missing := f.service.GetWithMessages(context.Background(), `u2`, `does-not-exist`)

	assert.True(t, errors.Is(notOwned, topics.ErrNotFound))
	assert.True(t, errors.Is(missing, topics.ErrNotFound))
	assert.Equal(t, notOwned.Error(), missing.Error())
	assert.Empty(t, f.cluster.GroupConfigs())
}

func TestService_GetWithMessages_Empty(t *testing.T) {
	f := newFixture()

	record, err := f.service.Create(context.Background(), `u1`, `orders`)
	require.NoError(t, err)

	result, err := f.service.GetWithMessages(context.Background(), `u1`, record.Id)
	require.NoError(t, err)
	assert.NotNil(t, result.Messages)
	assert.Empty(t, result.Messages)
}

func TestService_GetWithMessages_BrokerUnavailable(t *testing.T) {
	f := newFixture()

	record, err := f.service.Create(context.Background(), `u1`, `orders`)
	require.NoError(t, err)
	f.cluster.SetAvailable(false)

	_, err = f.service.GetWithMessages(context.Background(), `u1`, record.Id)
	assert.True(t, errors.Is(err, topics.ErrBrokerUnavailable))
	assert.Equal(t, int64(0), f.cluster.OpenConnections())
}

func TestService_Publish(t *testing.T) {
	f := newFixture()

	record, err := f.service.Create(context.Background(), `u1`, `orders`)
	require.NoError(t, err)

	delivery, err := f.service.Publish(context.Background(), `u1`, record.Id, []byte(`k`), []byte(`v`))
	require.NoError(t, err)
	assert.Equal(t, `u1-orders`, delivery.Topic)
	assert.Equal(t, int64(0), delivery.Offset)

	_, err = f.service.Publish(context.Background(), `u2`, record.Id, nil, []byte(`v`))
	assert.True(t, errors.Is(err, topics.ErrNotFound))

	f.cluster.SetAvailable(false)
	_, err = f.service.Publish(context.Background(), `u1`, record.Id, nil, []byte(`v`))
	assert.True(t, errors.Is(err, topics.ErrBrokerUnavailable))
	assert.Equal(t, int64(0), f.cluster.OpenConnections())
}
