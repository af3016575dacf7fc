package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gmbyapa/ktopics/backend/memory"
	"github.com/gmbyapa/ktopics/kafka/mocks"
	"github.com/gmbyapa/ktopics/store"
	"github.com/gmbyapa/ktopics/topics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	cluster *mocks.Cluster
	handler http.Handler
}

func newTestServer() *testServer {
	cluster := mocks.NewCluster()
	conf := topics.NewConfig()
	conf.Drain.Window = 100 * time.Millisecond

	service := topics.NewService(
		store.NewBackendStore(memory.NewMemoryBackend(`records`, memory.NewConfig()), nil),
		topics.Broker{
			Admin:    cluster.AdminBuilder(),
			Consumer: cluster.GroupConsumerBuilder(),
			Producer: cluster.ProducerBuilder(),
		}, conf)

	return &testServer{
		cluster: cluster,
		handler: MakeHandler(service, HeaderOwnerResolver{}, nil),
	}
}

func (s *testServer) do(method, path, owner, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(`Content-Type`, `application/json`)
	if owner != `` {
		req.Header.Set(DefaultOwnerHeader, owner)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(v))
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	e := Err{}
	decodeBody(t, rec, &e)
	return e.Err
}

func TestApi_CreateListGet(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, `/topics`, `u1`, `{"name":"orders"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := createResponse{}
	decodeBody(t, rec, &created)
	assert.Equal(t, `Topic created successfully`, created.Message)
	require.NotNil(t, created.Topic)
	assert.Equal(t, `u1-orders`, created.Topic.Name)
	assert.Equal(t, `u1`, created.Topic.OwnerId)

	for _, v := range []string{`m1`, `m2`, `m3`} {
		rec = s.do(http.MethodPost, `/topics/`+created.Topic.Id+`/messages`, `u1`, `{"value":"`+v+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodGet, `/topics`, `u1`, ``)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []*topics.TopicRecord
	decodeBody(t, rec, &records)
	require.Len(t, records, 1)
	assert.Equal(t, created.Topic.Id, records[0].Id)

	rec = s.do(http.MethodGet, `/topics/`+created.Topic.Id, `u1`, ``)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := messagesResponse{}
	decodeBody(t, rec, &got)
	assert.Equal(t, `u1-orders`, got.Topic)
	assert.Equal(t, []topics.Message{{Value: `m1`}, {Value: `m2`}, {Value: `m3`}}, got.Messages)
}

func TestApi_ListEmpty(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodGet, `/topics`, `u1`, ``)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestApi_Unauthenticated(t *testing.T) {
	s := newTestServer()

	for _, path := range []string{`/topics`, `/topics/some-id`} {
		rec := s.do(http.MethodGet, path, ``, ``)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := s.do(http.MethodPost, `/topics`, ``, `{"name":"orders"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, s.cluster.Topics.Names())
}

func TestApi_Create_Conflict(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, `/topics`, `u1`, `{"name":"orders"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, `/topics`, `u1`, `{"name":"orders"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, `topic already exists`, errorOf(t, rec))
}

func TestApi_Create_BadRequest(t *testing.T) {
	s := newTestServer()

	for _, body := range []string{`{`, `{}`, `{"name":""}`, `{"name":"my orders"}`} {
		rec := s.do(http.MethodPost, `/topics`, `u1`, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, errorOf(t, rec), body)
	}

	assert.Empty(t, s.cluster.Topics.Names())
}

func TestApi_Create_BrokerUnavailable(t *testing.T) {
	s := newTestServer()
	s.cluster.SetAvailable(false)

	rec := s.do(http.MethodPost, `/topics`, `u1`, `{"name":"orders"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, `broker unavailable`, errorOf(t, rec))
}

func TestApi_Get_NotOwned(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, `/topics`, `u1`, `{"name":"orders"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := createResponse{}
	decodeBody(t, rec, &created)

	notOwned := s.do(http.MethodGet, `/topics/`+created.Topic.Id, `u2`, ``)
	missing := s.do(http.MethodGet, `/topics/does-not-exist`, `u2`, ``)

	assert.Equal(t, http.StatusNotFound, notOwned.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, missing.Body.String(), notOwned.Body.String())

	rec = s.do(http.MethodPost, `/topics/`+created.Topic.Id+`/messages`, `u2`, `{"value":"v"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApi_Healthz(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodGet, `/healthz`, ``, ``)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestApi_UnknownRoute(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodGet, `/nothing`, `u1`, ``)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHeaderOwnerResolver(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, `/topics`, nil)
	req.Header.Set(`X-Tenant`, ` t1 `)

	owner, err := HeaderOwnerResolver{Header: `X-Tenant`}.Owner(req)
	require.NoError(t, err)
	assert.Equal(t, `t1`, owner)

	_, err = HeaderOwnerResolver{}.Owner(req)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
