// Package api exposes the topic operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gmbyapa/ktopics/kafka"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/gmbyapa/ktopics/topics"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tryfix/log"
)

// TopicService is the set of topic operations served by the handler.
type TopicService interface {
	Create(ctx context.Context, ownerId, shortName string) (*topics.TopicRecord, error)
	List(ctx context.Context, ownerId string) ([]*topics.TopicRecord, error)
	GetWithMessages(ctx context.Context, ownerId, recordId string) (*topics.TopicMessages, error)
	Publish(ctx context.Context, ownerId, recordId string, key, value []byte) (kafka.Delivery, error)
}

type Err struct {
	Err string `json:"error"`
}

type createRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type createResponse struct {
	Message string              `json:"message"`
	Topic   *topics.TopicRecord `json:"topic"`
}

type messagesResponse struct {
	Topic    string           `json:"topic"`
	Messages []topics.Message `json:"messages"`
}

type publishRequest struct {
	Key   string `json:"key" validate:"max=1024"`
	Value string `json:"value" validate:"required"`
}

type handler struct {
	service   TopicService
	owners    OwnerResolver
	validator *validator.Validate
	logger    log.Logger
}

// MakeHandler builds the router of every endpoint. Every /topics route is owner scoped.
func MakeHandler(service TopicService, owners OwnerResolver, logger log.Logger) http.Handler {
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	h := &handler{
		service:   service,
		owners:    owners,
		validator: validator.New(),
		logger:    logger.NewLog(log.Prefixed(`Http`)),
	}

	r := mux.NewRouter()
	r.HandleFunc(`/topics`, h.owned(h.create)).Methods(http.MethodPost)
	r.HandleFunc(`/topics`, h.owned(h.list)).Methods(http.MethodGet)
	r.HandleFunc(`/topics/{id}`, h.owned(h.get)).Methods(http.MethodGet)
	r.HandleFunc(`/topics/{id}/messages`, h.owned(h.publish)).Methods(http.MethodPost)

	r.HandleFunc(`/healthz`, func(writer http.ResponseWriter, _ *http.Request) {
		h.encode(writer, http.StatusOK, map[string]string{`status`: `ok`})
	}).Methods(http.MethodGet)
	r.Handle(`/metrics`, promhttp.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		h.encode(writer, http.StatusNotFound, Err{Err: `route not found`})
	})

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(
		handlers.CORS(handlers.AllowedHeaders([]string{`Content-Type`, DefaultOwnerHeader}))(r),
	)
}

type ownedHandlerFunc func(writer http.ResponseWriter, request *http.Request, owner string)

func (h *handler) owned(next ownedHandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		owner, err := h.owners.Owner(request)
		if err != nil {
			h.logger.Debug(fmt.Sprintf(`request rejected: %s`, err))
			h.encode(writer, http.StatusUnauthorized, Err{Err: `unauthenticated`})
			return
		}

		next(writer, request, owner)
	}
}

func (h *handler) create(writer http.ResponseWriter, request *http.Request, owner string) {
	req := new(createRequest)
	if !h.decode(writer, request, req) {
		return
	}

	record, err := h.service.Create(request.Context(), owner, req.Name)
	if err != nil {
		h.encodeError(writer, err)
		return
	}

	h.encode(writer, http.StatusCreated, createResponse{
		Message: `Topic created successfully`,
		Topic:   record,
	})
}

func (h *handler) list(writer http.ResponseWriter, request *http.Request, owner string) {
	records, err := h.service.List(request.Context(), owner)
	if err != nil {
		h.encodeError(writer, err)
		return
	}

	h.encode(writer, http.StatusOK, records)
}

func (h *handler) get(writer http.ResponseWriter, request *http.Request, owner string) {
	result, err := h.service.GetWithMessages(request.Context(), owner, mux.Vars(request)[`id`])
	if err != nil {
		h.encodeError(writer, err)
		return
	}

	h.encode(writer, http.StatusOK, messagesResponse{
		Topic:    result.Record.Name,
		Messages: result.Messages,
	})
}

func (h *handler) publish(writer http.ResponseWriter, request *http.Request, owner string) {
	req := new(publishRequest)
	if !h.decode(writer, request, req) {
		return
	}

	var key []byte
	if req.Key != `` {
		key = []byte(req.Key)
	}

	delivery, err := h.service.Publish(request.Context(), owner, mux.Vars(request)[`id`], key, []byte(req.Value))
	if err != nil {
		h.encodeError(writer, err)
		return
	}

	h.encode(writer, http.StatusCreated, delivery)
}

// decode reads and validates the request body, writing a 400 response when it fails.
func (h *handler) decode(writer http.ResponseWriter, request *http.Request, v interface{}) bool {
	if err := json.NewDecoder(request.Body).Decode(v); err != nil {
		h.encode(writer, http.StatusBadRequest, Err{Err: `malformed request body`})
		return false
	}

	if err := h.validator.Struct(v); err != nil {
		h.encode(writer, http.StatusBadRequest, Err{Err: err.Error()})
		return false
	}

	return true
}

func (h *handler) encodeError(writer http.ResponseWriter, err error) {
	status, msg := statusOf(err)
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		h.logger.Error(fmt.Sprintf(`request failed: %s`, err))
	} else {
		h.logger.Debug(fmt.Sprintf(`request failed: %s`, err))
	}

	h.encode(writer, status, Err{Err: msg})
}

func (h *handler) encode(writer http.ResponseWriter, status int, v interface{}) {
	writer.Header().Set(`Content-Type`, `application/json`)
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(v); err != nil {
		h.logger.Error(fmt.Sprintf(`response encode failed: %s`, err))
	}
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, topics.ErrValidation):
		return http.StatusBadRequest, `invalid topic name`
	case errors.Is(err, topics.ErrConflict):
		return http.StatusConflict, `topic already exists`
	case errors.Is(err, topics.ErrNotFound):
		return http.StatusNotFound, `topic not found`
	case errors.Is(err, topics.ErrBrokerUnavailable):
		return http.StatusServiceUnavailable, `broker unavailable`
	default:
		return http.StatusInternalServerError, `internal error`
	}
}
