/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

// Package store persists topic ownership records on an ordered key value backend.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gmbyapa/ktopics/backend"
	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/gmbyapa/ktopics/topics"
	"github.com/google/uuid"
	"github.com/tryfix/log"
)

const keyPrefix = `topic/`

// BackendStore keeps one JSON document per record under a key which embeds the owner, so every
// read is owner scoped by construction.
type BackendStore struct {
	backend backend.Backend
	logger  log.Logger
	mu      sync.Mutex
}

func NewBackendStore(backend backend.Backend, logger log.Logger) *BackendStore {
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	return &BackendStore{
		backend: backend,
		logger:  logger.NewLog(log.Prefixed(`Store`)),
	}
}

// ownerPrefix is length prefixed so that no owner id is a key prefix of another.
func ownerPrefix(ownerId string) []byte {
	return []byte(fmt.Sprintf(`%s%d:%s/`, keyPrefix, len(ownerId), ownerId))
}

func recordKey(ownerId, id string) []byte {
	return append(ownerPrefix(ownerId), id...)
}

func (s *BackendStore) Save(_ context.Context, record *topics.TopicRecord) (*topics.TopicRecord, error) {
	if record == nil {
		return nil, errors.New(`nil record`)
	}

	saved := *record
	if saved.Id == `` {
		saved.Id = uuid.New().String()
	}

	value, err := json.Marshal(saved)
	if err != nil {
		return nil, errors.Wrapf(err, `encode record [%s] failed`, saved.Id)
	}

	key := recordKey(saved.OwnerId, saved.Id)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.backend.Get(key)
	if err != nil {
		return nil, errors.Wrapf(err, `read record [%s] failed`, saved.Id)
	}

	if existing != nil {
		return nil, errors.Errorf(`record [%s] already exists`, saved.Id)
	}

	if err := s.backend.Set(key, value); err != nil {
		return nil, errors.Wrapf(err, `write record [%s] failed`, saved.Id)
	}

	s.logger.Debug(fmt.Sprintf(`record [%s] saved for topic [%s]`, saved.Id, saved.Name))

	return &saved, nil
}

func (s *BackendStore) FindAllByOwner(_ context.Context, ownerId string) ([]*topics.TopicRecord, error) {
	itr := s.backend.PrefixedIterator(ownerPrefix(ownerId))
	defer itr.Close()

	records := make([]*topics.TopicRecord, 0)
	for itr.SeekToFirst(); itr.Valid(); itr.Next() {
		record, err := decode(itr.Value())
		if err != nil {
			return nil, errors.Wrapf(err, `decode record at [%s] failed`, itr.Key())
		}

		records = append(records, record)
	}

	if err := itr.Error(); err != nil {
		return nil, errors.Wrapf(err, `list records of [%s] failed`, ownerId)
	}

	return records, nil
}

func (s *BackendStore) FindOne(_ context.Context, query topics.Query) (*topics.TopicRecord, error) {
	if query.Id == `` || query.OwnerId == `` {
		return nil, nil
	}

	value, err := s.backend.Get(recordKey(query.OwnerId, query.Id))
	if err != nil {
		return nil, errors.Wrapf(err, `read record [%s] failed`, query.Id)
	}

	if value == nil {
		return nil, nil
	}

	return decode(value)
}

func (s *BackendStore) Close() error {
	return s.backend.Close()
}

func decode(value []byte) (*topics.TopicRecord, error) {
	record := new(topics.TopicRecord)
	if err := json.Unmarshal(value, record); err != nil {
		return nil, errors.Wrap(err, `invalid record`)
	}

	return record, nil
}
