package topics

import "context"

// Query selects a single record. Both fields are always matched together.
type Query struct {
	Id      string
	OwnerId string
}

// Store persists topic ownership records.
type Store interface {
	// Save persists a new record, assigning its Id when empty.
	Save(ctx context.Context, record *TopicRecord) (*TopicRecord, error)
	FindAllByOwner(ctx context.Context, ownerId string) ([]*TopicRecord, error)
	// FindOne returns nil without an error when no record matches.
	FindOne(ctx context.Context, query Query) (*TopicRecord, error)
}
