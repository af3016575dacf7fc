package topics

import "github.com/gmbyapa/ktopics/pkg/errors"

var (
	// ErrValidation is returned for inputs which can never be served, such as an illegal topic name.
	ErrValidation = errors.Sentinel(`validation failed`)
	// ErrConflict is returned when the qualified topic already exists on the broker.
	ErrConflict = errors.Sentinel(`topic already exists`)
	// ErrNotFound is returned when no topic matches both the id and the owner.
	ErrNotFound = errors.Sentinel(`topic not found`)
	// ErrBrokerUnavailable is returned when an admin, consumer or producer connection fails.
	ErrBrokerUnavailable = errors.Sentinel(`broker unavailable`)
)
