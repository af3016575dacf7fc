/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

// Package backend defines the ordered key value storage the metadata store is built on.
package backend

type Builder func(name string) (Backend, error)

type Backend interface {
	// Name returns the name of the store
	Name() string
	String() string
	Persistent() bool
	// Get looks for the value of a given key. Will return nil if the value does not exist
	Get(key []byte) ([]byte, error)
	Set(key []byte, value []byte) error
	// PrefixedIterator iterates, in key order, over every key starting with keyPrefix.
	PrefixedIterator(keyPrefix []byte) Iterator
	Close() error
}

type Iterator interface {
	SeekToFirst()
	Next()
	Valid() bool
	Key() []byte
	Value() []byte
	Error() error
	Close()
}

// KeyUpperBound returns the smallest key greater than every key prefixed with b, or nil when
// there is none.
func KeyUpperBound(b []byte) []byte {
	end := make([]byte, len(b))
	copy(end, b)
	for i := len(end) - 1; i >= 0; i-- {
		end[i] = end[i] + 1
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // no upper-bound
}
