/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package badger

import (
	db "github.com/dgraph-io/badger/v3"
)

type Iterator struct {
	itr    *db.Iterator
	closed chan struct{}
	done   chan struct{}
	err    error

	// viewErr is written by the transaction goroutine and read only after done is closed
	viewErr error
}

func (i *Iterator) SeekToFirst() {
	i.itr.Rewind()
}

func (i *Iterator) Next() {
	i.itr.Next()
}

func (i *Iterator) Close() {
	i.itr.Close()
	close(i.closed)
	<-i.done
}

func (i *Iterator) Key() []byte {
	return i.itr.Item().KeyCopy(nil)
}

func (i *Iterator) Value() []byte {
	val, err := i.itr.Item().ValueCopy(nil)
	if err != nil {
		i.err = err
		return nil
	}

	return val
}

func (i *Iterator) Valid() bool {
	return i.itr.Valid()
}

// Error is only complete after Close.
func (i *Iterator) Error() error {
	if i.err != nil {
		return i.err
	}

	select {
	case <-i.done:
		return i.viewErr
	default:
		return nil
	}
}
