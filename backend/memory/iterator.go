/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package memory

type ByteRecord struct {
	Key   []byte
	Value []byte
}

// Iterator walks a sorted snapshot of records.
type Iterator struct {
	records    []ByteRecord
	currentKey int
	valid      bool
}

func NewMemoryIterator(records []ByteRecord) *Iterator {
	return &Iterator{
		records: records,
		valid:   len(records) > 0,
	}
}

func (i *Iterator) SeekToFirst() {
	i.currentKey = 0
	i.valid = len(i.records) > 0
}

func (i *Iterator) Next() {
	if i.currentKey >= len(i.records)-1 {
		i.valid = false
		return
	}
	i.currentKey++
}

func (i *Iterator) Close() {
	i.records = nil
	i.valid = false
}

func (i *Iterator) Key() []byte {
	return i.records[i.currentKey].Key
}

func (i *Iterator) Value() []byte {
	return i.records[i.currentKey].Value
}

func (i *Iterator) Valid() bool {
	return i.valid
}

func (i *Iterator) Error() error {
	return nil
}
