package pebble

import "github.com/cockroachdb/pebble"

type Iterator struct {
	itr *pebble.Iterator
}

func (i *Iterator) SeekToFirst() {
	i.itr.First()
}

func (i *Iterator) Next() {
	i.itr.Next()
}

func (i *Iterator) Close() {
	_ = i.itr.Close()
}

func (i *Iterator) Key() []byte {
	return append([]byte(nil), i.itr.Key()...)
}

func (i *Iterator) Value() []byte {
	return append([]byte(nil), i.itr.Value()...)
}

func (i *Iterator) Valid() bool {
	return i.itr.Valid()
}

func (i *Iterator) Error() error {
	return i.itr.Error()
}
