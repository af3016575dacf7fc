/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package badger

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"
)

func newInMemory(t *testing.T) *badger {
	conf := NewConfig()
	conf.InMemory = true
	b, err := NewBadgerBackend(`test`, conf)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Error(err)
		}
	})

	return b.(*badger)
}

func TestBadger_Set(t *testing.T) {
	backend := newInMemory(t)
	if err := backend.Set([]byte(`100`), []byte(`100`)); err != nil {
		t.Fatal(err)
	}

	r, err := backend.Get([]byte(`100`))
	if err != nil {
		t.Error(err)
	}

	if !bytes.Equal(r, []byte(`100`)) {
		t.Error(`record does not exist`)
	}
}

func TestBadger_GetMissing(t *testing.T) {
	backend := newInMemory(t)

	r, err := backend.Get([]byte(`missing`))
	if err != nil {
		t.Error(err)
	}

	if r != nil {
		t.Error(`record exist`)
	}
}

func TestBadger_PrefixedIterator(t *testing.T) {
	backend := newInMemory(t)

	for i := 1; i <= 5; i++ {
		if err := backend.Set([]byte(fmt.Sprintf(`a/%d`, i)), []byte(fmt.Sprint(i))); err != nil {
			t.Fatal(err)
		}
		if err := backend.Set([]byte(fmt.Sprintf(`b/%d`, i)), []byte(fmt.Sprint(i))); err != nil {
			t.Fatal(err)
		}
	}

	i := backend.PrefixedIterator([]byte(`a/`))
	var keys []string
	for i.SeekToFirst(); i.Valid(); i.Next() {
		keys = append(keys, string(i.Key()))
	}
	i.Close()

	if err := i.Error(); err != nil {
		t.Error(err)
	}

	if !reflect.DeepEqual(keys, []string{`a/1`, `a/2`, `a/3`, `a/4`, `a/5`}) {
		t.Errorf(`unexpected keys %v`, keys)
	}
}
