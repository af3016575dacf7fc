/**
 * Copyright 2020 TryFix Engineering.
 * All rights reserved.
 * Authors:
 *    Gayan Yapa (gmbyapa@gmail.com)
 */

package memory

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/tryfix/metrics"
)

func TestMemory_Get(t *testing.T) {
	conf := NewConfig()
	conf.MetricsReporter = metrics.NoopReporter()
	backend := NewMemoryBackend(`test`, conf)

	for i := 1; i <= 1000; i++ {
		if err := backend.Set([]byte(fmt.Sprint(i)), []byte(`100`)); err != nil {
			t.Fatal(err)
		}
	}

	for i := 1; i <= 1000; i++ {
		val, err := backend.Get([]byte(fmt.Sprint(i)))
		if err != nil {
			t.Error(err)
		}

		if string(val) != `100` {
			t.Fail()
		}
	}
}

func TestMemory_GetMissing(t *testing.T) {
	backend := NewMemoryBackend(`test`, NewConfig())

	val, err := backend.Get([]byte(`missing`))
	if err != nil {
		t.Error(err)
	}

	if val != nil {
		t.Error(`record exist`)
	}
}

func TestMemory_PrefixedIterator(t *testing.T) {
	backend := NewMemoryBackend(`test`, NewConfig())

	for _, key := range []string{`b/2`, `a/1`, `b/1`, `c/1`, `b/3`} {
		if err := backend.Set([]byte(key), []byte(key)); err != nil {
			t.Fatal(err)
		}
	}

	i := backend.PrefixedIterator([]byte(`b/`))
	defer i.Close()

	var keys []string
	for i.SeekToFirst(); i.Valid(); i.Next() {
		keys = append(keys, string(i.Key()))
		if string(i.Value()) != string(i.Key()) {
			t.Errorf(`unexpected value %s`, i.Value())
		}
	}

	if !reflect.DeepEqual(keys, []string{`b/1`, `b/2`, `b/3`}) {
		t.Errorf(`expected sorted prefix keys, have %v`, keys)
	}
}

func TestMemory_PrefixedIterator_Empty(t *testing.T) {
	backend := NewMemoryBackend(`test`, NewConfig())

	i := backend.PrefixedIterator([]byte(`x/`))
	defer i.Close()

	i.SeekToFirst()
	if i.Valid() {
		t.Error(`iterator must be invalid`)
	}
}
