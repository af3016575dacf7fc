package backend

import (
	"bytes"
	"testing"
)

func TestKeyUpperBound(t *testing.T) {
	cases := map[string][]byte{
		`a/`:       []byte(`a0`),
		"a\xff":    []byte(`b`),
		"\xff\xff": nil,
	}

	for prefix, want := range cases {
		if got := KeyUpperBound([]byte(prefix)); !bytes.Equal(got, want) {
			t.Errorf(`KeyUpperBound(%q) = %q, want %q`, prefix, got, want)
		}
	}
}
