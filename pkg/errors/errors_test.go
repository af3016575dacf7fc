package errors

import (
	"strings"
	"testing"
)

var errKind = Sentinel(`kind`)

func TestMark_MatchesKindAndCause(t *testing.T) {
	cause := New(`dial failed`)
	err := Mark(cause, errKind)

	if !Is(err, errKind) {
		t.Error(`marked error does not match kind`)
	}

	if !Is(err, cause) {
		t.Error(`marked error does not match cause`)
	}
}

func TestMark_Nil(t *testing.T) {
	if Mark(nil, errKind) != nil {
		t.Error(`nil error marked`)
	}
}

func TestWrap_KeepsChain(t *testing.T) {
	err := Wrapf(errKind, `topic %s`, `u1-orders`)
	if !Is(err, errKind) {
		t.Error(`wrapped error does not match`)
	}

	if !strings.Contains(err.Error(), `topic u1-orders`) {
		t.Errorf(`unexpected message %s`, err)
	}
}
