package async

import (
	"testing"
	"time"

	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tryfix/log"
)

func blocking(stopped *bool) Fn {
	return func(opts *Opts) error {
		opts.Ready()
		<-opts.Stopping()
		*stopped = true
		return nil
	}
}

func TestRunGroup_FirstErrorStopsAll(t *testing.T) {
	var a, b bool
	failure := errors.New(`listen failed`)

	tg := NewRunGroup(log.NewNoopLogger(), blocking(&a), blocking(&b))
	tg.Add(func(opts *Opts) error {
		time.Sleep(10 * time.Millisecond)
		return failure
	})

	err := tg.Run()
	assert.Equal(t, failure, err)
	assert.True(t, a)
	assert.True(t, b)
}

func TestRunGroup_Stop(t *testing.T) {
	var a bool
	tg := NewRunGroup(log.NewNoopLogger(), blocking(&a))

	done := make(chan error, 1)
	go func() { done <- tg.Run() }()

	assert.NoError(t, tg.Ready())
	tg.Stop()

	assert.NoError(t, <-done)
	assert.True(t, a)
}

func TestRunGroup_Interrupted(t *testing.T) {
	tg := NewRunGroup(log.NewNoopLogger(), func(opts *Opts) error {
		return errors.Wrap(ErrInterrupted, `received interrupt`)
	})

	assert.True(t, errors.Is(tg.Run(), ErrInterrupted))
}
