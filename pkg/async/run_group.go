// Package async runs the long lived processes of the binary as one group.
package async

import (
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/gmbyapa/ktopics/pkg/errors"
	"github.com/tryfix/log"
)

// Fn is a long running process. It must return once Opts.Stopping is closed.
type Fn func(*Opts) error

type Opts struct {
	stopping  <-chan struct{}
	readyOnce sync.Once
	ready     chan struct{}
}

// Stopping is closed when the group is shutting down.
func (opts *Opts) Stopping() <-chan struct{} {
	return opts.stopping
}

// Ready marks the process as started, eg: the listener is bound.
func (opts *Opts) Ready() {
	opts.readyOnce.Do(func() {
		close(opts.ready)
	})
}

// ErrInterrupted is returned by processes stopped by an os signal.
var ErrInterrupted = errors.Sentinel(`interrupted`)

// RunGroup runs a group of processes, the first one to fail stops all the others.
type RunGroup struct {
	fns          []Fn
	wg           sync.WaitGroup
	readyWg      sync.WaitGroup
	mu           sync.Mutex
	stopping     chan struct{}
	stopped      chan struct{}
	shutDownOnce sync.Once
	err          error
	logger       log.Logger
}

func NewRunGroup(logger log.Logger, fns ...Fn) *RunGroup {
	tg := &RunGroup{
		stopping: make(chan struct{}),
		stopped:  make(chan struct{}),
		logger:   logger.NewLog(log.Prefixed(`RunGroup`)),
	}

	for _, fn := range fns {
		tg.Add(fn)
	}

	return tg
}

// Add adds a process to the group. Processes added after Run are never started.
func (tg *RunGroup) Add(fn Fn) *RunGroup {
	tg.readyWg.Add(1)
	tg.fns = append(tg.fns, fn)
	return tg
}

// Run starts every process and blocks until all of them returned. The first error is returned.
func (tg *RunGroup) Run() error {
	tg.wg.Add(len(tg.fns))

	for _, fn := range tg.fns {
		ready := make(chan struct{})

		go func() {
			<-ready
			tg.readyWg.Done()
		}()

		go func(fn Fn) {
			defer tg.wg.Done()
			defer LogPanicTrace(tg.logger)

			opts := &Opts{
				stopping: tg.stopping,
				ready:    ready,
			}
			// a returned process is ready anyway
			defer opts.Ready()

			err := fn(opts)
			if err != nil {
				tg.mu.Lock()
				if tg.err == nil {
					tg.err = err
				}
				tg.mu.Unlock()
			}

			tg.notifyShutDown(err)
		}(fn)
	}

	tg.wg.Wait()
	close(tg.stopped)

	tg.mu.Lock()
	defer tg.mu.Unlock()

	return tg.err
}

func (tg *RunGroup) notifyShutDown(err error) {
	tg.shutDownOnce.Do(func() {
		switch {
		case err == nil:
			tg.logger.Info(`Processes stopping...`)
		case errors.Is(err, ErrInterrupted):
			tg.logger.Info(fmt.Sprintf(`Processes stopping due to %s`, err))
		default:
			tg.logger.Error(fmt.Sprintf(`Processes stopping due to %s`, err))
		}

		close(tg.stopping)
	})
}

// Ready waits until every process is ready or has returned.
func (tg *RunGroup) Ready() error {
	tg.readyWg.Wait()

	tg.mu.Lock()
	defer tg.mu.Unlock()

	return tg.err
}

// Stop signals every process to stop and waits for the group to return.
func (tg *RunGroup) Stop() {
	tg.notifyShutDown(nil)
	<-tg.stopped
}

// Signals returns a process which fails with ErrInterrupted on the first of sigs.
func Signals(sigs ...os.Signal) Fn {
	return func(opts *Opts) error {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, sigs...)
		defer signal.Stop(ch)
		opts.Ready()

		select {
		case sig := <-ch:
			return errors.Wrapf(ErrInterrupted, `received %s`, sig)
		case <-opts.Stopping():
			return nil
		}
	}
}
