package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

// Dispatcher runs callback processing after the scheme has been acknowledged. Tasks outlive the
// request that started them and are bounded by timeout.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
	async   bool
	logger  *zerolog.Logger
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	l := log.Component("dispatcher")
	return &Dispatcher{timeout: timeout, async: true, logger: &l}
}

// NewSyncDispatcher runs every task before Go returns.
func NewSyncDispatcher(timeout time.Duration) *Dispatcher {
	d := NewDispatcher(timeout)
	d.async = false
	return d
}

func (d *Dispatcher) Go(ctx context.Context, name string, task func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	run := func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().Interface("panic", r).Str("task", name).Msg("callback task panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		task(ctx)
	}

	if !d.async {
		run()
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		run()
	}()
}

// Wait blocks until every dispatched task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
