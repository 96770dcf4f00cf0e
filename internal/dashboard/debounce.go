package dashboard

import (
	"context"
	"sync"
	"time"
)

// Debouncer runs only the last function triggered within a quiet period.
// Functions receive a context that Cancel ends, so work already running when
// Cancel is called can stop short.
type Debouncer struct {
	delay  time.Duration
	parent context.Context

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDebouncer creates a Debouncer with the given quiet period. Contexts
// handed to triggered functions derive from parent.
func NewDebouncer(parent context.Context, delay time.Duration) *Debouncer {
	ctx, cancel := context.WithCancel(parent)
	return &Debouncer{delay: delay, parent: parent, ctx: ctx, cancel: cancel}
}

// Trigger schedules fn after the quiet period, discarding any function
// scheduled earlier that has not run yet.
func (d *Debouncer) Trigger(fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen, ctx := d.gen, d.ctx
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen
		d.mu.Unlock()
		if current {
			fn(ctx)
		}
	})
}

// Cancel discards the pending function, if any, and cancels the context of
// one already running.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.cancel()
	d.ctx, d.cancel = context.WithCancel(d.parent)
}
