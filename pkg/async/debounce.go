// Package async provides small deferred-execution primitives used by the
// plan session layer: actions that should fire once after a burst of
// triggering calls has gone quiet.
package async

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of Trigger calls into a single execution of fn
// after the configured quiet period. Each Trigger replaces any still-pending
// timer. Flush and Cancel are first-class operations because callers (undo,
// session teardown) need to force or discard the pending action explicitly.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
	armed bool
	// gen invalidates timers that already expired when Trigger re-arms:
	// timer.Stop() returns false for an expired timer whose callback has not
	// yet run, and that stale callback must not consume the new arming.
	gen uint64
}

// NewDebouncer creates a debouncer that runs fn once per quiet period.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{
		delay: delay,
		fn:    fn,
	}
}

// Trigger schedules fn after the quiet period, replacing any pending timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = true
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs on the timer goroutine once the quiet period elapses.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if !d.armed || gen != d.gen {
		// Flushed, cancelled, or re-armed between timer expiry and
		// acquiring the lock.
		d.mu.Unlock()
		return
	}
	d.armed = false
	fn := d.fn
	d.mu.Unlock()

	// fn runs outside the debouncer lock so it may Trigger/Cancel freely.
	fn()
}

// Flush runs the pending action synchronously if one is armed. It is a no-op
// when nothing is pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
	fn := d.fn
	d.mu.Unlock()

	fn()
}

// Cancel discards the pending action, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
}

// Pending reports whether an action is scheduled and not yet executed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}
