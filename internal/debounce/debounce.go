// Package debounce collapses bursts of calls into a single trailing call.
package debounce

import (
	"sync"
	"time"
)

const (
	// TextInput is the quiescence window for free-text filter input
	TextInput = 400 * time.Millisecond
	// ValueInput is the quiescence window for custom-field atom values
	ValueInput = time.Second
)

// Debouncer runs the most recently triggered function once no trigger has
// arrived for its duration. A zero duration runs functions synchronously.
type Debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
	pending  func()
	seq      uint64
	stopped  bool
}

// New creates a debouncer
func New(d time.Duration) *Debouncer {
	if d < 0 {
		d = 0
	}
	return &Debouncer{duration: d}
}

// Duration returns the quiescence window
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Trigger schedules fn, replacing and restarting any pending call
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.duration == 0 {
		d.cancelLocked()
		d.mu.Unlock()
		fn()
		return
	}

	d.cancelLocked()
	d.seq++
	seq := d.seq
	d.pending = fn
	d.timer = time.AfterFunc(d.duration, func() {
		d.fire(seq)
	})
	d.mu.Unlock()
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

// Pending reports whether a call is waiting for quiescence
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush runs the pending call now, if any
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fn := d.pending
	d.cancelLocked()
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Cancel drops the pending call without running it
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.cancelLocked()
	d.mu.Unlock()
}

// Stop cancels the pending call and ignores every later trigger
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.cancelLocked()
	d.mu.Unlock()
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.seq++
}
