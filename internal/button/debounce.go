// Package button turns raw button edges into single acknowledge events.
package button

import (
	"math"
	"sync/atomic"
	"time"
)

// none marks that no edge has been accepted yet.
const none = math.MinInt64

// Debouncer accepts at most one edge per window. Edge may be called from any
// goroutine; the polling loop consumes accepted presses with Pressed or C.
type Debouncer struct {
	window   time.Duration
	base     time.Time
	last     atomic.Int64 // offset from base of the last accepted edge
	pending  atomic.Bool
	notify   chan struct{}
	accepted atomic.Uint64
	dropped  atomic.Uint64
}

// NewDebouncer returns a Debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	d := &Debouncer{
		window: window,
		base:   time.Now(),
		notify: make(chan struct{}, 1),
	}
	d.last.Store(none)
	return d
}

// Edge records a raw edge observed at t and reports whether it was accepted
// as a press. Times from time.Now are compared on the monotonic clock, so
// wall-clock steps do not matter. An edge that still appears to precede the
// last accepted one is accepted.
func (d *Debouncer) Edge(t time.Time) bool {
	at := int64(t.Sub(d.base))
	for {
		last := d.last.Load()
		if last != none {
			if gap := time.Duration(at - last); gap >= 0 && gap <= d.window {
				d.dropped.Add(1)
				return false
			}
		}
		if d.last.CompareAndSwap(last, at) {
			break
		}
	}
	d.accepted.Add(1)
	d.pending.Store(true)
	select {
	case d.notify <- struct{}{}:
	default:
	}
	return true
}

// Pressed reports an accepted press exactly once.
func (d *Debouncer) Pressed() bool {
	return d.pending.Swap(false)
}

// C receives a value after an accepted edge. Receivers should still call
// Pressed to consume the event.
func (d *Debouncer) C() <-chan struct{} {
	return d.notify
}

// Stats returns the number of accepted and dropped edges.
func (d *Debouncer) Stats() (accepted, dropped uint64) {
	return d.accepted.Load(), d.dropped.Load()
}
