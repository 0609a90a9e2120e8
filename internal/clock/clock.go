// Package clock supplies the wall-clock time alarms are evaluated against.
package clock

import (
	"errors"
	"sync"
	"time"
)

// ErrClockUnavailable is returned while the time source has not been
// synchronized. Callers treat it as "nothing is due".
var ErrClockUnavailable = errors.New("clock is not synchronized")

// Source supplies the current local date-time.
type Source interface {
	Now() (time.Time, error)
}

// RTC is a settable real-time clock layered over the system clock.
type RTC struct {
	loc *time.Location
	now func() time.Time

	mu     sync.RWMutex
	offset time.Duration
	synced bool
}

// NewRTC returns a clock reporting time in loc. When synced is false, Now
// fails until Set is called.
func NewRTC(loc *time.Location, synced bool) *RTC {
	return &RTC{
		loc:    loc,
		now:    time.Now,
		synced: synced,
	}
}

// Now returns the current time in the clock's location.
func (c *RTC) Now() (time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.synced {
		return time.Time{}, ErrClockUnavailable
	}
	return c.now().Add(c.offset).In(c.loc), nil
}

// Set adjusts the clock so that Now reports t, and marks it synchronized.
func (c *RTC) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = t.Sub(c.now())
	c.synced = true
}

// Synced reports whether the clock has a trusted time.
func (c *RTC) Synced() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synced
}

// Location returns the zone Now reports in.
func (c *RTC) Location() *time.Location {
	return c.loc
}

// Fixed is a Source that always reports the same instant. It is handy for
// tests and for replaying a specific minute.
type Fixed struct {
	mu  sync.Mutex
	t   time.Time
	err error
}

// NewFixed returns a Fixed clock at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t, f.err
}

// Set moves the clock to t and clears any failure.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
	f.err = nil
}

// Fail makes subsequent Now calls return err.
func (f *Fixed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}
