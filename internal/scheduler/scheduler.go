// Package scheduler evaluates the stored alarms on every clock tick.
package scheduler

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"bedclock/internal/alarm"
	"bedclock/internal/clock"
)

// Playback is the part of the playback controller the scheduler drives.
type Playback interface {
	Active() alarm.Track
	Start(track alarm.Track) error
}

// Event describes an alarm that started ringing.
type Event struct {
	Index  int
	Record alarm.Record
	Track  alarm.Track
	At     time.Time
}

type date struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) date {
	y, m, d := t.Date()
	return date{y, m, d}
}

// Scheduler fires at most one alarm per tick and clears fired flags once a
// day. Tick must only be called from one goroutine.
type Scheduler struct {
	clock    clock.Source
	store    *alarm.Store
	playback Playback

	// OnFire, when set, is called after an alarm starts ringing.
	OnFire func(Event)
	// OnReset, when set, is called after the daily reset cleared the fired
	// flags.
	OnReset func()

	intn func(n int) int

	clockDown    bool
	lastDay      date
	resetDay     date
	resetPending bool

	// warned remembers malformed slots already logged for the current store
	// version.
	warned        map[slot]bool
	warnedVersion uint64
}

type slot struct {
	index  int
	record alarm.Record
}

// New returns a Scheduler reading time from src.
func New(src clock.Source, store *alarm.Store, playback Playback) *Scheduler {
	return &Scheduler{
		clock:    src,
		store:    store,
		playback: playback,
		intn:     rand.Intn,
		warned:   make(map[slot]bool),
	}
}

// Tick runs one evaluation pass. It returns the alarm that started ringing,
// if any.
func (s *Scheduler) Tick(ctx context.Context) (Event, bool) {
	now, err := s.clock.Now()
	if err != nil {
		if !s.clockDown {
			if errors.Is(err, clock.ErrClockUnavailable) {
				log.Println("Clock not synchronized yet. Alarms will not fire until it is.")
			} else {
				log.Printf("Error reading clock: %v. Alarms will not fire until it recovers.", err)
			}
			s.clockDown = true
		}
		return Event{}, false
	}
	if s.clockDown {
		log.Printf("Clock available again at %s", now.Format(time.DateTime))
		s.clockDown = false
	}

	s.midnight(ctx, now)

	if s.playback.Active() != alarm.TrackNone {
		return Event{}, false
	}
	return s.scan(now)
}

// midnight clears fired flags on the first tick of each calendar day. A day
// change noticed after 00:00, because ticks were missed, still triggers it.
func (s *Scheduler) midnight(ctx context.Context, now time.Time) {
	day := dateOf(now)
	if now.Hour() == 0 && now.Minute() == 0 && s.resetDay != day {
		s.resetPending = true
	}
	if s.lastDay != (date{}) && s.lastDay != day {
		s.resetPending = true
	}
	s.lastDay = day

	if !s.resetPending {
		return
	}
	if err := s.store.ResetFired(ctx); err != nil {
		log.Printf("Error resetting fired alarms: %v", err)
		return
	}
	s.resetPending = false
	s.resetDay = day
	log.Printf("Fired alarms reset for %04d-%02d-%02d", day.year, day.month, day.day)
	if s.OnReset != nil {
		s.OnReset()
	}
}

func (s *Scheduler) scan(now time.Time) (Event, bool) {
	if v := s.store.Version(); v != s.warnedVersion {
		clear(s.warned)
		s.warnedVersion = v
	}
	for i, rec := range s.store.List() {
		if rec.Fired {
			continue
		}
		if err := rec.Validate(); err != nil {
			key := slot{index: i, record: rec}
			if !s.warned[key] {
				log.Printf("Warning: skipping alarm %d: %v", i, err)
				s.warned[key] = true
			}
			continue
		}
		if !alarm.IsDue(rec, now) {
			continue
		}

		track := rec.Track
		if track == alarm.TrackRandom {
			track = alarm.Tracks[s.intn(len(alarm.Tracks))]
		}
		if err := s.playback.Start(track); err != nil {
			log.Printf("Alarm %d is due but playback did not start: %v", i, err)
			return Event{}, false
		}
		s.store.MarkFired(i, true)
		log.Printf("Alarm %d (%s) ringing with track %s", i, rec.Describe(), track)

		ev := Event{Index: i, Record: rec, Track: track, At: now}
		if s.OnFire != nil {
			s.OnFire(ev)
		}
		return ev, true
	}
	return Event{}, false
}
