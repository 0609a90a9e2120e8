package alarm

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Recurrence selects which date fields of a Record take part in the due check.
type Recurrence uint8

const (
	Daily  Recurrence = 0
	Weekly Recurrence = 1
	Once   Recurrence = 2
)

func (r Recurrence) String() string {
	switch r {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Once:
		return "once"
	default:
		return fmt.Sprintf("recurrence(%d)", uint8(r))
	}
}

// Track identifies a notification sound.
type Track int8

const (
	// TrackNone marks an empty slot.
	TrackNone Track = 0
	// TrackRandom picks one of Tracks when the alarm fires.
	TrackRandom Track = -1
)

// Tracks is the fixed set of playable notification sounds.
var Tracks = []Track{1, 2, 3}

// Valid reports whether t names a playable track.
func (t Track) Valid() bool {
	for _, known := range Tracks {
		if t == known {
			return true
		}
	}
	return false
}

func (t Track) String() string {
	switch t {
	case TrackNone:
		return "None"
	case TrackRandom:
		return "Random"
	default:
		return fmt.Sprintf("%d", int8(t))
	}
}

// Record is one alarm definition occupying a slot.
type Record struct {
	Recurrence Recurrence
	Hour       int
	Minute     int
	Weekday    time.Weekday // Weekly only
	Year       int          // Once only
	Month      time.Month   // Once only
	Day        int          // Once only
	Track      Track
	Fired      bool
}

// Empty reports whether r is the empty-slot sentinel.
func (r Record) Empty() bool {
	return r.Track == TrackNone
}

// Validate checks the fields a scheduler relies on. Records written through
// the API are validated before they reach the store, but a persisted blob may
// still carry garbage.
func (r Record) Validate() error {
	if r.Track != TrackRandom && !r.Track.Valid() {
		return fmt.Errorf("invalid track %d", r.Track)
	}
	if r.Hour < 0 || r.Hour > 23 || r.Minute < 0 || r.Minute > 59 {
		return fmt.Errorf("invalid time %02d:%02d", r.Hour, r.Minute)
	}
	switch r.Recurrence {
	case Daily:
	case Weekly:
		if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
			return fmt.Errorf("invalid weekday %d", r.Weekday)
		}
	case Once:
		if r.Month < time.January || r.Month > time.December || r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("invalid date %04d-%02d-%02d", r.Year, r.Month, r.Day)
		}
	default:
		return fmt.Errorf("invalid recurrence %d", r.Recurrence)
	}
	return nil
}

// Describe renders r the way the alarm list shows it, e.g. "07:00 every Monday".
func (r Record) Describe() string {
	hm := fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
	switch r.Recurrence {
	case Daily:
		return hm + " every day"
	case Weekly:
		return hm + " every " + r.Weekday.String()
	case Once:
		return fmt.Sprintf("%s on %02d/%02d/%04d", hm, r.Day, int(r.Month), r.Year)
	default:
		return hm
	}
}

// RecordSize is the encoded size of one slot.
const RecordSize = 10

// MarshalBinary encodes r into its fixed-size slot representation.
func (r Record) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	r.put(buf)
	return buf, nil
}

// UnmarshalBinary decodes a slot produced by MarshalBinary.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("record is %d bytes, want %d", len(data), RecordSize)
	}
	*r = Record{
		Recurrence: Recurrence(data[0]),
		Hour:       int(data[1]),
		Minute:     int(data[2]),
		Weekday:    time.Weekday(data[3]),
		Year:       int(binary.LittleEndian.Uint16(data[4:6])),
		Month:      time.Month(data[6]),
		Day:        int(data[7]),
		Track:      Track(int8(data[8])),
		Fired:      data[9] != 0,
	}
	return nil
}

func (r Record) put(buf []byte) {
	if r.Empty() {
		clear(buf[:RecordSize])
		return
	}
	buf[0] = byte(r.Recurrence)
	buf[1] = byte(r.Hour)
	buf[2] = byte(r.Minute)
	buf[3] = byte(r.Weekday)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(r.Year))
	buf[6] = byte(r.Month)
	buf[7] = byte(r.Day)
	buf[8] = byte(r.Track)
	buf[9] = 0
	if r.Fired {
		buf[9] = 1
	}
}
