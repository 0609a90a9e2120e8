// Package parse turns the alarm form fields into validated records.
package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bedclock/internal/alarm"
)

var (
	ErrRepeats = errors.New("invalid repeats")
	ErrTime    = errors.New("invalid alarm time")
	ErrSong    = errors.New("invalid song")
	ErrEpoch   = errors.New("invalid epoch")
)

var (
	dailyRe  = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
	weeklyRe = regexp.MustCompile(`^(\d{2}):(\d{2})\s*[ ,/-]?\s*([0-6])$`)
	epochRe  = regexp.MustCompile(`^\d{10}$`)
)

// onceLayout is the datetime-local value a browser submits, e.g. 2017-06-01T08:30.
const onceLayout = "2006-01-02T15:04"

// Alarm builds a record from the form fields repeats (0 daily, 1 weekly,
// 2 once), alarmtime and song (-1 random, 1..3).
//
// alarmtime is "HH:MM" for daily alarms, "HH:MM D" with D the weekday
// (0 = Sunday) for weekly ones and "YYYY-MM-DDTHH:MM" for one-off alarms.
func Alarm(repeats int, alarmTime string, song int) (alarm.Record, error) {
	var rec alarm.Record
	if repeats < 0 || repeats > int(alarm.Once) {
		return rec, fmt.Errorf("%w: %d", ErrRepeats, repeats)
	}
	rec.Recurrence = alarm.Recurrence(repeats)

	track, err := Song(song)
	if err != nil {
		return rec, err
	}
	rec.Track = track

	alarmTime = strings.TrimSpace(alarmTime)
	switch rec.Recurrence {
	case alarm.Daily:
		m := dailyRe.FindStringSubmatch(alarmTime)
		if m == nil {
			return rec, fmt.Errorf("%w: %q is not HH:MM", ErrTime, alarmTime)
		}
		rec.Hour, rec.Minute = atoi(m[1]), atoi(m[2])
	case alarm.Weekly:
		m := weeklyRe.FindStringSubmatch(alarmTime)
		if m == nil {
			return rec, fmt.Errorf("%w: %q is not HH:MM D", ErrTime, alarmTime)
		}
		rec.Hour, rec.Minute = atoi(m[1]), atoi(m[2])
		rec.Weekday = time.Weekday(atoi(m[3]))
	case alarm.Once:
		t, err := time.Parse(onceLayout, alarmTime)
		if err != nil {
			return rec, fmt.Errorf("%w: %q is not YYYY-MM-DDTHH:MM", ErrTime, alarmTime)
		}
		rec.Hour, rec.Minute = t.Hour(), t.Minute()
		rec.Year, rec.Month, rec.Day = t.Date()
	}

	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrTime, err)
	}
	return rec, nil
}

// Song checks a track number, accepting -1 for a random pick.
func Song(n int) (alarm.Track, error) {
	track := alarm.Track(n)
	if int(track) != n || (track != alarm.TrackRandom && !track.Valid()) {
		return alarm.TrackNone, fmt.Errorf("%w: %d", ErrSong, n)
	}
	return track, nil
}

// Epoch parses a ten-digit unix timestamp in seconds.
func Epoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !epochRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q is not 10 digits", ErrEpoch, s)
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrEpoch, err)
	}
	return time.Unix(sec, 0), nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// AlarmTime renders rec's time fields in the form Alarm accepts.
func AlarmTime(rec alarm.Record) string {
	switch rec.Recurrence {
	case alarm.Weekly:
		return fmt.Sprintf("%02d:%02d %d", rec.Hour, rec.Minute, int(rec.Weekday))
	case alarm.Once:
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d", rec.Year, int(rec.Month), rec.Day, rec.Hour, rec.Minute)
	default:
		return fmt.Sprintf("%02d:%02d", rec.Hour, rec.Minute)
	}
}
