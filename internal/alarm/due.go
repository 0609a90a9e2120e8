package alarm

import "time"

// IsDue reports whether rec matches now at minute granularity. Seconds are
// ignored, so a record stays due for the whole of its target minute; callers
// consult Fired to avoid triggering twice.
func IsDue(rec Record, now time.Time) bool {
	if rec.Hour != now.Hour() || rec.Minute != now.Minute() {
		return false
	}
	switch rec.Recurrence {
	case Daily:
		return true
	case Weekly:
		return rec.Weekday == now.Weekday()
	case Once:
		year, month, day := now.Date()
		return rec.Year == year && rec.Month == month && rec.Day == day
	default:
		return false
	}
}
