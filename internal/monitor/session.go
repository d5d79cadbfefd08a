package monitor

import (
	"time"

	"ragoalert/internal/models"
)

// sessionTolerance is how far from the nominal trigger hour a trend
// session may still fire.
const sessionTolerance = 5 * time.Minute

// isDSTMonth approximates US daylight saving time by month. The few
// edge days around the March and November transitions shift session
// hours by one hour; a calendar-accurate timezone lookup would fix
// that at the cost of changing established notification times.
func isDSTMonth(t time.Time) bool {
	m := t.Month()
	return m >= time.March && m <= time.October
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// sessionHourUTC returns the nominal UTC trigger hour for a session.
func sessionHourUTC(kind models.SessionKind, t time.Time) int {
	dst := isDSTMonth(t)
	if kind == models.SessionPreMarket {
		if dst {
			return 13
		}
		return 14
	}
	if dst {
		return 21
	}
	return 22
}

// withinSessionWindow reports whether now is inside the tolerance of
// the session's trigger hour.
func withinSessionWindow(kind models.SessionKind, now time.Time) bool {
	utc := now.UTC()
	target := time.Date(utc.Year(), utc.Month(), utc.Day(), sessionHourUTC(kind, utc), 0, 0, 0, time.UTC)
	diff := utc.Sub(target)
	if diff < 0 {
		diff = -diff
	}
	return diff <= sessionTolerance
}

// fluctuationWindowOpen reports whether intraday polling should run.
// The US regular session maps to UTC 08:00-24:00 in DST months and
// 09:00-01:00 (crossing midnight) otherwise; weekends are excluded.
func fluctuationWindowOpen(now time.Time) bool {
	utc := now.UTC()
	if !isWeekday(utc) {
		return false
	}
	hour := utc.Hour()
	if isDSTMonth(utc) {
		return hour >= 8
	}
	return hour >= 9 || hour < 1
}
