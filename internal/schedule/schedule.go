package schedule

import (
	"errors"
	"time"
)

const (
	// Minimum lead time between "now" and the first send.
	MinLead = 5 * time.Minute
	// One-time sends must land within this window.
	MaxAhead = 7 * 24 * time.Hour
	// One-time sends are rounded up to this boundary.
	RoundTo = 15 * time.Minute
)

var (
	ErrTooSoon       = errors.New("SCHEDULE_TOO_SOON")
	ErrTooFar        = errors.New("SCHEDULE_TOO_FAR")
	ErrInvalidClock  = errors.New("INVALID_CLOCK")
	ErrInvalidDay    = errors.New("INVALID_DAY_OF_MONTH")
	ErrOutsideWindow = errors.New("OUTSIDE_SCHEDULE_WINDOW")
)

type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// ClockTime is the 12-hour form edited in the UI. Storage and the wire are
// always 24-hour.
type ClockTime struct {
	Hour     int
	Minute   int
	Meridiem Meridiem
}

// Hour24 converts exactly at both boundaries: 12 AM -> 0, 12 PM -> 12.
func (c ClockTime) Hour24() (int, error) {
	if c.Hour < 1 || c.Hour > 12 || c.Minute < 0 || c.Minute > 59 {
		return 0, ErrInvalidClock
	}

	switch c.Meridiem {
	case AM:
		if c.Hour == 12 {
			return 0, nil
		}
		return c.Hour, nil
	case PM:
		if c.Hour == 12 {
			return 12, nil
		}
		return c.Hour + 12, nil
	default:
		return 0, ErrInvalidClock
	}
}

// ClockFromHour24 back-converts a stored 24-hour time into editable fields.
func ClockFromHour24(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, ErrInvalidClock
	}

	switch {
	case hour == 0:
		return ClockTime{Hour: 12, Minute: minute, Meridiem: AM}, nil
	case hour < 12:
		return ClockTime{Hour: hour, Minute: minute, Meridiem: AM}, nil
	case hour == 12:
		return ClockTime{Hour: 12, Minute: minute, Meridiem: PM}, nil
	default:
		return ClockTime{Hour: hour - 12, Minute: minute, Meridiem: PM}, nil
	}
}

// OneTime is a single calendar send: date plus 12-hour clock.
type OneTime struct {
	Year  int
	Month time.Month
	Day   int
	Clock ClockTime
}

// Monthly recurs on a day of month, clamped to shorter months, inside an
// optional start/end window.
type Monthly struct {
	Day   int
	Clock ClockTime
	Start *time.Time
	End   *time.Time
}

// ResolveOneTime validates and resolves a one-time schedule to a concrete
// instant. The raw instant must be at least MinLead away; it is then rounded
// up to the next RoundTo boundary and must stay within MaxAhead.
func ResolveOneTime(s OneTime, now time.Time) (time.Time, error) {
	hour, err := s.Clock.Hour24()
	if err != nil {
		return time.Time{}, err
	}

	at := time.Date(s.Year, s.Month, s.Day, hour, s.Clock.Minute, 0, 0, now.Location())
	if at.Before(now.Add(MinLead)) {
		return time.Time{}, ErrTooSoon
	}

	at = roundUp(at, RoundTo)
	if at.After(now.Add(MaxAhead)) {
		return time.Time{}, ErrTooFar
	}

	return at, nil
}

// NextMonthly resolves the next occurrence of a monthly schedule after now.
// When the configured day falls on today, the MinLead rule applies to the
// time of day; otherwise the occurrence simply moves to the next month.
func NextMonthly(s Monthly, now time.Time) (time.Time, error) {
	if s.Day < 1 || s.Day > 31 {
		return time.Time{}, ErrInvalidDay
	}

	hour, err := s.Clock.Hour24()
	if err != nil {
		return time.Time{}, err
	}

	occ := occurrenceIn(now.Year(), now.Month(), s.Day, hour, s.Clock.Minute, now.Location())
	if occ.Before(now.Add(MinLead)) {
		next := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		occ = occurrenceIn(next.Year(), next.Month(), s.Day, hour, s.Clock.Minute, now.Location())
	}

	if s.Start != nil && occ.Before(*s.Start) {
		occ = occurrenceIn(s.Start.Year(), s.Start.Month(), s.Day, hour, s.Clock.Minute, now.Location())
		if occ.Before(*s.Start) {
			next := time.Date(s.Start.Year(), s.Start.Month()+1, 1, 0, 0, 0, 0, now.Location())
			occ = occurrenceIn(next.Year(), next.Month(), s.Day, hour, s.Clock.Minute, now.Location())
		}
	}

	if s.End != nil && occ.After(*s.End) {
		return time.Time{}, ErrOutsideWindow
	}

	return occ, nil
}

// EffectiveDay clamps a configured day-of-month to the length of the given
// month, so day 31 runs on Feb 28/29. The clamping is surfaced to the user,
// never hidden.
func EffectiveDay(year int, month time.Month, day int) int {
	last := daysIn(year, month)
	if day > last {
		return last
	}
	return day
}

func occurrenceIn(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	return time.Date(year, month, EffectiveDay(year, month, day), hour, minute, 0, 0, loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func roundUp(t time.Time, d time.Duration) time.Time {
	rounded := t.Truncate(d)
	if rounded.Before(t) {
		rounded = rounded.Add(d)
	}
	return rounded
}
