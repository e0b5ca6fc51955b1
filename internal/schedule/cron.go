package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidCronSpec = errors.New("INVALID_CRON_SPEC")

// Spec is the stored five-field form: minute hour day month weekday.
// Monthly schedules use "*" for the month; weekday is always "*".
type Spec struct {
	Minute int
	Hour   int
	Day    int
	Month  time.Month // 0 for recurring monthly specs
	Year   int        // 0 for recurring monthly specs
}

func (s Spec) Recurring() bool {
	return s.Month == 0
}

// MonthlyCron encodes a recurring monthly schedule.
func MonthlyCron(day, hour24, minute int) string {
	return fmt.Sprintf("%d %d %d * *", minute, hour24, day)
}

// OneTimeCron encodes a concrete instant. The year rides in the weekday
// slot so a stored one-time spec round-trips into editable fields.
func OneTimeCron(t time.Time) string {
	return fmt.Sprintf("%d %d %d %d %d", t.Minute(), t.Hour(), t.Day(), int(t.Month()), t.Year())
}

// ParseCron back-converts a stored spec into editable fields.
func ParseCron(spec string) (Spec, error) {
	fields := strings.Fields(spec)
	if len(fields) != 5 {
		return Spec{}, ErrInvalidCronSpec
	}

	minute, err := parseField(fields[0], 0, 59)
	if err != nil {
		return Spec{}, err
	}

	hour, err := parseField(fields[1], 0, 23)
	if err != nil {
		return Spec{}, err
	}

	day, err := parseField(fields[2], 1, 31)
	if err != nil {
		return Spec{}, err
	}

	out := Spec{Minute: minute, Hour: hour, Day: day}

	if fields[3] == "*" {
		if fields[4] != "*" {
			return Spec{}, ErrInvalidCronSpec
		}
		return out, nil
	}

	month, err := parseField(fields[3], 1, 12)
	if err != nil {
		return Spec{}, err
	}

	year, err := strconv.Atoi(fields[4])
	if err != nil || year < 2000 {
		return Spec{}, ErrInvalidCronSpec
	}

	out.Month = time.Month(month)
	out.Year = year

	return out, nil
}

func parseField(field string, min, max int) (int, error) {
	v, err := strconv.Atoi(field)
	if err != nil || v < min || v > max {
		return 0, ErrInvalidCronSpec
	}
	return v, nil
}
