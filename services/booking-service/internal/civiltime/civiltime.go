// Package civiltime maps stored UTC instants onto the shop's local calendar.
//
// The local calendar is America/Sao_Paulo pinned to UTC-03:00. Daylight saving
// is not modelled: every conversion subtracts the same 180 minutes.
package civiltime

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	OffsetMinutes = 180

	MinutesPerDay = 24 * 60
	msPerDay      = int64(MinutesPerDay) * 60 * 1000
	offsetMs      = int64(OffsetMinutes) * 60 * 1000

	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var Location = time.FixedZone("America/Sao_Paulo", -OffsetMinutes*60)

var ErrInvalidDate = errors.New("invalid date (expected YYYY-MM-DD)")

// DayRange is one local calendar day as the half-open UTC range [Start, End).
type DayRange struct {
	Start   time.Time
	End     time.Time
	Weekday int // 0 = Sunday
}

// MinutesOfDay returns the local wall clock of t as minutes since midnight.
func MinutesOfDay(t time.Time) int {
	l := t.In(Location)
	return l.Hour()*60 + l.Minute()
}

// DayRangeOf returns the local day containing t.
func DayRangeOf(t time.Time) DayRange {
	l := t.In(Location)
	return dayRange(l.Year(), l.Month(), l.Day())
}

// ParseDate parses a YYYY-MM-DD local date.
func ParseDate(s string) (DayRange, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return DayRange{}, ErrInvalidDate
	}
	var f [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return DayRange{}, ErrInvalidDate
		}
		f[i] = n
	}
	return DayRangeFromCivilDate(f[0], f[1], f[2])
}

// DayRangeFromCivilDate returns the UTC range of the local date y-m-d. All
// fields must be positive and name a real calendar day.
func DayRangeFromCivilDate(y, m, d int) (DayRange, error) {
	if y <= 0 || m <= 0 || d <= 0 {
		return DayRange{}, ErrInvalidDate
	}
	r := dayRange(y, time.Month(m), d)
	l := r.Start.In(Location)
	if l.Year() != y || int(l.Month()) != m || l.Day() != d {
		return DayRange{}, ErrInvalidDate
	}
	return r, nil
}

// DaysBetween is the number of local calendar days from now to target.
// It compares dates, not elapsed 24h periods: 23:59 to 00:01 is one day.
func DaysBetween(now, target time.Time) int {
	return int(dayIndex(target) - dayIndex(now))
}

func dayIndex(t time.Time) int64 {
	ms := t.UnixMilli() - offsetMs
	q := ms / msPerDay
	if ms%msPerDay < 0 {
		q--
	}
	return q
}

func dayRange(y int, m time.Month, d int) DayRange {
	start := time.Date(y, m, d, 0, 0, 0, 0, Location)
	return DayRange{
		Start:   start.UTC(),
		End:     start.Add(24 * time.Hour).UTC(),
		Weekday: int(start.Weekday()),
	}
}

// At returns the UTC instant minutes after local midnight of the day.
func (r DayRange) At(minutes int) time.Time {
	return r.Start.Add(time.Duration(minutes) * time.Minute)
}

// Minutes returns the offset of t from local midnight of the day. Unlike
// MinutesOfDay the result is not wrapped, so the next midnight is 1440.
func (r DayRange) Minutes(t time.Time) int {
	return int(t.Sub(r.Start) / time.Minute)
}

// Clip intersects [start, end) with the day and returns it in local minutes,
// widened to whole minutes: the start rounds down and the end rounds up.
// ok is false when nothing of the range falls on the day.
func (r DayRange) Clip(start, end time.Time) (from, to int, ok bool) {
	if !start.Before(r.End) || !end.After(r.Start) || !end.After(start) {
		return 0, 0, false
	}
	if start.Before(r.Start) {
		start = r.Start
	}
	if end.After(r.End) {
		end = r.End
	}
	to = r.Minutes(end)
	if r.Start.Add(time.Duration(to) * time.Minute).Before(end) {
		to++
	}
	return r.Minutes(start), to, true
}

// Date formats the day as YYYY-MM-DD.
func (r DayRange) Date() string { return r.Start.In(Location).Format(DateLayout) }

// Local returns t on the local wall clock.
func Local(t time.Time) time.Time { return t.In(Location) }
