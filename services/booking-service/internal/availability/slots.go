// Package availability holds the minute arithmetic behind slot generation:
// half-open overlap, weekly windows and the duration grid anchored at a
// window's start. All values are local minutes since midnight.
package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

var ErrInvalidClock = errors.New("invalid time (expected HH:MM)")

type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect. Empty
// ranges never overlap anything.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < aEnd && bStart < bEnd && aStart < bEnd && aEnd > bStart
}

// OverlapsTime is Overlaps over instants.
func OverlapsTime(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(aEnd) && bStart.Before(bEnd) &&
		aStart.Before(bEnd) && aEnd.After(bStart)
}

func OverlapsAny(start, end int, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// ParseClock parses a zero padded 24h HH:MM into minutes since midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrInvalidClock
	}
	h, okH := twoDigits(s[0:2])
	m, okM := twoDigits(s[3:5])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, ErrInvalidClock
	}
	return h*60 + m, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// FormatClock is the inverse of ParseClock.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type Window struct {
	Start int
	End   int
}

func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{Start: s, End: e}
	if !w.Valid() {
		return Window{}, fmt.Errorf("window %s-%s: end must be after start", start, end)
	}
	return w, nil
}

func (w Window) Valid() bool { return w.End > w.Start }

// Windows converts stored availability rows, dropping malformed ones.
func Windows(rows []model.Availability) []Window {
	out := make([]Window, 0, len(rows))
	for _, r := range rows {
		w, err := ParseWindow(r.StartTime, r.EndTime)
		if err != nil {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Fits reports whether [start,end) lies inside the window on the grid of
// duration anchored at the window start.
func (w Window) Fits(start, end, duration int) bool {
	if duration <= 0 || !w.Valid() {
		return false
	}
	return start >= w.Start && end <= w.End && (start-w.Start)%duration == 0
}

// FitsAny reports whether the candidate fits at least one window.
func FitsAny(windows []Window, start, end, duration int) bool {
	for _, w := range windows {
		if w.Fits(start, end, duration) {
			return true
		}
	}
	return false
}

// Slots returns the grid starts of the window whose [s, s+duration) avoids
// every busy interval, ascending.
func (w Window) Slots(duration int, busy []Interval) []int {
	if duration <= 0 || !w.Valid() {
		return nil
	}
	var slots []int
	for s := w.Start; s+duration <= w.End; s += duration {
		if !OverlapsAny(s, s+duration, busy) {
			slots = append(slots, s)
		}
	}
	return slots
}
