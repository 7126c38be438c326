package civiltime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMinutesOfDay(t *testing.T) {
	assert.Equal(t, 9*60, MinutesOfDay(utc("2026-03-02T12:00:00Z")))
	assert.Equal(t, 21*60+30, MinutesOfDay(utc("2026-03-03T00:30:00Z")))
	assert.Equal(t, 0, MinutesOfDay(utc("2026-03-02T03:00:00Z")))
	assert.Equal(t, 1439, MinutesOfDay(utc("2026-03-03T02:59:59Z")))
}

func TestDayRangeOf(t *testing.T) {
	// 01:00Z on Tuesday is still Monday 22:00 locally.
	r := DayRangeOf(utc("2026-03-03T01:00:00Z"))
	assert.Equal(t, utc("2026-03-02T03:00:00Z"), r.Start)
	assert.Equal(t, utc("2026-03-03T03:00:00Z"), r.End)
	assert.Equal(t, 1, r.Weekday)
	assert.Equal(t, "2026-03-02", r.Date())
}

func TestDayRangeFromCivilDateRoundTrip(t *testing.T) {
	for _, d := range []string{"2026-01-01", "2026-02-28", "2028-02-29", "2026-12-31", "1999-07-04"} {
		r, err := ParseDate(d)
		require.NoError(t, err, d)

		l := Local(r.Start)
		assert.Equal(t, d, l.Format(DateLayout))
		assert.Equal(t, 0, l.Hour())
		assert.Equal(t, 0, l.Minute())
		assert.Equal(t, int(l.Weekday()), r.Weekday)
		assert.Equal(t, 24*time.Hour, r.End.Sub(r.Start))
		assert.Equal(t, r, DayRangeOf(r.Start))
	}
}

func TestWeekdayIsLocal(t *testing.T) {
	r, err := DayRangeFromCivilDate(2026, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Weekday) // Sunday
	r, err = DayRangeFromCivilDate(2026, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, 6, r.Weekday)
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"", "2026-03", "2026-00-10", "2026-03-00", "0-03-10", "abcd-03-10", "2026-02-30", "2026-13-01", "2026-03-10-1", "-2026-03-10"} {
		_, err := ParseDate(s)
		assert.ErrorIs(t, err, ErrInvalidDate, s)
	}
}

func TestDaysBetween(t *testing.T) {
	now := utc("2026-03-02T12:00:00Z") // Monday 09:00 local
	assert.Equal(t, 0, DaysBetween(now, utc("2026-03-03T02:59:00Z")))
	assert.Equal(t, 1, DaysBetween(now, utc("2026-03-03T03:00:00Z")))
	assert.Equal(t, -1, DaysBetween(now, utc("2026-03-02T02:59:00Z")))
	assert.Equal(t, 7, DaysBetween(now, utc("2026-03-09T12:00:00Z")))

	// Calendar days, not elapsed time.
	lateNight := utc("2026-03-03T02:59:00Z")
	assert.Equal(t, 1, DaysBetween(lateNight, lateNight.Add(2*time.Minute)))

	// Before the epoch the floor still rounds toward negative infinity.
	assert.Equal(t, 1, DaysBetween(utc("1969-12-31T02:00:00Z"), utc("1969-12-31T04:00:00Z")))
}

func TestClip(t *testing.T) {
	r, err := ParseDate("2026-03-02")
	require.NoError(t, err)

	from, to, ok := r.Clip(utc("2026-03-02T12:30:00Z"), utc("2026-03-02T13:00:00Z"))
	require.True(t, ok)
	assert.Equal(t, 9*60+30, from)
	assert.Equal(t, 10*60, to)

	// A vacation spanning several days covers the whole day.
	from, to, ok = r.Clip(utc("2026-02-27T00:00:00Z"), utc("2026-03-05T00:00:00Z"))
	require.True(t, ok)
	assert.Equal(t, 0, from)
	assert.Equal(t, MinutesPerDay, to)

	_, _, ok = r.Clip(utc("2026-03-03T03:00:00Z"), utc("2026-03-03T05:00:00Z"))
	assert.False(t, ok)

	assert.Equal(t, utc("2026-03-02T12:00:00Z"), r.At(9*60))
}

func TestClipRoundsPartialMinutesOutward(t *testing.T) {
	r, err := ParseDate("2026-03-02")
	require.NoError(t, err)

	from, to, ok := r.Clip(utc("2026-03-02T12:00:00Z"), utc("2026-03-02T12:30:30Z"))
	require.True(t, ok)
	assert.Equal(t, 9*60, from)
	assert.Equal(t, 9*60+31, to)

	from, to, ok = r.Clip(utc("2026-03-02T12:10:45Z"), utc("2026-03-02T12:10:50Z"))
	require.True(t, ok)
	assert.Equal(t, 9*60+10, from)
	assert.Equal(t, 9*60+11, to, "a sub-minute block still covers its minute")

	from, to, ok = r.Clip(utc("2026-03-02T12:00:00Z"), utc("2026-03-02T12:30:00.000000001Z"))
	require.True(t, ok)
	assert.Equal(t, 9*60, from)
	assert.Equal(t, 9*60+31, to)
}
