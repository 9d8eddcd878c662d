package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestMonthGrid(t *testing.T) {
	// March 2025 starts on a Saturday.
	rng := MonthGrid(2025, time.March, time.Monday, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC), rng.Start)
	assert.Equal(t, time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC), rng.End)
	assert.Len(t, Days(rng, time.UTC), 42)

	sunday := MonthGrid(2025, time.March, time.Sunday, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 23, 0, 0, 0, 0, time.UTC), sunday.Start)
}

func TestMonthGridStartsOnFirstWhenAligned(t *testing.T) {
	// September 2025 starts on a Monday.
	rng := MonthGrid(2025, time.September, time.Monday, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), rng.Start)
}

func TestWeekAndDayRange(t *testing.T) {
	anchor := time.Date(2025, 3, 13, 15, 30, 0, 0, time.UTC) // Thursday
	week := WeekRange(anchor, time.Monday, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), week.Start)
	assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), week.End)

	day := DayRange(anchor, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), day.Start)
	assert.True(t, day.Contains(anchor))
	assert.False(t, day.Contains(day.End))
}

func TestDaysAcrossDSTStayOnMidnight(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	// DST starts 2025-03-09 in New York.
	rng := WeekRange(time.Date(2025, 3, 9, 12, 0, 0, 0, loc), time.Sunday, loc)
	days := Days(rng, loc)
	require.Len(t, days, 7)
	for _, d := range days {
		assert.Equal(t, 0, d.Hour(), d.String())
	}
	assert.Equal(t, 23*time.Hour, days[1].Sub(days[0]))
}

func TestBucketByDay(t *testing.T) {
	loc := time.UTC
	rng := Range{Start: time.Date(2025, 5, 1, 0, 0, 0, 0, loc), End: time.Date(2025, 5, 4, 0, 0, 0, 0, loc)}
	entries := []Entry{
		{ID: "late", Start: time.Date(2025, 5, 1, 18, 0, 0, 0, loc), End: time.Date(2025, 5, 1, 19, 0, 0, 0, loc)},
		{ID: "multi", Start: time.Date(2025, 5, 1, 20, 0, 0, 0, loc), End: time.Date(2025, 5, 3, 2, 0, 0, 0, loc)},
		{ID: "midnight", Start: time.Date(2025, 5, 1, 9, 0, 0, 0, loc), End: time.Date(2025, 5, 2, 0, 0, 0, 0, loc)},
		{ID: "early-short", Start: time.Date(2025, 5, 1, 9, 0, 0, 0, loc), End: time.Date(2025, 5, 1, 10, 0, 0, 0, loc)},
		{ID: "outside", Start: time.Date(2025, 5, 10, 9, 0, 0, 0, loc), End: time.Date(2025, 5, 10, 10, 0, 0, 0, loc)},
	}

	days := BucketByDay(entries, rng, loc)
	require.Len(t, days, 3)

	ids := func(d Day) []string {
		var out []string
		for _, e := range d.Entries {
			out = append(out, e.ID)
		}
		return out
	}

	// Same start: the longer entry comes first.
	assert.Equal(t, []string{"midnight", "early-short", "late", "multi"}, ids(days[0]))
	// Ending exactly at midnight does not spill into the next day.
	assert.Equal(t, []string{"multi"}, ids(days[1]))
	assert.Equal(t, []string{"multi"}, ids(days[2]))
}

func TestBucketByDayEmptyDaysHaveEmptySlices(t *testing.T) {
	rng := DayRange(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	days := BucketByDay(nil, rng, time.UTC)
	require.Len(t, days, 1)
	assert.NotNil(t, days[0].Entries)
	assert.Empty(t, days[0].Entries)
}

func TestBucketByDayUsesLocation(t *testing.T) {
	loc := mustLoc(t, "Asia/Tokyo")
	// 20:00 UTC on May 1 is 05:00 on May 2 in Tokyo.
	e := Entry{ID: "e", Start: time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC), End: time.Date(2025, 5, 1, 21, 0, 0, 0, time.UTC)}
	rng := Range{Start: time.Date(2025, 5, 1, 0, 0, 0, 0, loc), End: time.Date(2025, 5, 3, 0, 0, 0, 0, loc)}

	days := BucketByDay([]Entry{e}, rng, loc)
	require.Len(t, days, 2)
	assert.Empty(t, days[0].Entries)
	assert.Len(t, days[1].Entries, 1)
}

func TestLayoutDay(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)
	at := func(h, m int) time.Time { return time.Date(2025, 6, 2, h, m, 0, 0, loc) }

	entries := []Entry{
		{ID: "a", Start: at(9, 0), End: at(11, 0)},
		{ID: "b", Start: at(9, 30), End: at(10, 0)},
		{ID: "c", Start: at(10, 0), End: at(10, 30)},
		{ID: "d", Start: at(10, 15), End: at(12, 0)},
		{ID: "solo", Start: at(13, 0), End: at(14, 0)},
		{ID: "conf", Start: at(0, 0).AddDate(0, 0, -1), End: at(0, 0).AddDate(0, 0, 2)},
		{ID: "other-day", Start: at(9, 0).AddDate(0, 0, 1), End: at(10, 0).AddDate(0, 0, 1)},
	}

	placements := LayoutDay(entries, day, loc)
	byID := map[string]Placement{}
	for _, p := range placements {
		byID[p.Entry.ID] = p
	}

	require.Len(t, placements, 6)
	assert.Equal(t, "conf", placements[0].Entry.ID)
	assert.True(t, byID["conf"].AllDay)

	assert.Equal(t, 0, byID["a"].Column)
	assert.Equal(t, 1, byID["b"].Column)
	// c starts when b ends, so it reuses column 1.
	assert.Equal(t, 1, byID["c"].Column)
	assert.Equal(t, 2, byID["d"].Column)
	for _, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, 3, byID[id].Columns, id)
	}

	assert.Equal(t, 0, byID["solo"].Column)
	assert.Equal(t, 1, byID["solo"].Columns)
	assert.False(t, byID["solo"].AllDay)
}

func TestLayoutDayEventEndingAtMidnightIsTimed(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	e := Entry{ID: "x", Start: time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC), End: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)}

	placements := LayoutDay([]Entry{e}, day, time.UTC)
	require.Len(t, placements, 1)
	assert.False(t, placements[0].AllDay)
}

func TestParseView(t *testing.T) {
	v, err := ParseView("")
	require.NoError(t, err)
	assert.Equal(t, ViewMonth, v)

	_, err = ParseView("year")
	assert.Error(t, err)
}
