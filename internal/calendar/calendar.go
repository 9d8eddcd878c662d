// Package calendar holds the date arithmetic behind the event calendar:
// month, week and day ranges, bucketing events into days and laying out
// overlapping events inside a single day.
//
// All functions take an explicit *time.Location. Days are computed with
// time.Date and AddDate so they stay aligned to local midnight across
// daylight saving changes.
package calendar

import (
	"fmt"
	"sort"
	"time"
)

type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

func ParseView(s string) (View, error) {
	switch View(s) {
	case "":
		return ViewMonth, nil
	case ViewMonth, ViewWeek, ViewDay:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown calendar view %q", s)
}

// gridDays is the number of cells in a month grid: six weeks always cover
// any month regardless of where it starts.
const gridDays = 42

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Entry is anything with a start and end that can be placed on a calendar.
type Entry struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (e Entry) duration() time.Duration {
	return e.End.Sub(e.Start)
}

// overlaps reports whether e touches [start, end). A zero-length entry
// belongs to the day its instant falls in.
func (e Entry) overlaps(start, end time.Time) bool {
	if !e.End.After(e.Start) {
		return !e.Start.Before(start) && e.Start.Before(end)
	}
	return e.Start.Before(end) && e.End.After(start)
}

type Day struct {
	Date    time.Time `json:"date"`
	Entries []Entry   `json:"entries"`
}

// StartOfDay returns local midnight of the day t falls on in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func weekOffset(day, weekStart time.Weekday) int {
	return (int(day) - int(weekStart) + 7) % 7
}

// MonthGrid returns the 6x7 grid covering month, beginning on the most
// recent weekStart on or before the first of the month.
func MonthGrid(year int, month time.Month, weekStart time.Weekday, loc *time.Location) Range {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -weekOffset(first.Weekday(), weekStart))
	return Range{Start: start, End: start.AddDate(0, 0, gridDays)}
}

// WeekRange returns the seven days containing anchor.
func WeekRange(anchor time.Time, weekStart time.Weekday, loc *time.Location) Range {
	day := StartOfDay(anchor, loc)
	start := day.AddDate(0, 0, -weekOffset(day.Weekday(), weekStart))
	return Range{Start: start, End: start.AddDate(0, 0, 7)}
}

// DayRange returns the single day containing anchor.
func DayRange(anchor time.Time, loc *time.Location) Range {
	start := StartOfDay(anchor, loc)
	return Range{Start: start, End: start.AddDate(0, 0, 1)}
}

// RangeFor picks the range for view around anchor.
func RangeFor(view View, anchor time.Time, weekStart time.Weekday, loc *time.Location) Range {
	switch view {
	case ViewWeek:
		return WeekRange(anchor, weekStart, loc)
	case ViewDay:
		return DayRange(anchor, loc)
	default:
		a := anchor.In(loc)
		return MonthGrid(a.Year(), a.Month(), weekStart, loc)
	}
}

// Days lists local midnights in rng.
func Days(rng Range, loc *time.Location) []time.Time {
	var days []time.Time
	for d := StartOfDay(rng.Start, loc); d.Before(rng.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.duration() != b.duration() {
			return a.duration() > b.duration()
		}
		return a.ID < b.ID
	})
}

// BucketByDay returns every day in rng with the entries overlapping it.
// Multi-day entries appear on each day they touch.
func BucketByDay(entries []Entry, rng Range, loc *time.Location) []Day {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sortEntries(sorted)

	days := Days(rng, loc)
	out := make([]Day, 0, len(days))
	for _, d := range days {
		next := d.AddDate(0, 0, 1)
		day := Day{Date: d, Entries: []Entry{}}
		for _, e := range sorted {
			if e.overlaps(d, next) {
				day.Entries = append(day.Entries, e)
			}
		}
		out = append(out, day)
	}
	return out
}

// Placement positions an entry inside a day view. Timed entries that
// overlap share a cluster; Columns is the column count of that cluster.
type Placement struct {
	Entry   Entry `json:"entry"`
	AllDay  bool  `json:"all_day"`
	Column  int   `json:"column"`
	Columns int   `json:"columns"`
}

// LayoutDay assigns columns to the entries of the day containing day.
// Entries extending past either midnight are flagged AllDay and listed
// first. Timed entries get the first column that is free at their start.
func LayoutDay(entries []Entry, day time.Time, loc *time.Location) []Placement {
	rng := DayRange(day, loc)

	var allDay, timed []Entry
	for _, e := range entries {
		if !e.overlaps(rng.Start, rng.End) {
			continue
		}
		if e.Start.Before(rng.Start) || e.End.After(rng.End) {
			allDay = append(allDay, e)
		} else {
			timed = append(timed, e)
		}
	}
	sortEntries(allDay)
	sortEntries(timed)

	out := make([]Placement, 0, len(allDay)+len(timed))
	for _, e := range allDay {
		out = append(out, Placement{Entry: e, AllDay: true, Columns: 1})
	}

	var (
		columnEnds   []time.Time
		clusterStart = len(out)
		clusterEnd   time.Time
	)
	closeCluster := func() {
		for i := clusterStart; i < len(out); i++ {
			out[i].Columns = len(columnEnds)
		}
		columnEnds = columnEnds[:0]
		clusterStart = len(out)
	}

	for _, e := range timed {
		end := e.End
		if !end.After(e.Start) {
			// Zero-length entries still occupy their column for an instant.
			end = e.Start.Add(time.Nanosecond)
		}

		if len(columnEnds) > 0 && !e.Start.Before(clusterEnd) {
			closeCluster()
		}
		if len(columnEnds) == 0 || end.After(clusterEnd) {
			clusterEnd = end
		}

		col := -1
		for i, colEnd := range columnEnds {
			if !e.Start.Before(colEnd) {
				col = i
				break
			}
		}
		if col == -1 {
			col = len(columnEnds)
			columnEnds = append(columnEnds, end)
		} else {
			columnEnds[col] = end
		}

		out = append(out, Placement{Entry: e, Column: col})
	}
	if len(columnEnds) > 0 {
		closeCluster()
	}
	return out
}
