package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-campus/internal/calendar"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"
)

type CalendarQuery struct {
	View      calendar.View
	Date      string
	Timezone  string
	WeekStart time.Weekday
}

type CalendarDay struct {
	calendar.Day
	InMonth bool `json:"in_month"`
}

type CalendarView struct {
	View     calendar.View        `json:"view"`
	Timezone string               `json:"timezone"`
	Range    calendar.Range       `json:"range"`
	Days     []CalendarDay        `json:"days"`
	Layout   []calendar.Placement `json:"layout,omitempty"`
}

// ParseWeekStart accepts "monday" (default) or "sunday".
func ParseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(s) {
	case "", "monday", "mon":
		return time.Monday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	}
	return 0, fmt.Errorf("%w: week_start must be monday or sunday", models.ErrInvalidInput)
}

// Calendar buckets published events into the days of the requested view.
// The day view also includes a column layout for overlapping events.
func (s *EventService) Calendar(ctx context.Context, q CalendarQuery) (*CalendarView, error) {
	tz := q.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", models.ErrInvalidInput, tz)
	}

	anchor, err := utils.ParseDate(q.Date, s.Clock.Now(), loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", models.ErrInvalidInput)
	}

	view := q.View
	if view == "" {
		view = calendar.ViewMonth
	}
	rng := calendar.RangeFor(view, anchor, q.WeekStart, loc)

	events, err := s.DB.ListPublishedBetween(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar events: %w", err)
	}

	entries := make([]calendar.Entry, 0, len(events))
	for _, e := range events {
		entries = append(entries, calendar.Entry{ID: e.ID, Title: e.Title, Start: e.StartsAt, End: e.EndsAt})
	}

	out := &CalendarView{View: view, Timezone: tz, Range: rng}
	for _, d := range calendar.BucketByDay(entries, rng, loc) {
		out.Days = append(out.Days, CalendarDay{
			Day:     d,
			InMonth: view != calendar.ViewMonth || d.Date.Month() == anchor.Month(),
		})
	}
	if view == calendar.ViewDay {
		out.Layout = calendar.LayoutDay(entries, anchor, loc)
	}
	return out, nil
}
