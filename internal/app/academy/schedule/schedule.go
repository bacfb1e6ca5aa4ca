// Package schedule holds the calendar rules of the academy: how a cohort's
// date range is cut into academic weeks, whether a task window is open, and
// whether an action on a task is on time.
//
// Every comparison here is calendar-day grained in the academy's time zone.
// A task opening at 23:59 and an action at 00:01 of the following day are
// one day apart; an action at 00:01 and a task at 23:59 on the same day are
// the same day.
package schedule

import (
	"errors"
	"time"
)

var (
	// ErrInvalidRange is returned when a range starts after it ends.
	ErrInvalidRange = errors.New("start date is after end date")

	// ErrBeforeWindow is returned for an action on a day before the task's
	// start day.
	ErrBeforeWindow = errors.New("task window has not begun")
)

// DaysPerWeek is the length of a full academic week.
const DaysPerWeek = 7

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// StartOfDay returns 00:00:00.000 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	loc = locOrUTC(loc)
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.000 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	loc = locOrUTC(loc)
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, 0, loc)
}

// CompareDays compares the calendar days of a and b in loc and returns
// -1, 0 or +1.
func CompareDays(a, b time.Time, loc *time.Location) int {
	da, db := StartOfDay(a, loc), StartOfDay(b, loc)
	switch {
	case da.Before(db):
		return -1
	case da.After(db):
		return 1
	}
	return 0
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return CompareDays(a, b, loc) == 0
}

// Week is one generated academic week. Start is at the beginning of its
// first day and End at 23:59:59 of its last day.
type Week struct {
	Number int
	Start  time.Time
	End    time.Time
}

// Days returns the number of calendar days the week spans.
func (w Week) Days(loc *time.Location) int {
	n := 0
	for d := StartOfDay(w.Start, loc); !d.After(w.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// NormalizeRange snaps start to the beginning of its day and end to the
// end of its day. It rejects start > end.
func NormalizeRange(start, end time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return StartOfDay(start, loc), EndOfDay(end, loc), nil
}

// GenerateWeeks partitions [start, end] into consecutive weeks of up to
// seven days, numbered from 1. The final week may be shorter. The weeks
// never overlap and together cover the whole normalized range.
func GenerateWeeks(start, end time.Time, loc *time.Location) ([]Week, error) {
	from, to, err := NormalizeRange(start, end, loc)
	if err != nil {
		return nil, err
	}

	var weeks []Week
	n := 1
	for cursor := from; !cursor.After(to); cursor = cursor.AddDate(0, 0, DaysPerWeek) {
		weekEnd := EndOfDay(cursor.AddDate(0, 0, DaysPerWeek-1), loc)
		if weekEnd.After(to) {
			weekEnd = to
		}
		weeks = append(weeks, Week{Number: n, Start: cursor, End: weekEnd})
		n++
	}
	return weeks, nil
}

// NextWeek returns the week that directly follows last, spanning days
// calendar days (clamped to 1..7).
func NextWeek(last Week, days int, loc *time.Location) Week {
	if days < 1 {
		days = 1
	}
	if days > DaysPerWeek {
		days = DaysPerWeek
	}
	start := StartOfDay(last.End, loc).AddDate(0, 0, 1)
	return Week{
		Number: last.Number + 1,
		Start:  start,
		End:    EndOfDay(start.AddDate(0, 0, days-1), loc),
	}
}

// Window is the state of a task relative to a reference instant.
type Window string

const (
	NotYetOpen Window = "not-yet-open"
	Open       Window = "open"
	Closed     Window = "closed"
)

// EvaluateWindow classifies ref against [start, end] (both inclusive).
// Closed is informational; the recorders decide on calendar days instead.
func EvaluateWindow(start, end, ref time.Time) Window {
	switch {
	case ref.Before(start):
		return NotYetOpen
	case ref.After(end):
		return Closed
	}
	return Open
}

// Lateness applies the on-time rule to an action taken at actionAt on a
// task scheduled to start at scheduledStart: the same calendar day is on
// time, a later day is late, and an earlier day is rejected with
// ErrBeforeWindow.
func Lateness(scheduledStart, actionAt time.Time, loc *time.Location) (late bool, err error) {
	switch CompareDays(actionAt, scheduledStart, loc) {
	case -1:
		return false, ErrBeforeWindow
	case 0:
		return false, nil
	}
	return true, nil
}
