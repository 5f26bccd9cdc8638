// Package timeutil provides calendar-day normalization in a fixed reference
// timezone. A grading day is defined by the instructor's timezone, never by
// the server or client clock, so two requests for the same lesson always land
// on the same day key regardless of where they were sent from.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// DayFormat is the wire format for calendar days (ISO date, no time part).
const DayFormat = "2006-01-02"

// DefaultTimezone is the reference timezone used when none is configured.
// The service originated for courses taught on US Eastern time.
const DefaultTimezone = "America/New_York"

// Clock abstracts wall-clock reads so that "today" can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// systemClock reads the real wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production Clock.
var SystemClock Clock = systemClock{}

// FixedClock always reports the same instant. Intended for tests.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Calendar maps instants onto calendar days of one fixed reference timezone.
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the named IANA timezone and returns a Calendar for it.
func NewCalendar(name string) (Calendar, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Calendar{}, fmt.Errorf("timeutil: load timezone %q: %w", name, err)
	}
	return Calendar{loc: loc}, nil
}

// MustCalendar is NewCalendar that panics on error. Use for known-good names.
func MustCalendar(name string) Calendar {
	c, err := NewCalendar(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Location returns the underlying timezone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// DayOf returns the calendar day the instant falls on in the reference timezone.
func (c Calendar) DayOf(t time.Time) string {
	return t.In(c.Location()).Format(DayFormat)
}

// Today returns the current calendar day according to the given clock.
func (c Calendar) Today(clock Clock) string {
	if clock == nil {
		clock = SystemClock
	}
	return c.DayOf(clock.Now())
}

// NormalizeDay parses a caller-supplied date and renders it as a calendar day
// in the reference timezone. Accepts a bare ISO date (taken as already being a
// day in the reference timezone) or an RFC 3339 timestamp (converted).
func (c Calendar) NormalizeDay(raw string) (string, error) {
	if t, err := time.ParseInLocation(DayFormat, raw, c.Location()); err == nil {
		return t.Format(DayFormat), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return c.DayOf(t), nil
	}
	return "", fmt.Errorf("timeutil: invalid date %q, want %s or RFC 3339", raw, DayFormat)
}

// IsValidDay reports whether raw is a well-formed calendar day.
func IsValidDay(raw string) bool {
	_, err := time.Parse(DayFormat, raw)
	return err == nil
}

// StartOfDay returns midnight of the instant's day in the reference timezone.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	local := t.In(c.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location())
}
