package services

import "time"

// Clock yields the current time in the restaurant time zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) Clock {
	return NewClockFunc(loc, time.Now)
}

// NewClockFunc builds a clock reading time from now. Tests use it to pin the time.
func NewClockFunc(loc *time.Location, now func() time.Time) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{loc: loc, now: now}
}

func (c Clock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c Clock) Location() *time.Location {
	return c.loc
}

// At returns the wall-clock time hour:minute on the local day containing day.
func (c Clock) At(day time.Time, hour, minute int) time.Time {
	y, m, d := day.In(c.loc).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, c.loc)
}

// StartOfDay returns local midnight of the day containing t.
func (c Clock) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}
