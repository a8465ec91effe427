// Package businessday resolves "today" in the business time zone.
package businessday

import "time"

// Calendar maps instants to calendar dates in a fixed location.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New creates a Calendar. A nil location means UTC; a nil clock means time.Now.
func New(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

// Now returns the current instant.
func (c *Calendar) Now() time.Time {
	return c.now()
}

// Today returns the current business date as midnight UTC, the form stored in DATE columns.
func (c *Calendar) Today() time.Time {
	return c.DateOf(c.now())
}

// DateOf returns the business date containing t as midnight UTC.
func (c *Calendar) DateOf(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into the same midnight UTC form.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value)
}
