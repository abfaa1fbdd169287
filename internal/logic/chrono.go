package logic

import (
	"fmt"
	"time"
)

// ClockTime is the wall-clock time of day. Seconds keeps sub-second precision so
// that fractional elapsed time accumulates instead of being truncated every tick.
type ClockTime struct {
	Hours   int
	Minutes int
	Seconds float64
}

// SecondsOfDay returns the time as seconds since midnight.
func (t ClockTime) SecondsOfDay() float64 {
	return float64(t.Hours*3600+t.Minutes*60) + t.Seconds
}

// Whole returns the time truncated to integer seconds.
func (t ClockTime) Whole() TimeOfDay {
	return TimeOfDay{Hours: t.Hours, Minutes: t.Minutes, Seconds: int(t.Seconds)}
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, int(t.Seconds))
}

// CalendarDate is a day/month/year triple. Month is 1-based.
type CalendarDate struct {
	Day   int
	Month int
	Year  int
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%02d.%02d.%d", d.Day, d.Month, d.Year)
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days of month in year.
// Every year divisible by 4 is treated as a leap year; century years are not
// special-cased.
func DaysInMonth(month, year int) int {
	if month == 2 && year%4 == 0 {
		return 29
	}
	return monthDays[month-1]
}

// Chronometer advances a calendar clock from elapsed uptime.
type Chronometer struct {
	t ClockTime
	d CalendarDate
}

// NewChronometer creates a chronometer starting at the given time and date.
func NewChronometer(t ClockTime, d CalendarDate) *Chronometer {
	c := &Chronometer{}
	c.Set(t, d)
	return c
}

// Set replaces the current time and date. Out-of-range values are normalized.
func (c *Chronometer) Set(t ClockTime, d CalendarDate) {
	c.t = t
	c.d = d
	c.d.Month = wrap(c.d.Month-1, 12) + 1
	c.d.Day = clamp(c.d.Day, 1, DaysInMonth(c.d.Month, c.d.Year))
	c.normalize()
}

// Time returns the current time of day.
func (c *Chronometer) Time() ClockTime { return c.t }

// Date returns the current date.
func (c *Chronometer) Date() CalendarDate { return c.d }

// Advance adds elapsed*drift seconds and cascades the carries.
// Negative elapsed time is ignored.
func (c *Chronometer) Advance(elapsed time.Duration, drift float64) {
	if elapsed <= 0 {
		return
	}
	c.t.Seconds += elapsed.Seconds() * drift
	c.normalize()
}

// Replay applies a long gap (e.g. time spent in the menu) in chunks that end on
// minute boundaries, so every minute, hour, day, month and year rollover in the
// gap is carried one step at a time.
func (c *Chronometer) Replay(elapsed time.Duration, drift float64) {
	if elapsed <= 0 {
		return
	}
	remaining := elapsed.Seconds() * drift
	for remaining > 60 {
		remaining -= 60 - c.t.Seconds
		c.t.Seconds = 60
		c.normalize()
	}
	c.t.Seconds += remaining
	c.normalize()
}

func (c *Chronometer) normalize() {
	for c.t.Seconds >= 60 {
		c.t.Seconds -= 60
		c.t.Minutes++
	}
	for c.t.Seconds < 0 {
		c.t.Seconds += 60
		c.t.Minutes--
	}
	for c.t.Minutes >= 60 {
		c.t.Minutes -= 60
		c.t.Hours++
	}
	for c.t.Minutes < 0 {
		c.t.Minutes += 60
		c.t.Hours--
	}
	for c.t.Hours >= 24 {
		c.t.Hours -= 24
		c.nextDay()
	}
	for c.t.Hours < 0 {
		c.t.Hours += 24
	}
}

func (c *Chronometer) nextDay() {
	c.d.Day++
	if c.d.Day <= DaysInMonth(c.d.Month, c.d.Year) {
		return
	}
	c.d.Day = 1
	c.d.Month++
	if c.d.Month > 12 {
		c.d.Month = 1
		c.d.Year++
	}
}

// StepTime edits one field of the time by delta, wrapping within the field and
// never carrying into the neighbouring field.
func (c *Chronometer) StepTime(kind FieldKind, delta int) {
	switch kind {
	case FieldHours:
		c.t.Hours = wrap(c.t.Hours+delta, 24)
	case FieldMinutes:
		c.t.Minutes = wrap(c.t.Minutes+delta, 60)
	case FieldSeconds:
		s := c.t.Seconds + float64(delta)
		if s >= 60 {
			s -= 60
		} else if s < 0 {
			s += 60
		}
		c.t.Seconds = s
	}
}

// StepDate edits one field of the date by delta. Day wraps inside the month;
// month and year changes clamp the day into the new month.
func (c *Chronometer) StepDate(kind FieldKind, delta int) {
	switch kind {
	case FieldDay:
		c.d.Day = wrap(c.d.Day-1+delta, DaysInMonth(c.d.Month, c.d.Year)) + 1
	case FieldMonth:
		c.d.Month = wrap(c.d.Month-1+delta, 12) + 1
		c.d.Day = clamp(c.d.Day, 1, DaysInMonth(c.d.Month, c.d.Year))
	case FieldYear:
		c.d.Year += delta
		c.d.Day = clamp(c.d.Day, 1, DaysInMonth(c.d.Month, c.d.Year))
	}
}

// wrap returns v modulo n in [0, n).
func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
