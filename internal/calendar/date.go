package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day without time of day or zone. Internally it is kept at
// UTC midnight so that day arithmetic never crosses a DST boundary.
type Date struct {
	t time.Time
}

func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime takes the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return New(y, m, d)
}

// Today returns the local calendar day of now.
func Today(now time.Time) Date {
	return FromTime(now.In(time.Local))
}

// ParseDate reads a YYYY-MM-DD string component by component. It never goes
// through a zoned timestamp, so "2024-03-01" is March 1st everywhere.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	y, errY := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	d, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	out := New(y, time.Month(m), d)
	if out.Day() != d {
		// 2023-02-30 and friends
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return out, nil
}

// MustParse is for fixtures and tests.
func MustParse(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Year() int { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int { return d.t.Day() }
func (d Date) Time() time.Time { return d.t }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }
func (d Date) OnOrBefore(o Date) bool { return !d.t.After(o.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// AddMonths moves n calendar months keeping the day of month, clamped to the
// last day of the target month (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return OnDay(first.Year(), first.Month(), d.Day())
}

// OnDay builds the date for day in the given month, clamped to the month end.
// month may overflow 12; it is normalised like time.Date does.
func OnDay(year int, month time.Month, day int) Date {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := now.With(first).EndOfMonth().Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return New(first.Year(), first.Month(), day)
}

// DaysBetween is the absolute number of whole days between a and b.
func DaysBetween(a, b Date) int {
	hours := a.t.Sub(b.t).Hours()
	if hours < 0 {
		hours = -hours
	}
	return int(hours / 24)
}

func IsSameMonth(d Date, month time.Month, year int) bool {
	if d.IsZero() {
		return false
	}
	return d.Month() == month && d.Year() == year
}

// MonthRange returns the first and last day of the month d falls in.
func MonthRange(d Date) (Date, Date) {
	n := now.With(d.t)
	return FromTime(n.BeginningOfMonth()), FromTime(n.EndOfMonth())
}

// PreviousMonth returns month and year of the month before d.
func PreviousMonth(d Date) (time.Month, int) {
	p := time.Date(d.Year(), d.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	return p.Month(), p.Year()
}
