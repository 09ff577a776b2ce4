package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the textual form of calendar dates in storage and input.
	DateLayout = "2006-01-02"
	// TimestampLayout is used for creation timestamps that carry a time of day.
	TimestampLayout = "2006-01-02 15:04:05"

	compactLayout = "20060102"
)

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// Date is a calendar day. Comparisons between dates ignore time of day.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate parses YYYY-MM-DD. A trailing time of day is accepted and dropped.
func ParseDate(s string) (Date, error) {
	ts, err := ParseTimestamp(s)
	if err != nil {
		return Date{}, err
	}
	return ts.Date(), nil
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}

// Compact formats d as YYYYMMDD.
func (d Date) Compact() string {
	return d.Time().Format(compactLayout)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.Time().After(o.Time())
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Timestamp is a creation timestamp: a calendar date with an optional
// time of day.
type Timestamp struct {
	t       time.Time
	hasTime bool
}

// DateStamp returns a Timestamp without a time of day.
func DateStamp(d Date) Timestamp {
	return Timestamp{t: d.Time()}
}

// TimeStamp returns a Timestamp carrying t's wall clock, truncated to seconds.
func TimeStamp(t time.Time) Timestamp {
	t = t.Truncate(time.Second)
	return Timestamp{
		t:       time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC),
		hasTime: true,
	}
}

// ParseTimestamp accepts YYYY-MM-DD optionally followed by a time of day.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Timestamp{t: t}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeStamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}

// IsZero reports whether ts is unset.
func (ts Timestamp) IsZero() bool {
	return ts.t.IsZero()
}

// Date returns the calendar day of ts.
func (ts Timestamp) Date() Date {
	if ts.IsZero() {
		return Date{}
	}
	return DateOf(ts.t)
}

// HasTime reports whether ts carries a time of day.
func (ts Timestamp) HasTime() bool {
	return ts.hasTime
}

// Time returns ts as a UTC time.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// String formats ts in storage form: YYYY-MM-DD, or YYYY-MM-DD HH:MM:SS
// when a time of day is present.
func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	if ts.hasTime {
		return ts.t.Format(TimestampLayout)
	}
	return ts.t.Format(DateLayout)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
