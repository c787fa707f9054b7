package snapshot

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire and in records
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var ErrInvalidDate = errors.New("invalid calendar date")

// FirstDate is the earliest day for which the ECB publishes reference rates
var FirstDate = Date{Year: 1999, Month: time.January, Day: 4}

// Date is a calendar date without a time zone
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYY-MM-DD. Dates that do not exist in the Gregorian calendar are rejected,
// 2021-02-30 is an error rather than March 2nd
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals, it panics on error
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}

	return d
}

// DateOf returns the calendar date of t in t's location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()

	return Date{Year: y, Month: m, Day: d}
}

// DateFromUnix returns the date of a midnight UTC unix timestamp
func DateFromUnix(sec int64) (Date, error) {
	if sec%secondsPerDay != 0 {
		return Date{}, fmt.Errorf("%w: timestamp %d is not midnight UTC", ErrInvalidDate, sec)
	}

	return DateOf(time.Unix(sec, 0).UTC()), nil
}

// Time returns midnight UTC of the date
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Unix returns the unix timestamp of midnight UTC
func (d Date) Unix() int64 {
	return d.Time().Unix()
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Valid reports whether the fields name a real Gregorian date
func (d Date) Valid() bool {
	return !d.IsZero() && DateOf(d.Time()) == d
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compare returns -1, 0 or +1
func (d Date) Compare(other Date) int {
	return d.Time().Compare(other.Time())
}

func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// AddDays returns the date n calendar days later (or earlier for negative n)
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// DaysUntil returns the number of calendar days from d to other, negative when other is earlier
func (d Date) DaysUntil(other Date) int {
	return int((other.Unix() - d.Unix()) / secondsPerDay)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}
