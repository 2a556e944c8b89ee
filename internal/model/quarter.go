package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Quarter is a calendar quarter, e.g. 2024Q1.
// It marshals as text so it can key JSON maps and CSV columns directly.
type Quarter struct {
	Year int
	Num  int // 1-4
}

// QuarterOf returns the calendar quarter containing t.
func QuarterOf(t time.Time) Quarter {
	return Quarter{Year: t.Year(), Num: (int(t.Month())-1)/3 + 1}
}

// ParseQuarter parses "2024Q1" (also accepts "2024-Q1" and lowercase q).
func ParseQuarter(s string) (Quarter, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.Replace(s, "-Q", "Q", 1)
	idx := strings.Index(s, "Q")
	if idx <= 0 || idx == len(s)-1 {
		return Quarter{}, eris.Errorf("model: invalid quarter %q", s)
	}
	year, err := strconv.Atoi(s[:idx])
	if err != nil {
		return Quarter{}, eris.Wrapf(err, "model: invalid quarter year %q", s)
	}
	num, err := strconv.Atoi(s[idx+1:])
	if err != nil || num < 1 || num > 4 {
		return Quarter{}, eris.Errorf("model: invalid quarter number %q", s)
	}
	return Quarter{Year: year, Num: num}, nil
}

func (q Quarter) String() string {
	return fmt.Sprintf("%dQ%d", q.Year, q.Num)
}

// IsZero reports whether q is the zero Quarter.
func (q Quarter) IsZero() bool {
	return q.Year == 0 && q.Num == 0
}

// Start returns the first day of the quarter in UTC.
func (q Quarter) Start() time.Time {
	return time.Date(q.Year, time.Month((q.Num-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the quarter in UTC.
func (q Quarter) End() time.Time {
	return q.Next().Start().AddDate(0, 0, -1)
}

// Next returns the following quarter.
func (q Quarter) Next() Quarter {
	if q.Num == 4 {
		return Quarter{Year: q.Year + 1, Num: 1}
	}
	return Quarter{Year: q.Year, Num: q.Num + 1}
}

// Before reports whether q is earlier than other.
func (q Quarter) Before(other Quarter) bool {
	if q.Year != other.Year {
		return q.Year < other.Year
	}
	return q.Num < other.Num
}

// InEarlyMonths reports whether t falls in the first two months of the quarter.
func (q Quarter) InEarlyMonths(t time.Time) bool {
	if QuarterOf(t) != q {
		return false
	}
	return (int(t.Month())-1)%3 < 2
}

// MarshalText implements encoding.TextMarshaler.
func (q Quarter) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quarter) UnmarshalText(b []byte) error {
	parsed, err := ParseQuarter(string(b))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
