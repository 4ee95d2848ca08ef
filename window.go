package chores

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ledger's calendar date encoding (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date at midnight UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate encodes t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Window is the inclusive range of days that can be navigated to.
// It bounds day navigation only; the ledger accepts any date.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow is the vacation period, April 13 to May 31 2025
func DefaultWindow() Window {
	return Window{
		Start: time.Date(2025, time.April, 13, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC),
	}
}

// NewWindow builds a window from two YYYY-MM-DD dates
func NewWindow(start, end string) (Window, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Window{}, err
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("%w: window ends %s before it starts %s", ErrInvalidDate, end, start)
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether day falls inside the window
func (w Window) Contains(day time.Time) bool {
	return !day.Before(w.Start) && !day.After(w.End)
}

// Step moves from by the given number of days. The move is refused,
// returning from and false, when it would leave the window.
func (w Window) Step(from time.Time, days int) (time.Time, bool) {
	next := from.AddDate(0, 0, days)
	if !w.Contains(next) {
		return from, false
	}
	return next, true
}

// Days returns the number of days in the window
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}
