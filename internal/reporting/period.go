package reporting

import (
	"errors"
	"fmt"
	"time"
)

// PeriodType enumerates the supported report windows.
type PeriodType string

const (
	PeriodDaily     PeriodType = "daily"
	PeriodWeekly    PeriodType = "weekly"
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
)

var (
	// ErrInvalidPeriodType indicates an unrecognized period string.
	ErrInvalidPeriodType = errors.New("reporting: invalid period type")
	// ErrInvalidOffset indicates a negative period offset.
	ErrInvalidOffset = errors.New("reporting: period offset must not be negative")
)

// Window is a concrete [Start, End] date range plus a display label.
// End is the last representable millisecond of the period.
type Window struct {
	Type  PeriodType
	Start time.Time
	End   time.Time
	Label string
}

// ParsePeriodType validates a period string from the transport layer.
func ParsePeriodType(s string) (PeriodType, error) {
	switch PeriodType(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly:
		return PeriodType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriodType, s)
}

// Resolve converts a period type and a backward offset (0 = the period
// containing now, 1 = the previous one, ...) into a concrete window.
// now is injected by the caller so output is deterministic under test.
func Resolve(now time.Time, period PeriodType, offset int) (Window, error) {
	if offset < 0 {
		return Window{}, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}

	switch period {
	case PeriodDaily:
		start := startOfDay(now).AddDate(0, 0, -offset)
		return Window{
			Type:  PeriodDaily,
			Start: start,
			End:   endOf(start.AddDate(0, 0, 1)),
			Label: start.Format("2 January 2006"),
		}, nil
	case PeriodWeekly:
		start := startOfWeek(now).AddDate(0, 0, -7*offset)
		return Window{
			Type:  PeriodWeekly,
			Start: start,
			End:   endOf(start.AddDate(0, 0, 7)),
			Label: "Week of " + start.Format("2 January 2006"),
		}, nil
	case PeriodMonthly:
		start := startOfMonth(now).AddDate(0, -offset, 0)
		return Window{
			Type:  PeriodMonthly,
			Start: start,
			End:   endOf(start.AddDate(0, 1, 0)),
			Label: start.Format("January 2006"),
		}, nil
	case PeriodQuarterly:
		start := startOfQuarter(now).AddDate(0, -3*offset, 0)
		quarter := int(start.Month()-1)/3 + 1
		return Window{
			Type:  PeriodQuarterly,
			Start: start,
			End:   endOf(start.AddDate(0, 3, 0)),
			Label: fmt.Sprintf("Q%d %d", quarter, start.Year()),
		}, nil
	}
	return Window{}, fmt.Errorf("%w: %q", ErrInvalidPeriodType, period)
}

// Contains reports whether t falls inside the window, endpoints included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	shift := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -shift)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfQuarter(t time.Time) time.Time {
	month := time.Month((int(t.Month()-1)/3)*3 + 1)
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, t.Location())
}

// endOf converts the exclusive start of the next period into the
// inclusive end of the current one.
func endOf(nextStart time.Time) time.Time {
	return nextStart.Add(-time.Millisecond)
}
