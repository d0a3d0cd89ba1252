package reporting

import (
	"errors"
	"fmt"
	"time"
)

// Fixed day-count divisors used to turn a recurring amount into a daily
// rate. Deliberately not calendar-accurate: the approximation is a stated
// policy so that historical reports stay reproducible. Changing any of
// these changes every past report.
const (
	DaysPerMonth   = 30
	DaysPerQuarter = 91
	DaysPerYear    = 365
)

// ErrMissingFrequency marks a recurring cost without a billing frequency.
// Aggregation treats it as a data-integrity fault: the record is excluded
// with a warning instead of failing the whole report.
var ErrMissingFrequency = errors.New("reporting: recurring cost has no frequency")

// Prorate computes the slice of a recurring cost attributable to the
// window. The cost is active over [EffectiveDate, EndDate), EndDate
// exclusive; the overlap is measured against the exclusive end of the
// window (the following period's start). A cost active for the whole
// window accrues the window's nominal day count (1, 7, 30 or 91), so a
// monthly cost over any full month yields exactly its amount despite
// the fixed divisors; partial coverage accrues whole elapsed overlap
// days times the daily rate. Returns 0 for inactive costs and empty
// overlaps. The result is not rounded.
func Prorate(cost BusinessCost, window Window) (float64, error) {
	if !cost.IsActive {
		return 0, nil
	}
	rate, err := dailyRate(cost)
	if err != nil {
		return 0, err
	}

	windowEnd := window.End.Add(time.Millisecond)
	overlapStart := maxTime(startOfDay(cost.EffectiveDate), window.Start)
	overlapEnd := windowEnd
	if cost.EndDate != nil {
		overlapEnd = minTime(startOfDay(*cost.EndDate), overlapEnd)
	}
	if !overlapStart.Before(overlapEnd) {
		return 0, nil
	}
	if overlapStart.Equal(window.Start) && overlapEnd.Equal(windowEnd) {
		return rate * float64(nominalWindowDays(window.Type)), nil
	}
	days := int(overlapEnd.Sub(overlapStart).Hours() / 24)
	return rate * float64(days), nil
}

// nominalWindowDays is the day count a fully covering cost accrues for
// a window, expressed in the same fixed-divisor terms as dailyRate so
// that full coverage is exact regardless of calendar month length.
func nominalWindowDays(period PeriodType) int {
	switch period {
	case PeriodDaily:
		return 1
	case PeriodWeekly:
		return 7
	case PeriodQuarterly:
		return DaysPerQuarter
	default:
		return DaysPerMonth
	}
}

// InWindow reports whether a one-time cost belongs to the window. The
// cost's effective date is the bucketing field; inactive costs never
// qualify.
func InWindow(cost BusinessCost, window Window) bool {
	return cost.IsActive && window.Contains(cost.EffectiveDate)
}

func dailyRate(cost BusinessCost) (float64, error) {
	if cost.Frequency == nil {
		return 0, fmt.Errorf("%w (cost %d)", ErrMissingFrequency, cost.ID)
	}
	switch *cost.Frequency {
	case FrequencyMonthly:
		return cost.Amount / DaysPerMonth, nil
	case FrequencyQuarterly:
		return cost.Amount / DaysPerQuarter, nil
	case FrequencyYearly:
		return cost.Amount / DaysPerYear, nil
	}
	return 0, fmt.Errorf("%w: unknown frequency %q (cost %d)", ErrMissingFrequency, *cost.Frequency, cost.ID)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
