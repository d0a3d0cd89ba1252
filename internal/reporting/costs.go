package reporting

import (
	"errors"
	"log/slog"
)

// AggregateCosts reduces business costs into the window's cost totals.
// Recurring costs are prorated over their lifetime overlap with the
// window; one-time costs count in full when their effective date falls
// inside it. ByCategory reflects actual in-window contributions.
//
// A malformed cost (missing or unknown frequency, unrecognised cost
// type) is excluded and counted rather than failing the report: one bad
// record must not block the report for everyone.
func AggregateCosts(logger *slog.Logger, costs []BusinessCost, window Window) CostTotals {
	if logger == nil {
		logger = slog.Default()
	}
	totals := CostTotals{ByCategory: make(map[string]float64)}
	for _, cost := range costs {
		if !cost.IsActive {
			continue
		}
		switch cost.CostType {
		case CostTypeRecurring:
			amount, err := Prorate(cost, window)
			if err != nil {
				if errors.Is(err, ErrMissingFrequency) {
					totals.Excluded++
					logger.Warn("excluding malformed recurring cost",
						slog.Int64("cost_id", cost.ID),
						slog.String("category", cost.Category),
						slog.Any("error", err))
					continue
				}
				continue
			}
			if amount == 0 {
				continue
			}
			totals.Recurring += amount
			totals.ByCategory[cost.Category] += amount
		case CostTypeOneTime:
			if !InWindow(cost, window) {
				continue
			}
			totals.OneTime += cost.Amount
			totals.ByCategory[cost.Category] += cost.Amount
		default:
			totals.Excluded++
			logger.Warn("excluding cost with unknown type",
				slog.Int64("cost_id", cost.ID),
				slog.String("cost_type", string(cost.CostType)),
				slog.String("category", cost.Category))
		}
	}
	totals.Total = totals.Recurring + totals.OneTime
	return totals
}
