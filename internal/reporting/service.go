package reporting

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DealSource lists deal records for a window. Implementations may return a
// superset of the range; the engine filters precisely.
type DealSource interface {
	ListDealsClosedBetween(ctx context.Context, from, to time.Time) ([]Deal, error)
}

// CostSource lists every business cost regardless of date; the engine
// decides relevance per window.
type CostSource interface {
	ListCosts(ctx context.Context) ([]BusinessCost, error)
}

// Service orchestrates a single report computation: resolve the window,
// fetch source records, aggregate, compose. It holds no mutable state, so
// concurrent report requests need no coordination.
type Service struct {
	deals  DealSource
	costs  CostSource
	logger *slog.Logger
}

// NewService wires the record sources into a report service.
func NewService(logger *slog.Logger, deals DealSource, costs CostSource) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deals: deals, costs: costs, logger: logger}
}

// ComputeReport is the engine's sole entry point. now is injected by the
// caller; two calls with identical inputs produce identical output.
func (s *Service) ComputeReport(ctx context.Context, period PeriodType, offset int, now time.Time) (Report, error) {
	if s == nil || s.deals == nil || s.costs == nil {
		return Report{}, errors.New("reporting: service not initialised")
	}
	window, err := Resolve(now, period, offset)
	if err != nil {
		return Report{}, err
	}

	deals, err := s.deals.ListDealsClosedBetween(ctx, window.Start, window.End)
	if err != nil {
		return Report{}, err
	}
	costs, err := s.costs.ListCosts(ctx)
	if err != nil {
		return Report{}, err
	}

	dealTotals := AggregateDeals(deals, window)
	costTotals := AggregateCosts(s.logger, costs, window)
	report := Compose(window, dealTotals, costTotals)

	if costTotals.Excluded > 0 {
		s.logger.Warn("report computed with excluded cost records",
			slog.String("period", string(period)),
			slog.String("window", window.Label),
			slog.Int("excluded", costTotals.Excluded))
	}
	return report, nil
}
