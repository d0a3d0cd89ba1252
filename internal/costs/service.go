// Package costs owns business cost records. Costs are never hard
// deleted: deactivation keeps the row so past reports that included the
// cost stay reproducible.
package costs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulseboard/pulseboard/internal/reporting"
)

var (
	// ErrNotFound indicates a missing cost record.
	ErrNotFound = errors.New("costs: not found")
	// ErrFrequencyRequired flags a recurring cost entered without a
	// billing cadence.
	ErrFrequencyRequired = errors.New("costs: recurring cost requires a frequency")
	// ErrFrequencyNotAllowed flags a one-time cost entered with one.
	ErrFrequencyNotAllowed = errors.New("costs: one-time cost must not carry a frequency")
	// ErrEndBeforeStart flags an end date at or before the effective date.
	ErrEndBeforeStart = errors.New("costs: end date must be after effective date")
)

// Repository persists cost records.
type Repository interface {
	Create(ctx context.Context, cost reporting.BusinessCost) (int64, error)
	Get(ctx context.Context, id int64) (*reporting.BusinessCost, error)
	Update(ctx context.Context, cost reporting.BusinessCost) error
	Deactivate(ctx context.Context, id int64, when time.Time) error
	List(ctx context.Context, req ListCostsRequest) ([]reporting.BusinessCost, int, error)
	ListCosts(ctx context.Context) ([]reporting.BusinessCost, error)
}

// Service implements cost entry, revision and retirement.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the cost service.
func NewService(logger *slog.Logger, repo Repository) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create validates the frequency coupling and persists the cost.
func (s *Service) Create(ctx context.Context, req CreateCostRequest) (*reporting.BusinessCost, error) {
	costType := reporting.CostType(req.CostType)
	freq, err := checkFrequency(costType, req.Frequency)
	if err != nil {
		return nil, err
	}
	if err := checkDates(req.EffectiveDate, req.EndDate); err != nil {
		return nil, err
	}

	cost := reporting.BusinessCost{
		Name:          req.Name,
		Amount:        req.Amount,
		CostType:      costType,
		Frequency:     freq,
		Category:      req.Category,
		EffectiveDate: req.EffectiveDate,
		EndDate:       req.EndDate,
		IsActive:      true,
	}
	id, err := s.repo.Create(ctx, cost)
	if err != nil {
		return nil, fmt.Errorf("costs: create: %w", err)
	}
	cost.ID = id
	s.logger.Info("cost created",
		slog.Int64("cost_id", id),
		slog.String("name", cost.Name),
		slog.String("type", string(cost.CostType)))
	return &cost, nil
}

// Update revises a cost in place. The stored cost type stays fixed.
func (s *Service) Update(ctx context.Context, id int64, req UpdateCostRequest) (*reporting.BusinessCost, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	freq, err := checkFrequency(existing.CostType, req.Frequency)
	if err != nil {
		return nil, err
	}
	if err := checkDates(req.EffectiveDate, req.EndDate); err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.Amount = req.Amount
	existing.Frequency = freq
	existing.Category = req.Category
	existing.EffectiveDate = req.EffectiveDate
	existing.EndDate = req.EndDate
	if err := s.repo.Update(ctx, *existing); err != nil {
		return nil, fmt.Errorf("costs: update: %w", err)
	}
	s.logger.Info("cost updated", slog.Int64("cost_id", id))
	return existing, nil
}

// Deactivate retires a cost. The record stays queryable; only future
// reports stop attributing it.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id, s.now().UTC()); err != nil {
		return err
	}
	s.logger.Info("cost deactivated", slog.Int64("cost_id", id))
	return nil
}

// Get returns a single cost.
func (s *Service) Get(ctx context.Context, id int64) (*reporting.BusinessCost, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of costs plus the total count.
func (s *Service) List(ctx context.Context, req ListCostsRequest) ([]reporting.BusinessCost, int, error) {
	if req.PerPage <= 0 {
		req.PerPage = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	return s.repo.List(ctx, req)
}

func checkFrequency(costType reporting.CostType, raw *string) (*reporting.Frequency, error) {
	switch costType {
	case reporting.CostTypeRecurring:
		if raw == nil || *raw == "" {
			return nil, ErrFrequencyRequired
		}
		freq := reporting.Frequency(*raw)
		return &freq, nil
	case reporting.CostTypeOneTime:
		if raw != nil && *raw != "" {
			return nil, ErrFrequencyNotAllowed
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("costs: unknown cost type %q", costType)
	}
}

func checkDates(effective time.Time, end *time.Time) error {
	if end != nil && !end.After(effective) {
		return ErrEndBeforeStart
	}
	return nil
}
