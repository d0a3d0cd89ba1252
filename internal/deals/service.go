// Package deals owns deal entry. Every derived monetary field on a deal
// (VAT-net revenue, growth fund, commissions, lead fulfillment) is fixed
// here at entry time; the reporting engine only ever sums stored values.
package deals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulseboard/pulseboard/internal/reporting"
)

// Deal-entry cost policy. GrowthFundRate is the share of deal value set
// aside as the growth investment; LeadFulfillmentUnitCost is the fixed
// cost of fulfilling one sold lead.
const (
	GrowthFundRate          = 0.20
	LeadFulfillmentUnitCost = 20.0
)

var (
	// ErrNotFound indicates a missing deal.
	ErrNotFound = errors.New("deals: not found")
)

// Repository persists deal records.
type Repository interface {
	Create(ctx context.Context, deal reporting.Deal) (int64, error)
	Get(ctx context.Context, id int64) (*reporting.Deal, error)
	List(ctx context.Context, req ListDealsRequest) ([]reporting.Deal, int, error)
	ListDealsClosedBetween(ctx context.Context, from, to time.Time) ([]reporting.Deal, error)
}

// Service implements deal entry and lookup.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs the deal service.
func NewService(logger *slog.Logger, repo Repository) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Create derives the deal's cost lines from the entry request and
// persists the record. The derivations are a fixed policy: changing them
// only affects deals entered afterwards, never historical reports.
func (s *Service) Create(ctx context.Context, req CreateDealRequest) (*reporting.Deal, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("deals: service not initialised")
	}

	vat := req.RevenueIncVat * reporting.VATRate
	deal := reporting.Deal{
		ClientName:                req.ClientName,
		RevenueIncVat:             req.RevenueIncVat,
		RevenueNet:                req.RevenueIncVat - vat,
		OperatingExpense:          req.RevenueIncVat * GrowthFundRate,
		LeadsSold:                 req.LeadsSold,
		LeadSalePrice:             req.LeadSalePrice,
		SetterCommissionPercent:   req.SetterCommissionPercent,
		SalesRepCommissionPercent: req.SalesRepCommissionPercent,
		SetterCost:                req.RevenueIncVat * req.SetterCommissionPercent / 100,
		SalesRepCost:              req.RevenueIncVat * req.SalesRepCommissionPercent / 100,
		LeadFulfillmentCost:       LeadFulfillmentUnitCost * float64(req.LeadsSold),
		CloseDate:                 req.CloseDate,
	}

	id, err := s.repo.Create(ctx, deal)
	if err != nil {
		return nil, fmt.Errorf("deals: create: %w", err)
	}
	deal.ID = id
	s.logger.Info("deal created",
		slog.Int64("deal_id", id),
		slog.String("client", deal.ClientName),
		slog.Float64("revenue_inc_vat", deal.RevenueIncVat))
	return &deal, nil
}

// Get returns a single deal.
func (s *Service) Get(ctx context.Context, id int64) (*reporting.Deal, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of deals plus the total count.
func (s *Service) List(ctx context.Context, req ListDealsRequest) ([]reporting.Deal, int, error) {
	if req.PerPage <= 0 {
		req.PerPage = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	return s.repo.List(ctx, req)
}
