package costs

import "time"

// CreateCostRequest enters a business cost. Frequency is required for
// recurring costs and must be absent for one-time costs; the service
// enforces that coupling since struct tags cannot express it.
type CreateCostRequest struct {
	Name          string     `json:"name" validate:"required,max=200"`
	Amount        float64    `json:"amount" validate:"required,gt=0"`
	CostType      string     `json:"cost_type" validate:"required,oneof=recurring one_time"`
	Frequency     *string    `json:"frequency,omitempty" validate:"omitempty,oneof=monthly quarterly yearly"`
	Category      string     `json:"category" validate:"required,max=100"`
	EffectiveDate time.Time  `json:"effective_date" validate:"required"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// UpdateCostRequest replaces the mutable fields of a cost. The cost type
// is fixed at creation; flipping recurring to one-time would silently
// rewrite historical proration.
type UpdateCostRequest struct {
	Name          string     `json:"name" validate:"required,max=200"`
	Amount        float64    `json:"amount" validate:"required,gt=0"`
	Frequency     *string    `json:"frequency,omitempty" validate:"omitempty,oneof=monthly quarterly yearly"`
	Category      string     `json:"category" validate:"required,max=100"`
	EffectiveDate time.Time  `json:"effective_date" validate:"required"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// ListCostsRequest filters the cost listing.
type ListCostsRequest struct {
	CostType      string `json:"cost_type,omitempty" validate:"omitempty,oneof=recurring one_time"`
	Category      string `json:"category,omitempty"`
	IncludeClosed bool   `json:"include_closed,omitempty"`
	Page          int    `json:"page" validate:"gte=0"`
	PerPage       int    `json:"per_page" validate:"gte=0,lte=200"`
}
