package deals

import "time"

type CreateDealRequest struct {
	ClientName                string    `json:"client_name" validate:"required,max=200"`
	RevenueIncVat             float64   `json:"revenue_inc_vat" validate:"required,gt=0"`
	LeadsSold                 int       `json:"leads_sold" validate:"gte=0"`
	LeadSalePrice             float64   `json:"lead_sale_price" validate:"gte=0"`
	SetterCommissionPercent   float64   `json:"setter_commission_percent" validate:"gte=0,lte=100"`
	SalesRepCommissionPercent float64   `json:"sales_rep_commission_percent" validate:"gte=0,lte=100"`
	CloseDate                 time.Time `json:"close_date" validate:"required"`
}

type ListDealsRequest struct {
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
	Page    int        `json:"page" validate:"gte=0"`
	PerPage int        `json:"per_page" validate:"gte=0,lte=200"`
}
