// Package reporting implements the period-based financial aggregation
// engine behind the profit & loss report. The engine is a pure reduction
// over already-fetched deal and cost records: it performs no I/O, keeps
// full float64 precision throughout, and leaves rounding to the
// presentation layer so repeated runs over the same inputs are
// bit-identical.
package reporting

import "time"

// VATRate is the flat VAT share derived from inc-VAT revenue. VAT is
// always recomputed from revenue rather than read from stored net values
// so that net = gross - vat holds identically in every report.
const VATRate = 0.20

// CorpTaxRate is the flat corporation tax rate applied by the projector.
const CorpTaxRate = 0.20

// CostType distinguishes recurring from one-off business costs.
type CostType string

const (
	CostTypeRecurring CostType = "recurring"
	CostTypeOneTime   CostType = "one_time"
)

// Frequency is the billing cadence of a recurring cost.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Deal is a closed sale record. All derived monetary fields
// (OperatingExpense, SetterCost, SalesRepCost, LeadFulfillmentCost) are
// fixed at deal entry; the engine only sums them.
type Deal struct {
	ID                        int64
	ClientName                string
	RevenueIncVat             float64
	RevenueNet                float64
	OperatingExpense          float64
	LeadsSold                 int
	LeadSalePrice             float64
	SetterCommissionPercent   float64
	SalesRepCommissionPercent float64
	SetterCost                float64
	SalesRepCost              float64
	LeadFulfillmentCost       float64
	CloseDate                 time.Time
	CreatedAt                 time.Time
}

// BusinessCost is an operating expense line. Recurring costs are active
// from EffectiveDate until EndDate (nil = open-ended); inactive costs are
// ignored by every aggregation regardless of dates.
type BusinessCost struct {
	ID            int64
	Name          string
	Amount        float64
	CostType      CostType
	Frequency     *Frequency
	Category      string
	EffectiveDate time.Time
	EndDate       *time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DealCosts breaks deal-level spend into its four lines.
type DealCosts struct {
	OperatingExpenses    float64
	SetterCosts          float64
	SalesRepCosts        float64
	LeadFulfillmentCosts float64
	Total                float64
}

// DealTotals is the reduction of all deals closed inside a window.
type DealTotals struct {
	TotalRevenueIncVat float64
	TotalRevenueNet    float64
	VatDeducted        float64
	DealCosts          DealCosts
	TotalDeals         int
	TotalLeadsSold     int
}

// CostTotals is the reduction of business costs attributable to a window.
// ByCategory holds each category's actual in-window contribution (prorated
// for recurring lines), not nominal amounts. Excluded counts malformed
// recurring costs dropped from the aggregation.
type CostTotals struct {
	Recurring  float64
	OneTime    float64
	Total      float64
	ByCategory map[string]float64
	Excluded   int
}

// Report is the composed profit & loss output. Purely derived, never
// persisted; absent categories appear as zero so consumers can render
// without nil checks.
type Report struct {
	Window            Window
	DealTotals        DealTotals
	BusinessCosts     CostTotals
	TotalCosts        float64
	GrossProfit       float64
	ProfitMargin      float64
	AvgRevenuePerDeal float64
	AvgProfitPerDeal  float64
}

// ProjectionOptions parameterize the tax & salary projection.
type ProjectionOptions struct {
	IncludeCorpTax bool
	SalaryAmount   float64
}

// Projection is the presentation-layer tax and salary overlay on a report.
type Projection struct {
	CorpTax        float64
	ProfitAfterTax float64
	FinalProfit    float64
}
