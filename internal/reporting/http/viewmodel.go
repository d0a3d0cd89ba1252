package http

import (
	"math"
	"time"

	"github.com/pulseboard/pulseboard/internal/reporting"
)

// ReportViewModel is the wire shape of a composed report. Monetary fields
// are rounded to pence here; the engine itself never rounds.
type ReportViewModel struct {
	Period            string                 `json:"period"`
	Label             string                 `json:"label"`
	StartDate         time.Time              `json:"start_date"`
	EndDate           time.Time              `json:"end_date"`
	Revenue           RevenueViewModel       `json:"revenue"`
	DealCosts         DealCostsViewModel     `json:"deal_costs"`
	BusinessCosts     BusinessCostsViewModel `json:"business_costs"`
	TotalCosts        float64                `json:"total_costs"`
	GrossProfit       float64                `json:"gross_profit"`
	ProfitMargin      float64                `json:"profit_margin"`
	TotalDeals        int                    `json:"total_deals"`
	TotalLeadsSold    int                    `json:"total_leads_sold"`
	AvgRevenuePerDeal float64                `json:"avg_revenue_per_deal"`
	AvgProfitPerDeal  float64                `json:"avg_profit_per_deal"`

	Projection *ProjectionViewModel `json:"projection,omitempty"`
}

// RevenueViewModel groups the revenue lines.
type RevenueViewModel struct {
	IncVat      float64 `json:"inc_vat"`
	VatDeducted float64 `json:"vat_deducted"`
	Net         float64 `json:"net"`
}

// DealCostsViewModel mirrors the four deal cost lines.
type DealCostsViewModel struct {
	OperatingExpenses    float64 `json:"operating_expenses"`
	SetterCosts          float64 `json:"setter_costs"`
	SalesRepCosts        float64 `json:"sales_rep_costs"`
	LeadFulfillmentCosts float64 `json:"lead_fulfillment_costs"`
	Total                float64 `json:"total"`
}

// BusinessCostsViewModel mirrors the business cost reduction.
type BusinessCostsViewModel struct {
	Recurring  float64            `json:"recurring"`
	OneTime    float64            `json:"one_time"`
	Total      float64            `json:"total"`
	ByCategory map[string]float64 `json:"by_category"`
	Excluded   int                `json:"excluded_records"`
}

// ProjectionViewModel is the wire shape of a tax & salary projection.
type ProjectionViewModel struct {
	CorpTax        float64 `json:"corp_tax"`
	ProfitAfterTax float64 `json:"profit_after_tax"`
	FinalProfit    float64 `json:"final_profit"`
}

func newReportViewModel(report reporting.Report) ReportViewModel {
	byCategory := make(map[string]float64, len(report.BusinessCosts.ByCategory))
	for category, amount := range report.BusinessCosts.ByCategory {
		byCategory[category] = round2(amount)
	}
	return ReportViewModel{
		Period:    string(report.Window.Type),
		Label:     report.Window.Label,
		StartDate: report.Window.Start,
		EndDate:   report.Window.End,
		Revenue: RevenueViewModel{
			IncVat:      round2(report.DealTotals.TotalRevenueIncVat),
			VatDeducted: round2(report.DealTotals.VatDeducted),
			Net:         round2(report.DealTotals.TotalRevenueNet),
		},
		DealCosts: DealCostsViewModel{
			OperatingExpenses:    round2(report.DealTotals.DealCosts.OperatingExpenses),
			SetterCosts:          round2(report.DealTotals.DealCosts.SetterCosts),
			SalesRepCosts:        round2(report.DealTotals.DealCosts.SalesRepCosts),
			LeadFulfillmentCosts: round2(report.DealTotals.DealCosts.LeadFulfillmentCosts),
			Total:                round2(report.DealTotals.DealCosts.Total),
		},
		BusinessCosts: BusinessCostsViewModel{
			Recurring:  round2(report.BusinessCosts.Recurring),
			OneTime:    round2(report.BusinessCosts.OneTime),
			Total:      round2(report.BusinessCosts.Total),
			ByCategory: byCategory,
			Excluded:   report.BusinessCosts.Excluded,
		},
		TotalCosts:        round2(report.TotalCosts),
		GrossProfit:       round2(report.GrossProfit),
		ProfitMargin:      round2(report.ProfitMargin),
		TotalDeals:        report.DealTotals.TotalDeals,
		TotalLeadsSold:    report.DealTotals.TotalLeadsSold,
		AvgRevenuePerDeal: round2(report.AvgRevenuePerDeal),
		AvgProfitPerDeal:  round2(report.AvgProfitPerDeal),
	}
}

func newProjectionViewModel(p reporting.Projection) ProjectionViewModel {
	return ProjectionViewModel{
		CorpTax:        round2(p.CorpTax),
		ProfitAfterTax: round2(p.ProfitAfterTax),
		FinalProfit:    round2(p.FinalProfit),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
