package reporting

// Compose combines deal and cost totals into the final report. Gross
// profit is net-of-VAT revenue minus every deal-level and business-level
// cost; VAT is a pass-through liability, not margin. All ratio fields are
// defined as zero when their denominator is zero, so callers never see
// NaN or Inf.
func Compose(window Window, dealTotals DealTotals, costTotals CostTotals) Report {
	if costTotals.ByCategory == nil {
		costTotals.ByCategory = make(map[string]float64)
	}
	totalCosts := dealTotals.DealCosts.Total + costTotals.Total
	grossProfit := dealTotals.TotalRevenueNet - totalCosts

	report := Report{
		Window:        window,
		DealTotals:    dealTotals,
		BusinessCosts: costTotals,
		TotalCosts:    totalCosts,
		GrossProfit:   grossProfit,
	}
	if dealTotals.TotalRevenueNet != 0 {
		report.ProfitMargin = grossProfit / dealTotals.TotalRevenueNet * 100
	}
	if dealTotals.TotalDeals != 0 {
		report.AvgRevenuePerDeal = dealTotals.TotalRevenueIncVat / float64(dealTotals.TotalDeals)
		report.AvgProfitPerDeal = grossProfit / float64(dealTotals.TotalDeals)
	}
	return report
}
