package reporting

// AggregateDeals filters deals whose close date falls inside the window
// (closed interval on both ends) and reduces them into revenue, VAT and
// per-line cost totals. Membership is a single immutable date test, so the
// reduction is deterministic and idempotent; callers may over-fetch.
func AggregateDeals(deals []Deal, window Window) DealTotals {
	var totals DealTotals
	for _, deal := range deals {
		if !window.Contains(deal.CloseDate) {
			continue
		}
		totals.TotalRevenueIncVat += deal.RevenueIncVat
		totals.DealCosts.OperatingExpenses += deal.OperatingExpense
		totals.DealCosts.SetterCosts += deal.SetterCost
		totals.DealCosts.SalesRepCosts += deal.SalesRepCost
		totals.DealCosts.LeadFulfillmentCosts += deal.LeadFulfillmentCost
		totals.TotalDeals++
		totals.TotalLeadsSold += deal.LeadsSold
	}
	// VAT is derived here, never read from stored net values, so that
	// net revenue equals gross minus VAT identically.
	totals.VatDeducted = totals.TotalRevenueIncVat * VATRate
	totals.TotalRevenueNet = totals.TotalRevenueIncVat - totals.VatDeducted
	totals.DealCosts.Total = totals.DealCosts.OperatingExpenses +
		totals.DealCosts.SetterCosts +
		totals.DealCosts.SalesRepCosts +
		totals.DealCosts.LeadFulfillmentCosts
	return totals
}
