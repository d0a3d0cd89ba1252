package reporting

// ProjectTaxSalary applies the corporation tax and salary drawings overlay
// to a composed report. It is a stateless presentation transform: re-running
// it with different options never requires recomputing the report, and it
// never touches stored data.
func ProjectTaxSalary(report Report, opts ProjectionOptions) Projection {
	var corpTax float64
	if opts.IncludeCorpTax && report.GrossProfit > 0 {
		corpTax = report.GrossProfit * CorpTaxRate
	}
	profitAfterTax := report.GrossProfit - corpTax
	return Projection{
		CorpTax:        corpTax,
		ProfitAfterTax: profitAfterTax,
		FinalProfit:    profitAfterTax - opts.SalaryAmount,
	}
}
