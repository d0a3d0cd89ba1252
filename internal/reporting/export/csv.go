// Package export serialises composed reports for download. Rounding to
// pence happens here, at presentation, never inside the engine.
package export

import (
	"encoding/csv"
	"io"
	"math"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pulseboard/pulseboard/internal/reporting"
)

var printer = message.NewPrinter(language.BritishEnglish)

// WriteReportCSV serialises a profit & loss report to CSV.
func WriteReportCSV(w io.Writer, report reporting.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", report.Window.Label},
		{"Revenue (inc VAT)", amount(report.DealTotals.TotalRevenueIncVat)},
		{"VAT Deducted", amount(report.DealTotals.VatDeducted)},
		{"Revenue (net)", amount(report.DealTotals.TotalRevenueNet)},
		{"Growth Fund", amount(report.DealTotals.DealCosts.OperatingExpenses)},
		{"Setter Commission", amount(report.DealTotals.DealCosts.SetterCosts)},
		{"Sales Rep Commission", amount(report.DealTotals.DealCosts.SalesRepCosts)},
		{"Lead Fulfillment", amount(report.DealTotals.DealCosts.LeadFulfillmentCosts)},
		{"Deal Costs", amount(report.DealTotals.DealCosts.Total)},
		{"Business Costs (recurring)", amount(report.BusinessCosts.Recurring)},
		{"Business Costs (one-time)", amount(report.BusinessCosts.OneTime)},
		{"Business Costs", amount(report.BusinessCosts.Total)},
		{"Total Costs", amount(report.TotalCosts)},
		{"Gross Profit", amount(report.GrossProfit)},
		{"Profit Margin %", amount(report.ProfitMargin)},
		{"Avg Revenue / Deal", amount(report.AvgRevenuePerDeal)},
		{"Avg Profit / Deal", amount(report.AvgProfitPerDeal)},
		{"Deals", printer.Sprintf("%d", report.DealTotals.TotalDeals)},
		{"Leads Sold", printer.Sprintf("%d", report.DealTotals.TotalLeadsSold)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if err := writer.Write([]string{"", ""}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Category", "Contribution"}); err != nil {
		return err
	}
	for _, category := range sortedCategories(report.BusinessCosts.ByCategory) {
		if err := writer.Write([]string{category, amount(report.BusinessCosts.ByCategory[category])}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// amount rounds half-up to pence and formats with locale grouping.
func amount(v float64) string {
	return printer.Sprintf("%.2f", math.Round(v*100)/100)
}

func sortedCategories(byCategory map[string]float64) []string {
	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
