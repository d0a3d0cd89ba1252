package reporting

import (
	"log/slog"
	"math"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func sampleCosts() []BusinessCost {
	return []BusinessCost{
		{
			ID: 1, Name: "CRM licence", Amount: 300,
			CostType: CostTypeRecurring, Frequency: freq(FrequencyMonthly),
			Category:      "software",
			EffectiveDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			IsActive:      true,
		},
		{
			ID: 2, Name: "Contract review", Amount: 150,
			CostType: CostTypeOneTime, Category: "legal",
			EffectiveDate: time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
			IsActive:      true,
		},
	}
}

func TestAggregateCosts(t *testing.T) {
	totals := AggregateCosts(discardLogger(), sampleCosts(), marchWindow(t))

	if totals.Recurring != 300 {
		t.Fatalf("expected recurring 300, got %v", totals.Recurring)
	}
	if totals.OneTime != 150 {
		t.Fatalf("expected one-time 150, got %v", totals.OneTime)
	}
	if totals.Total != 450 {
		t.Fatalf("expected total 450, got %v", totals.Total)
	}
	if totals.ByCategory["software"] != 300 || totals.ByCategory["legal"] != 150 {
		t.Fatalf("unexpected category split: %#v", totals.ByCategory)
	}
	if totals.Excluded != 0 {
		t.Fatalf("expected no exclusions, got %d", totals.Excluded)
	}
}

func TestAggregateCostsCategorySumLaw(t *testing.T) {
	mid := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	costs := append(sampleCosts(), BusinessCost{
		ID: 3, Name: "Ads retainer", Amount: 910,
		CostType: CostTypeRecurring, Frequency: freq(FrequencyQuarterly),
		Category:      "marketing",
		EffectiveDate: mid,
		IsActive:      true,
	})
	totals := AggregateCosts(discardLogger(), costs, marchWindow(t))

	var byCategory float64
	for _, v := range totals.ByCategory {
		byCategory += v
	}
	if math.Abs(byCategory-(totals.Recurring+totals.OneTime)) > 1e-9 {
		t.Fatalf("category sums %v != recurring %v + one-time %v", byCategory, totals.Recurring, totals.OneTime)
	}
	// The marketing contribution must be the prorated share, not the
	// nominal quarterly amount.
	if totals.ByCategory["marketing"] >= 910 {
		t.Fatalf("category must hold in-window contribution, got %v", totals.ByCategory["marketing"])
	}
}

func TestAggregateCostsExcludesMalformedRecurring(t *testing.T) {
	costs := append(sampleCosts(), BusinessCost{
		ID: 4, Name: "Mystery retainer", Amount: 500,
		CostType: CostTypeRecurring, Category: "software",
		EffectiveDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
	})
	totals := AggregateCosts(discardLogger(), costs, marchWindow(t))
	if totals.Excluded != 1 {
		t.Fatalf("expected one exclusion, got %d", totals.Excluded)
	}
	if totals.Total != 450 {
		t.Fatalf("malformed cost must not contribute, got total %v", totals.Total)
	}
}

func TestAggregateCostsExcludesUnknownCostType(t *testing.T) {
	costs := append(sampleCosts(), BusinessCost{
		ID: 6, Name: "Imported adjustment", Amount: 500,
		CostType: CostType("adjustment"), Category: "software",
		EffectiveDate: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
	})
	totals := AggregateCosts(discardLogger(), costs, marchWindow(t))
	if totals.Excluded != 1 {
		t.Fatalf("expected one exclusion, got %d", totals.Excluded)
	}
	if totals.Total != 450 {
		t.Fatalf("unknown cost type must not contribute, got total %v", totals.Total)
	}
	if totals.ByCategory["software"] != 300 {
		t.Fatalf("unknown cost type must not reach categories, got %v", totals.ByCategory["software"])
	}
}

func TestAggregateCostsIgnoresInactive(t *testing.T) {
	costs := sampleCosts()
	for i := range costs {
		costs[i].IsActive = false
	}
	totals := AggregateCosts(discardLogger(), costs, marchWindow(t))
	if totals.Total != 0 || len(totals.ByCategory) != 0 {
		t.Fatalf("inactive costs must be ignored, got %+v", totals)
	}
}

func TestAggregateCostsOneTimeOutsideWindow(t *testing.T) {
	costs := []BusinessCost{{
		ID: 5, Name: "Old invoice", Amount: 999,
		CostType: CostTypeOneTime, Category: "legal",
		EffectiveDate: time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
	}}
	totals := AggregateCosts(discardLogger(), costs, marchWindow(t))
	if totals.OneTime != 0 {
		t.Fatalf("expected out-of-window one-time cost excluded, got %v", totals.OneTime)
	}
}
