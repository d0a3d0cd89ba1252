package reporting

import "testing"

func TestProjectTaxSalary(t *testing.T) {
	report := Report{GrossProfit: 1000}
	p := ProjectTaxSalary(report, ProjectionOptions{IncludeCorpTax: true, SalaryAmount: 300})
	if p.CorpTax != 200 {
		t.Fatalf("expected corp tax 200, got %v", p.CorpTax)
	}
	if p.ProfitAfterTax != 800 {
		t.Fatalf("expected profit after tax 800, got %v", p.ProfitAfterTax)
	}
	if p.FinalProfit != 500 {
		t.Fatalf("expected final profit 500, got %v", p.FinalProfit)
	}
}

func TestProjectTaxSalaryNoCorpTaxOnLoss(t *testing.T) {
	report := Report{GrossProfit: -400}
	p := ProjectTaxSalary(report, ProjectionOptions{IncludeCorpTax: true, SalaryAmount: 100})
	if p.CorpTax != 0 {
		t.Fatalf("no corp tax on a loss, got %v", p.CorpTax)
	}
	if p.FinalProfit != -500 {
		t.Fatalf("expected final profit -500, got %v", p.FinalProfit)
	}
}

func TestProjectTaxSalaryDisabled(t *testing.T) {
	report := Report{GrossProfit: 1000}
	p := ProjectTaxSalary(report, ProjectionOptions{})
	if p.CorpTax != 0 || p.ProfitAfterTax != 1000 || p.FinalProfit != 1000 {
		t.Fatalf("unexpected projection %+v", p)
	}
}

func TestProjectTaxSalaryRerunnable(t *testing.T) {
	// Changing the parameters must never require recomputing the report.
	report := Report{GrossProfit: 1000}
	a := ProjectTaxSalary(report, ProjectionOptions{IncludeCorpTax: true})
	b := ProjectTaxSalary(report, ProjectionOptions{SalaryAmount: 250})
	if a.CorpTax != 200 || b.CorpTax != 0 {
		t.Fatalf("projection runs must be independent: %+v %+v", a, b)
	}
	if report.GrossProfit != 1000 {
		t.Fatalf("projection must not mutate the report")
	}
}
