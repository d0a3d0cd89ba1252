package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/reporting"
)

type stubCostLister struct {
	costs []reporting.BusinessCost
}

func (s *stubCostLister) ListCosts(_ context.Context) ([]reporting.BusinessCost, error) {
	return s.costs, nil
}

func TestCostIntegrityScanFlagsMalformedRecords(t *testing.T) {
	monthly := reporting.FrequencyMonthly
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	lister := &stubCostLister{costs: []reporting.BusinessCost{
		{ID: 1, Name: "CRM licence", CostType: reporting.CostTypeRecurring, Frequency: &monthly, EffectiveDate: jan, IsActive: true},
		{ID: 2, Name: "Broken retainer", CostType: reporting.CostTypeRecurring, EffectiveDate: jan, IsActive: true},
		{ID: 3, Name: "Old retainer", CostType: reporting.CostTypeRecurring, EffectiveDate: jan, IsActive: false},
	}}

	job := NewCostIntegrityJob(lister, slog.New(slog.DiscardHandler), nil)

	task, err := NewCostIntegrityTask(CostIntegrityPayload{})
	require.NoError(t, err)
	assert.NoError(t, job.Handle(context.Background(), task))
}

func TestCostIntegrityInspect(t *testing.T) {
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	missing := reporting.BusinessCost{CostType: reporting.CostTypeRecurring, EffectiveDate: jan}
	assert.Len(t, inspect(missing), 1)

	end := jan
	inverted := reporting.BusinessCost{CostType: reporting.CostTypeOneTime, EffectiveDate: jan, EndDate: &end}
	assert.Len(t, inspect(inverted), 1)

	monthly := reporting.FrequencyMonthly
	ok := reporting.BusinessCost{CostType: reporting.CostTypeRecurring, Frequency: &monthly, EffectiveDate: jan}
	assert.Empty(t, inspect(ok))
}
