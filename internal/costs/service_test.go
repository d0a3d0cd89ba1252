package costs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/reporting"
)

type stubRepo struct {
	records     map[int64]reporting.BusinessCost
	nextID      int64
	deactivated []int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{records: map[int64]reporting.BusinessCost{}}
}

func (r *stubRepo) Create(_ context.Context, cost reporting.BusinessCost) (int64, error) {
	r.nextID++
	cost.ID = r.nextID
	r.records[cost.ID] = cost
	return cost.ID, nil
}

func (r *stubRepo) Get(_ context.Context, id int64) (*reporting.BusinessCost, error) {
	cost, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &cost, nil
}

func (r *stubRepo) Update(_ context.Context, cost reporting.BusinessCost) error {
	if _, ok := r.records[cost.ID]; !ok {
		return ErrNotFound
	}
	r.records[cost.ID] = cost
	return nil
}

func (r *stubRepo) Deactivate(_ context.Context, id int64, _ time.Time) error {
	cost, ok := r.records[id]
	if !ok || !cost.IsActive {
		return ErrNotFound
	}
	cost.IsActive = false
	r.records[id] = cost
	r.deactivated = append(r.deactivated, id)
	return nil
}

func (r *stubRepo) List(_ context.Context, _ ListCostsRequest) ([]reporting.BusinessCost, int, error) {
	out := make([]reporting.BusinessCost, 0, len(r.records))
	for _, cost := range r.records {
		out = append(out, cost)
	}
	return out, len(out), nil
}

func (r *stubRepo) ListCosts(ctx context.Context) ([]reporting.BusinessCost, error) {
	out, _, err := r.List(ctx, ListCostsRequest{})
	return out, err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func strptr(s string) *string { return &s }

func TestCreateRecurringRequiresFrequency(t *testing.T) {
	svc := NewService(testLogger(), newStubRepo())

	_, err := svc.Create(context.Background(), CreateCostRequest{
		Name:          "CRM licence",
		Amount:        300,
		CostType:      "recurring",
		Category:      "software",
		EffectiveDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrFrequencyRequired)
}

func TestCreateOneTimeRejectsFrequency(t *testing.T) {
	svc := NewService(testLogger(), newStubRepo())

	_, err := svc.Create(context.Background(), CreateCostRequest{
		Name:          "Contract review",
		Amount:        150,
		CostType:      "one_time",
		Frequency:     strptr("monthly"),
		Category:      "legal",
		EffectiveDate: time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrFrequencyNotAllowed)
}

func TestCreateRejectsEndBeforeStart(t *testing.T) {
	svc := NewService(testLogger(), newStubRepo())

	end := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), CreateCostRequest{
		Name:          "CRM licence",
		Amount:        300,
		CostType:      "recurring",
		Frequency:     strptr("monthly"),
		Category:      "software",
		EffectiveDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       &end,
	})
	assert.ErrorIs(t, err, ErrEndBeforeStart)
}

func TestCreateRecurringCost(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(testLogger(), repo)

	cost, err := svc.Create(context.Background(), CreateCostRequest{
		Name:          "CRM licence",
		Amount:        300,
		CostType:      "recurring",
		Frequency:     strptr("monthly"),
		Category:      "software",
		EffectiveDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), cost.ID)
	assert.True(t, cost.IsActive)
	require.NotNil(t, cost.Frequency)
	assert.Equal(t, reporting.FrequencyMonthly, *cost.Frequency)
}

func TestUpdateKeepsCostTypeRules(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(testLogger(), repo)

	created, err := svc.Create(context.Background(), CreateCostRequest{
		Name:          "CRM licence",
		Amount:        300,
		CostType:      "recurring",
		Frequency:     strptr("monthly"),
		Category:      "software",
		EffectiveDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Dropping the frequency on a recurring cost must fail.
	_, err = svc.Update(context.Background(), created.ID, UpdateCostRequest{
		Name:          "CRM licence",
		Amount:        350,
		Category:      "software",
		EffectiveDate: created.EffectiveDate,
	})
	assert.ErrorIs(t, err, ErrFrequencyRequired)

	updated, err := svc.Update(context.Background(), created.ID, UpdateCostRequest{
		Name:          "CRM licence (annual plan)",
		Amount:        3300,
		Frequency:     strptr("yearly"),
		Category:      "software",
		EffectiveDate: created.EffectiveDate,
	})
	require.NoError(t, err)
	assert.InDelta(t, 3300.0, updated.Amount, 1e-9)
	require.NotNil(t, updated.Frequency)
	assert.Equal(t, reporting.FrequencyYearly, *updated.Frequency)
}

func TestDeactivateKeepsRecord(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(testLogger(), repo)

	created, err := svc.Create(context.Background(), CreateCostRequest{
		Name:          "Contract review",
		Amount:        150,
		CostType:      "one_time",
		Category:      "legal",
		EffectiveDate: time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, []int64{created.ID}, repo.deactivated)

	// A second deactivation finds no active row.
	assert.ErrorIs(t, svc.Deactivate(context.Background(), created.ID), ErrNotFound)
}
