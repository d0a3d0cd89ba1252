package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/reporting"
)

var handlerNow = time.Date(2025, time.March, 18, 14, 30, 0, 0, time.UTC)

type stubDealSource struct{ deals []reporting.Deal }

func (s *stubDealSource) ListDealsClosedBetween(ctx context.Context, from, to time.Time) ([]reporting.Deal, error) {
	return s.deals, nil
}

type stubCostSource struct{ costs []reporting.BusinessCost }

func (s *stubCostSource) ListCosts(ctx context.Context) ([]reporting.BusinessCost, error) {
	return s.costs, nil
}

type stubMetrics struct {
	builds   int
	excluded int
}

func (m *stubMetrics) ReportBuilt(string) { m.builds++ }

func (m *stubMetrics) MalformedCostsExcluded(n int) { m.excluded += n }

func monthlyFreq() *reporting.Frequency {
	f := reporting.FrequencyMonthly
	return &f
}

func newTestHandler(t *testing.T) (*Handler, *stubMetrics) {
	t.Helper()
	deals := []reporting.Deal{
		{ID: 1, RevenueIncVat: 1200, OperatingExpense: 240, SetterCost: 60, SalesRepCost: 120,
			LeadFulfillmentCost: 40, LeadsSold: 2,
			CloseDate: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)},
		{ID: 2, RevenueIncVat: 800, OperatingExpense: 160, SetterCost: 40, SalesRepCost: 80,
			LeadFulfillmentCost: 40, LeadsSold: 2,
			CloseDate: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{ID: 3, RevenueIncVat: 400, OperatingExpense: 80, SetterCost: 20, SalesRepCost: 40,
			LeadFulfillmentCost: 20, LeadsSold: 1,
			CloseDate: time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC)},
	}
	costs := []reporting.BusinessCost{
		{ID: 1, Amount: 300, CostType: reporting.CostTypeRecurring, Frequency: monthlyFreq(),
			Category:      "software",
			EffectiveDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), IsActive: true},
		{ID: 2, Amount: 150, CostType: reporting.CostTypeOneTime, Category: "legal",
			EffectiveDate: time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), IsActive: true},
	}
	logger := slog.New(slog.DiscardHandler)
	service := reporting.NewService(logger, &stubDealSource{deals: deals}, &stubCostSource{costs: costs})
	metrics := &stubMetrics{}
	h := NewHandler(logger, service, metrics)
	h.now = func() time.Time { return handlerNow }
	return h, metrics
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestHandleGetReport(t *testing.T) {
	h, metrics := newTestHandler(t)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/pl?period=monthly&offset=0", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var vm ReportViewModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, "March 2025", vm.Label)
	assert.Equal(t, 2400.0, vm.Revenue.IncVat)
	assert.Equal(t, 480.0, vm.Revenue.VatDeducted)
	assert.Equal(t, 1920.0, vm.Revenue.Net)
	assert.Equal(t, 940.0, vm.DealCosts.Total)
	assert.Equal(t, 450.0, vm.BusinessCosts.Total)
	assert.Equal(t, 1390.0, vm.TotalCosts)
	assert.Equal(t, 530.0, vm.GrossProfit)
	assert.Equal(t, 3, vm.TotalDeals)
	assert.Nil(t, vm.Projection)
	assert.Equal(t, 1, metrics.builds)
}

// gatedDealSource parks every computation until released so the test can
// hold a report build in flight.
type gatedDealSource struct {
	entered chan struct{}
	release chan struct{}
	calls   int32
}

func (s *gatedDealSource) ListDealsClosedBetween(ctx context.Context, from, to time.Time) ([]reporting.Deal, error) {
	atomic.AddInt32(&s.calls, 1)
	s.entered <- struct{}{}
	<-s.release
	return nil, nil
}

func TestConcurrentReportRequestsCountEachComputationOnce(t *testing.T) {
	source := &gatedDealSource{entered: make(chan struct{}, 2), release: make(chan struct{})}
	logger := slog.New(slog.DiscardHandler)
	service := reporting.NewService(logger, source, &stubCostSource{})
	metrics := &stubMetrics{}
	h := NewHandler(logger, service, metrics)
	h.now = func() time.Time { return handlerNow }
	router := newRouter(h)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/pl?period=monthly", nil))
			codes[i] = rec.Code
		}(i)
	}

	<-source.entered
	// Let the second request join the in-flight computation before it
	// completes.
	time.Sleep(50 * time.Millisecond)
	close(source.release)
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, int(atomic.LoadInt32(&source.calls)), metrics.builds,
		"every executed computation is counted exactly once, shared or not")
}

func TestHandleGetReportWithProjection(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/reports/pl?period=monthly&include_corp_tax=true&salary=100", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var vm ReportViewModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	require.NotNil(t, vm.Projection)
	assert.Equal(t, 106.0, vm.Projection.CorpTax)
	assert.Equal(t, 424.0, vm.Projection.ProfitAfterTax)
	assert.Equal(t, 324.0, vm.Projection.FinalProfit)
}

func TestHandleGetReportIgnoresClientWindow(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/reports/pl?period=monthly&startDate=1999-01-01&endDate=1999-12-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var vm ReportViewModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, "March 2025", vm.Label, "server-resolved window wins")
}

func TestHandleGetReportInvalidParams(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/pl?period=hourly", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/pl?period=monthly&offset=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/pl?period=monthly&offset=two", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExportCSV(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/pl/export.csv?period=monthly", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "pl-monthly-0.csv")
	assert.Contains(t, rec.Body.String(), "Gross Profit,530.00")
}

func TestHandleProjection(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	body := strings.NewReader(`{"gross_profit": 1000, "include_corp_tax": true, "salary_amount": 300}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reports/pl/projection", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var vm ProjectionViewModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, 200.0, vm.CorpTax)
	assert.Equal(t, 800.0, vm.ProfitAfterTax)
	assert.Equal(t, 500.0, vm.FinalProfit)
}

func TestHandleProjectionBadBody(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reports/pl/projection", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
