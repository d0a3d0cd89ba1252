// Package http wires the profit & loss reporting endpoints.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/reporting"
	"github.com/pulseboard/pulseboard/internal/reporting/export"
)

// Metrics is the subset of the observability surface used here.
type Metrics interface {
	ReportBuilt(period string)
	MalformedCostsExcluded(n int)
}

// Handler serves the P&L report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *reporting.Service
	metrics   Metrics
	rateLimit func(http.Handler) http.Handler
	now       func() time.Time
}

// NewHandler constructs the reporting handler. The clock is injectable so
// handler output is deterministic under test.
func NewHandler(logger *slog.Logger, service *reporting.Service, metrics Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{
		logger:    logger,
		service:   service,
		metrics:   metrics,
		rateLimit: limiter,
		now:       time.Now,
	}
}

// MountRoutes registers the reporting endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/reports/pl", h.HandleGetReport)
	r.Post("/api/reports/pl/projection", h.HandleProjection)
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/api/reports/pl/export.csv", h.HandleExportCSV)
	})
}

type reportParams struct {
	period reporting.PeriodType
	offset int
}

// parseParams resolves the window inputs from the query string. The
// window itself is always resolved server-side; any client-supplied
// startDate/endDate parameters are advisory and ignored.
func (h *Handler) parseParams(r *http.Request) (reportParams, error) {
	period, err := reporting.ParsePeriodType(strings.TrimSpace(r.URL.Query().Get("period")))
	if err != nil {
		return reportParams{}, err
	}
	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil {
			return reportParams{}, fmt.Errorf("%w: offset %q", reporting.ErrInvalidOffset, raw)
		}
		if offset < 0 {
			return reportParams{}, fmt.Errorf("%w: %d", reporting.ErrInvalidOffset, offset)
		}
	}
	if r.URL.Query().Get("startDate") != "" || r.URL.Query().Get("endDate") != "" {
		h.logger.Debug("ignoring client-supplied window bounds",
			slog.String("period", string(period)))
	}
	return reportParams{period: period, offset: offset}, nil
}

func (h *Handler) buildReport(r *http.Request, params reportParams) (reporting.Report, error) {
	now := h.now()
	key := fmt.Sprintf("pl:%s:%d:%d", params.period, params.offset, now.Unix())
	value, err, _ := singleflightBuild(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		report, err := h.service.ComputeReport(ctx, params.period, params.offset, now)
		if err != nil {
			return nil, err
		}
		// Counted here so a coalesced build is recorded exactly once,
		// no matter how many requests share its result.
		if h.metrics != nil {
			h.metrics.ReportBuilt(string(params.period))
			h.metrics.MalformedCostsExcluded(report.BusinessCosts.Excluded)
		}
		return report, nil
	})
	if err != nil {
		return reporting.Report{}, err
	}
	return value.(reporting.Report), nil
}

// HandleGetReport computes and returns the report for (period, offset).
// Optional include_corp_tax and salary query parameters attach a
// projection to the response.
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.buildReport(r, params)
	if err != nil {
		h.logger.Error("compute report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	vm := newReportViewModel(report)
	if opts, ok := parseProjectionQuery(r); ok {
		projection := newProjectionViewModel(reporting.ProjectTaxSalary(report, opts))
		vm.Projection = &projection
	}
	httpx.JSON(w, http.StatusOK, vm)
}

// HandleExportCSV streams the report as a CSV download.
func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.buildReport(r, params)
	if err != nil {
		h.logger.Error("compute report for export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	filename := fmt.Sprintf("pl-%s-%d.csv", params.period, params.offset)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WriteReportCSV(w, report); err != nil {
		h.logger.Error("write report csv", slog.Any("error", err))
	}
}

type projectionRequest struct {
	GrossProfit    float64 `json:"gross_profit"`
	IncludeCorpTax bool    `json:"include_corp_tax"`
	SalaryAmount   float64 `json:"salary_amount"`
}

// HandleProjection applies the tax & salary transform to an already
// computed report. It performs no recomputation and touches no storage.
func (h *Handler) HandleProjection(w http.ResponseWriter, r *http.Request) {
	var req projectionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	projection := reporting.ProjectTaxSalary(
		reporting.Report{GrossProfit: req.GrossProfit},
		reporting.ProjectionOptions{IncludeCorpTax: req.IncludeCorpTax, SalaryAmount: req.SalaryAmount},
	)
	httpx.JSON(w, http.StatusOK, newProjectionViewModel(projection))
}

func parseProjectionQuery(r *http.Request) (reporting.ProjectionOptions, bool) {
	q := r.URL.Query()
	rawTax := strings.TrimSpace(q.Get("include_corp_tax"))
	rawSalary := strings.TrimSpace(q.Get("salary"))
	if rawTax == "" && rawSalary == "" {
		return reporting.ProjectionOptions{}, false
	}
	var opts reporting.ProjectionOptions
	if rawTax != "" {
		if v, err := strconv.ParseBool(rawTax); err == nil {
			opts.IncludeCorpTax = v
		}
	}
	if rawSalary != "" {
		if v, err := strconv.ParseFloat(rawSalary, 64); err == nil && v >= 0 {
			opts.SalaryAmount = v
		}
	}
	return opts, true
}
