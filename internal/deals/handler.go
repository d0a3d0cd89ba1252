package deals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pulseboard/pulseboard/internal/platform/cache"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/reporting"
	"github.com/pulseboard/pulseboard/internal/shared"
)

const idempotencyModule = "deals"

// Handler wires HTTP interactions for deal entry.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	idem      *shared.IdempotencyStore
	cache     *cache.Cache
}

// NewHandler constructs the deals handler. idem and listCache may be nil.
func NewHandler(logger *slog.Logger, service *Service, idem *shared.IdempotencyStore, listCache *cache.Cache) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		idem:      idem,
		cache:     listCache,
	}
}

// MountRoutes registers the deal endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/api/deals", h.HandleCreate)
	r.Get("/api/deals", h.HandleList)
	r.Get("/api/deals/{id}", h.HandleGet)
}

// DealViewModel is the wire shape of a deal record.
type DealViewModel struct {
	ID                        int64     `json:"id"`
	ClientName                string    `json:"client_name"`
	RevenueIncVat             float64   `json:"revenue_inc_vat"`
	RevenueNet                float64   `json:"revenue_net"`
	OperatingExpense          float64   `json:"operating_expense"`
	LeadsSold                 int       `json:"leads_sold"`
	LeadSalePrice             float64   `json:"lead_sale_price"`
	SetterCommissionPercent   float64   `json:"setter_commission_percent"`
	SalesRepCommissionPercent float64   `json:"sales_rep_commission_percent"`
	SetterCost                float64   `json:"setter_cost"`
	SalesRepCost              float64   `json:"sales_rep_cost"`
	LeadFulfillmentCost       float64   `json:"lead_fulfillment_cost"`
	CloseDate                 time.Time `json:"close_date"`
	CreatedAt                 time.Time `json:"created_at"`
}

type listDealsResponse struct {
	Deals      []DealViewModel   `json:"deals"`
	Pagination shared.Pagination `json:"pagination"`
}

func newDealViewModel(deal reporting.Deal) DealViewModel {
	return DealViewModel{
		ID:                        deal.ID,
		ClientName:                deal.ClientName,
		RevenueIncVat:             deal.RevenueIncVat,
		RevenueNet:                deal.RevenueNet,
		OperatingExpense:          deal.OperatingExpense,
		LeadsSold:                 deal.LeadsSold,
		LeadSalePrice:             deal.LeadSalePrice,
		SetterCommissionPercent:   deal.SetterCommissionPercent,
		SalesRepCommissionPercent: deal.SalesRepCommissionPercent,
		SetterCost:                deal.SetterCost,
		SalesRepCost:              deal.SalesRepCost,
		LeadFulfillmentCost:       deal.LeadFulfillmentCost,
		CloseDate:                 deal.CloseDate,
		CreatedAt:                 deal.CreatedAt,
	}
}

// HandleCreate enters a new deal. An Idempotency-Key header, when
// present, guarantees at-most-once application across retries.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateDealRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && h.idem != nil {
		if err := h.idem.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate", "request already processed")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}

	deal, err := h.service.Create(r.Context(), req)
	if err != nil {
		if key != "" && h.idem != nil {
			_ = h.idem.Delete(r.Context(), key)
		}
		h.logger.Error("create deal", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump listing cache", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusCreated, newDealViewModel(*deal))
}

// HandleGet returns a single deal.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "deal id must be an integer")
		return
	}
	deal, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "deal not found")
			return
		}
		h.logger.Error("get deal", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newDealViewModel(*deal))
}

// HandleList returns a page of deals, served from the versioned listing
// cache when available.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	req := parseListQuery(r)

	loader := func(ctx context.Context) (interface{}, error) {
		deals, total, err := h.service.List(ctx, req)
		if err != nil {
			return nil, err
		}
		vms := make([]DealViewModel, 0, len(deals))
		for _, deal := range deals {
			vms = append(vms, newDealViewModel(deal))
		}
		return listDealsResponse{
			Deals:      vms,
			Pagination: shared.NewPagination(req.Page, req.PerPage, total),
		}, nil
	}

	key, err := h.cache.BuildKey(r.Context(), "deals", "list", listCacheToken(req))
	if err != nil {
		h.logger.Warn("build cache key", slog.Any("error", err))
		key = ""
	}
	var resp listDealsResponse
	if err := h.cache.FetchJSON(r.Context(), key, &resp, loader); err != nil {
		h.logger.Error("list deals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func parseListQuery(r *http.Request) ListDealsRequest {
	q := r.URL.Query()
	req := ListDealsRequest{}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		req.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil {
		req.PerPage = v
	}
	if t, err := time.Parse(time.RFC3339, q.Get("from")); err == nil {
		req.From = &t
	}
	if t, err := time.Parse(time.RFC3339, q.Get("to")); err == nil {
		req.To = &t
	}
	if req.PerPage <= 0 || req.PerPage > 200 {
		req.PerPage = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	return req
}

func listCacheToken(req ListDealsRequest) string {
	from, to := "-", "-"
	if req.From != nil {
		from = req.From.UTC().Format(time.RFC3339)
	}
	if req.To != nil {
		to = req.To.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%d:%d:%s:%s", req.Page, req.PerPage, from, to)
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return "invalid fields: " + strings.Join(fields, ", ")
	}
	return err.Error()
}
