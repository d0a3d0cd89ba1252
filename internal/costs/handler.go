package costs

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

const idempotencyModule = "costs"

// Handler wires HTTP interactions for business cost records.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	idem      *shared.IdempotencyStore
	cache     *cache.Cache
}

// NewHandler constructs the costs handler. idem and listCache may be nil.
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

// MountRoutes registers the cost endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/api/costs", h.HandleCreate)
	r.Get("/api/costs", h.HandleList)
	r.Get("/api/costs/{id}", h.HandleGet)
	r.Put("/api/costs/{id}", h.HandleUpdate)
	r.Post("/api/costs/{id}/deactivate", h.HandleDeactivate)
}

// CostViewModel is the wire shape of a business cost record.
type CostViewModel struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Amount        float64    `json:"amount"`
	CostType      string     `json:"cost_type"`
	Frequency     *string    `json:"frequency,omitempty"`
	Category      string     `json:"category"`
	EffectiveDate time.Time  `json:"effective_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type listCostsResponse struct {
	Costs      []CostViewModel   `json:"costs"`
	Pagination shared.Pagination `json:"pagination"`
}

func newCostViewModel(cost reporting.BusinessCost) CostViewModel {
	vm := CostViewModel{
		ID:            cost.ID,
		Name:          cost.Name,
		Amount:        cost.Amount,
		CostType:      string(cost.CostType),
		Category:      cost.Category,
		EffectiveDate: cost.EffectiveDate,
		EndDate:       cost.EndDate,
		IsActive:      cost.IsActive,
		CreatedAt:     cost.CreatedAt,
		UpdatedAt:     cost.UpdatedAt,
	}
	if cost.Frequency != nil {
		f := string(*cost.Frequency)
		vm.Frequency = &f
	}
	return vm
}

// HandleCreate enters a new cost. An Idempotency-Key header, when
// present, guarantees at-most-once application across retries.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCostRequest
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

	cost, err := h.service.Create(r.Context(), req)
	if err != nil {
		if key != "" && h.idem != nil {
			_ = h.idem.Delete(r.Context(), key)
		}
		h.respondServiceError(w, "create cost", err)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump listing cache", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusCreated, newCostViewModel(*cost))
}

// HandleGet returns a single cost.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := costID(w, r)
	if !ok {
		return
	}
	cost, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "get cost", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCostViewModel(*cost))
}

// HandleUpdate revises a cost in place.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := costID(w, r)
	if !ok {
		return
	}
	var req UpdateCostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	cost, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, "update cost", err)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump listing cache", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, newCostViewModel(*cost))
}

// HandleDeactivate retires a cost without deleting it.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := costID(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.respondServiceError(w, "deactivate cost", err)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump listing cache", slog.Any("error", err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList returns a page of costs, served from the versioned listing
// cache when available.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	req := parseListQuery(r)

	loader := func(ctx context.Context) (interface{}, error) {
		costs, total, err := h.service.List(ctx, req)
		if err != nil {
			return nil, err
		}
		vms := make([]CostViewModel, 0, len(costs))
		for _, cost := range costs {
			vms = append(vms, newCostViewModel(cost))
		}
		return listCostsResponse{
			Costs:      vms,
			Pagination: shared.NewPagination(req.Page, req.PerPage, total),
		}, nil
	}

	key, err := h.cache.BuildKey(r.Context(), "costs", "list", listCacheToken(req))
	if err != nil {
		h.logger.Warn("build cache key", slog.Any("error", err))
		key = ""
	}
	var resp listCostsResponse
	if err := h.cache.FetchJSON(r.Context(), key, &resp, loader); err != nil {
		h.logger.Error("list costs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "cost not found")
	case errors.Is(err, ErrFrequencyRequired),
		errors.Is(err, ErrFrequencyNotAllowed),
		errors.Is(err, ErrEndBeforeStart):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func costID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "cost id must be an integer")
		return 0, false
	}
	return id, true
}

func parseListQuery(r *http.Request) ListCostsRequest {
	q := r.URL.Query()
	req := ListCostsRequest{
		CostType:      q.Get("cost_type"),
		Category:      q.Get("category"),
		IncludeClosed: q.Get("include_closed") == "true",
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		req.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil {
		req.PerPage = v
	}
	if req.PerPage <= 0 || req.PerPage > 200 {
		req.PerPage = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	return req
}

func listCacheToken(req ListCostsRequest) string {
	return fmt.Sprintf("%d:%d:%s:%s:%t", req.Page, req.PerPage, req.CostType, req.Category, req.IncludeClosed)
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
