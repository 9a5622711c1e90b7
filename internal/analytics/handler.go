package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires the analytics read endpoint. Concurrent requests for the
// same customer share one computation, and results live in the cache
// until the TTL or a version bump.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cache   *Cache
	group   singleflight.Group
}

// NewHandler constructs analytics handler. cache may be nil.
func NewHandler(logger *slog.Logger, service *Service, cache *Cache) *Handler {
	return &Handler{logger: logger, service: service, cache: cache}
}

// MountRoutes registers analytics routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/analytics/customers/{id}", h.customer)
}

func (h *Handler) customer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	key, err := h.cache.CustomerKey(r.Context(), id)
	if err != nil {
		h.logger.Error("analytics cache key", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	result, err := h.compute(r.Context(), key, id)
	if err != nil {
		h.logger.Error("compute customer analytics", slog.Int64("customer_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) compute(ctx context.Context, key string, customerID int64) (CustomerAnalytics, error) {
	resultChan := h.group.DoChan(key, func() (interface{}, error) {
		var out CustomerAnalytics
		err := h.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
			return h.service.ComputeCustomer(ctx, customerID)
		})
		return out, err
	})
	select {
	case <-ctx.Done():
		return CustomerAnalytics{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return CustomerAnalytics{}, res.Err
		}
		return res.Val.(CustomerAnalytics), nil
	}
}
