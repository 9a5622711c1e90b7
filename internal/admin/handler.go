package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/jobs"
)

// Handler wires the admin endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueue  func(ctx context.Context, payload jobs.StockAlertScanPayload) error
	validate *validator.Validate
}

// NewHandler constructs admin handler. enqueue may be nil when no job
// queue is configured.
func NewHandler(logger *slog.Logger, service *Service, enqueue func(ctx context.Context, payload jobs.StockAlertScanPayload) error) *Handler {
	return &Handler{logger: logger, service: service, enqueue: enqueue, validate: validator.New()}
}

// MountRoutes registers admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/admin/reset", h.reset)
	r.Post("/admin/stock-scan", h.stockScan)
}

type resetRequest struct {
	Password string `json:"password" validate:"required"`
	// Confirm must repeat the literal phrase to guard against blind calls.
	Confirm string `json:"confirm" validate:"required,eq=DELETE ALL DATA"`
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.ResetAllData(r.Context(), req.Password)
	if err != nil {
		h.logger.Warn("data reset rejected", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("all data reset")
	httpx.JSON(w, http.StatusOK, result)
}

type stockScanRequest struct {
	MaterialsOnly bool `json:"materials_only"`
	ProductsOnly  bool `json:"products_only"`
}

func (h *Handler) stockScan(w http.ResponseWriter, r *http.Request) {
	if h.enqueue == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Jobs Disabled", "no job queue configured")
		return
	}
	var req stockScanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	err := h.enqueue(r.Context(), jobs.StockAlertScanPayload{
		MaterialsOnly: req.MaterialsOnly,
		ProductsOnly:  req.ProductsOnly,
	})
	if err != nil {
		h.logger.Error("enqueue stock scan", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "enqueued"})
}
