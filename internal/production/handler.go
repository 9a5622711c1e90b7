package production

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for production runs.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs production handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/production", h.list)
	r.Post("/production", h.create)
	r.Get("/production/{id}", h.show)
	r.Delete("/production/{id}", h.remove)
}

type recordRunRequest struct {
	ProductID int64         `json:"product_id" validate:"required"`
	Quantity  float64       `json:"quantity" validate:"gt=0"`
	Materials []MaterialUse `json:"materials" validate:"dive"`
	Notes     string        `json:"notes" validate:"max=1000"`
	Date      *time.Time    `json:"production_date,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var productID int64
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "product_id must be an integer")
			return
		}
		productID = parsed
	}
	records, err := h.service.List(r.Context(), productID)
	if err != nil {
		h.logger.Error("list production", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req recordRunRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.RecordRun(r.Context(), RecordInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Materials: req.Materials,
		Notes:     req.Notes,
		Date:      req.Date,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("production recorded", slog.Int64("id", rec.ID), slog.String("code", rec.Code), slog.Float64("quantity", rec.QuantityProduced))
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseRunID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseRunID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.service.DeleteRun(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("production deleted", slog.Int64("id", id))
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func parseRunID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
