package sales

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for sales.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sales", h.list)
	r.Post("/sales", h.create)
	r.Get("/sales/{id}", h.show)
	r.Delete("/sales/{id}", h.remove)
}

// PaidAmount is a pointer so "not sent" stays distinct from 0: an omitted
// amount means the sale was settled in full.
type recordSaleRequest struct {
	ProductID     int64      `json:"product_id" validate:"required"`
	CustomerID    *int64     `json:"customer_id,omitempty"`
	CustomerName  string     `json:"customer_name" validate:"required,max=255"`
	Quantity      float64    `json:"quantity" validate:"gt=0"`
	UnitPrice     float64    `json:"unit_price" validate:"gte=0"`
	ShippingCost  float64    `json:"shipping_cost" validate:"gte=0"`
	PaidAmount    *float64   `json:"paid_amount,omitempty" validate:"omitempty,gte=0"`
	PaymentMethod string     `json:"payment_method" validate:"omitempty,oneof=cash credit mixed transfer cheque"`
	Notes         string     `json:"notes" validate:"max=1000"`
	Date          *time.Time `json:"sale_date,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var customerID int64
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "customer_id must be an integer")
			return
		}
		customerID = parsed
	}
	records, err := h.service.List(r.Context(), customerID)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req recordSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.RecordSale(r.Context(), RecordInput{
		ProductID:     req.ProductID,
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		ShippingCost:  req.ShippingCost,
		PaidAmount:    req.PaidAmount,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Date:          req.Date,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("sale recorded", slog.Int64("id", rec.ID), slog.String("code", rec.Code), slog.Float64("total", rec.TotalAmount))
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseSaleID(r)
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
	id, err := parseSaleID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.service.DeleteSale(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("sale deleted", slog.Int64("id", id))
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func parseSaleID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
