package materials

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Handler wires HTTP endpoints for raw materials and receipts.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs materials handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers material routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/materials", h.list)
	r.Post("/materials", h.create)
	r.Get("/materials/{id}", h.show)
	r.Put("/materials/{id}", h.update)
	r.Delete("/materials/{id}", h.remove)
	r.Post("/materials/{id}/receive", h.receive)
	r.Get("/materials/{id}/receipts", h.listReceipts)
	r.Get("/materials/{id}/cost", h.cost)
	r.Get("/receipts", h.listAllReceipts)
}

type createMaterialRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	NameAr       string  `json:"name_ar" validate:"max=200"`
	Unit         string  `json:"unit" validate:"required,oneof=kg pieces sacks liters grams"`
	CurrentStock float64 `json:"current_stock" validate:"gte=0"`
	MinThreshold float64 `json:"min_threshold" validate:"gte=0"`
	SupplierID   *int64  `json:"supplier_id,omitempty"`
	TotalCost    float64 `json:"total_cost" validate:"gte=0"`
	ShippingCost float64 `json:"shipping_cost" validate:"gte=0"`
}

type updateMaterialRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	NameAr       *string  `json:"name_ar,omitempty" validate:"omitempty,max=200"`
	Unit         *string  `json:"unit,omitempty" validate:"omitempty,oneof=kg pieces sacks liters grams"`
	MinThreshold *float64 `json:"min_threshold,omitempty" validate:"omitempty,gte=0"`
	SupplierID   *int64   `json:"supplier_id,omitempty"`
}

type receiveRequest struct {
	Quantity     float64  `json:"quantity" validate:"gt=0"`
	SupplierID   *int64   `json:"supplier_id,omitempty"`
	UnitCost     *float64 `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
	ShippingCost float64  `json:"shipping_cost" validate:"gte=0"`
	TotalCost    *float64 `json:"total_cost,omitempty" validate:"omitempty,gte=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list materials", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createMaterialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	material, err := h.service.Add(r.Context(), AddMaterialInput{
		Name:         shared.NewLocalizedText(req.Name, req.NameAr),
		Unit:         Unit(req.Unit),
		CurrentStock: req.CurrentStock,
		MinThreshold: req.MinThreshold,
		SupplierID:   req.SupplierID,
		TotalCost:    req.TotalCost,
		ShippingCost: req.ShippingCost,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("material created", slog.Int64("id", material.ID), slog.String("name", material.Name.Primary))
	httpx.JSON(w, http.StatusCreated, material)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseMaterialID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	material, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, material)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseMaterialID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req updateMaterialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := UpdateMaterialInput{
		MinThreshold: req.MinThreshold,
		SupplierID:   req.SupplierID,
	}
	if req.Name != nil || req.NameAr != nil {
		var name shared.LocalizedText
		if req.Name != nil {
			name.Primary = *req.Name
		}
		if req.NameAr != nil {
			name.Secondary = *req.NameAr
		}
		input.Name = &name
	}
	if req.Unit != nil {
		u := Unit(*req.Unit)
		input.Unit = &u
	}
	material, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, material)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseMaterialID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("material deleted", slog.Int64("id", id))
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	id, err := parseMaterialID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req receiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	receipt, err := h.service.Receive(r.Context(), ReceiveInput{
		MaterialID:   id,
		Quantity:     req.Quantity,
		SupplierID:   req.SupplierID,
		UnitCost:     req.UnitCost,
		ShippingCost: req.ShippingCost,
		TotalCost:    req.TotalCost,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("material received", slog.Int64("material_id", id), slog.String("code", receipt.Code), slog.Float64("quantity", receipt.QuantityReceived))
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	id, err := parseMaterialID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	receipts, err := h.service.ListReceipts(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipts)
}

func (h *Handler) listAllReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.service.ListReceipts(r.Context(), 0)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipts)
}

func (h *Handler) cost(w http.ResponseWriter, r *http.Request) {
	id, err := parseMaterialID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	latest, err := h.service.LatestUnitCost(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	average, err := h.service.AverageUnitCost(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]float64{"latest_unit_cost": latest, "average_unit_cost": average})
}

func parseMaterialID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
