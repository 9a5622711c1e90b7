package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Handler wires HTTP endpoints for the product catalog.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs products handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.show)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.remove)
	r.Get("/products/{id}/bom", h.showBOM)
	r.Put("/products/{id}/bom", h.saveBOM)
}

type createProductRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	NameAr       string  `json:"name_ar" validate:"max=200"`
	Size         string  `json:"size" validate:"required"`
	SellingPrice float64 `json:"selling_price" validate:"gte=0"`
	MinThreshold float64 `json:"min_threshold" validate:"gte=0"`
	CurrentStock float64 `json:"current_stock" validate:"gte=0"`
}

type updateProductRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	NameAr       *string  `json:"name_ar,omitempty" validate:"omitempty,max=200"`
	Size         *string  `json:"size,omitempty"`
	SellingPrice *float64 `json:"selling_price,omitempty" validate:"omitempty,gte=0"`
	MinThreshold *float64 `json:"min_threshold,omitempty" validate:"omitempty,gte=0"`
}

type saveBOMRequest struct {
	Items []BOMItem `json:"items" validate:"dive"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.service.Create(r.Context(), CreateProductInput{
		Name:         shared.NewLocalizedText(req.Name, req.NameAr),
		Size:         req.Size,
		SellingPrice: req.SellingPrice,
		MinThreshold: req.MinThreshold,
		CurrentStock: req.CurrentStock,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("product created", slog.Int64("id", product.ID), slog.String("name", product.Name.Primary))
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req updateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := UpdateProductInput{
		Size:         req.Size,
		SellingPrice: req.SellingPrice,
		MinThreshold: req.MinThreshold,
	}
	if req.Name != nil || req.NameAr != nil {
		existing, err := h.service.Get(r.Context(), id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		name := existing.Name
		if req.Name != nil {
			name.Primary = *req.Name
		}
		if req.NameAr != nil {
			name.Secondary = *req.NameAr
		}
		input.Name = &name
	}
	product, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("product deleted", slog.Int64("id", id))
	httpx.NoContent(w)
}

func (h *Handler) showBOM(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	lines, err := h.service.GetBOM(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}

func (h *Handler) saveBOM(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req saveBOMRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.service.SaveBOM(r.Context(), id, req.Items); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("recipe saved", slog.Int64("product_id", id), slog.Int("lines", len(req.Items)))
	httpx.NoContent(w)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
