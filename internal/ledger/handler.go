package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Handler wires HTTP endpoints for customers, suppliers and their ledgers.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers customer and supplier routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers", h.listCustomers)
	r.Post("/customers", h.createCustomer)
	r.Get("/customers/{id}", h.showCustomer)
	r.Put("/customers/{id}", h.updateCustomer)
	r.Delete("/customers/{id}", h.removeCustomer)
	r.Get("/customers/{id}/transactions", h.customerStatement)
	r.Post("/customers/{id}/payments", h.customerPayment)
	r.Post("/customers/{id}/recompute-balance", h.recomputeCustomer)

	r.Get("/suppliers", h.listSuppliers)
	r.Post("/suppliers", h.createSupplier)
	r.Get("/suppliers/{id}", h.showSupplier)
	r.Put("/suppliers/{id}", h.updateSupplier)
	r.Delete("/suppliers/{id}", h.removeSupplier)
	r.Get("/suppliers/{id}/transactions", h.supplierStatement)
	r.Post("/suppliers/{id}/payments", h.supplierPayment)
	r.Post("/suppliers/{id}/recompute-balance", h.recomputeSupplier)
}

type partyRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	NameAr  string `json:"name_ar" validate:"max=200"`
	Phone   string `json:"phone" validate:"max=30"`
	Address string `json:"address" validate:"max=500"`
}

type paymentRequest struct {
	Amount      float64 `json:"amount" validate:"gt=0"`
	Description string  `json:"description" validate:"max=500"`
}

func (h *Handler) decodeParty(w http.ResponseWriter, r *http.Request) (PartyInput, bool) {
	var req partyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return PartyInput{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return PartyInput{}, false
	}
	return PartyInput{
		Name:    shared.NewLocalizedText(req.Name, req.NameAr),
		Phone:   req.Phone,
		Address: req.Address,
	}, true
}

func (h *Handler) decodePayment(w http.ResponseWriter, r *http.Request) (PaymentInput, bool) {
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return PaymentInput{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return PaymentInput{}, false
	}
	return PaymentInput{Amount: req.Amount, Description: req.Description}, true
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListCustomers(r.Context())
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeParty(w, r)
	if !ok {
		return
	}
	customer, err := h.service.CreateCustomer(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("customer created", slog.Int64("id", customer.ID), slog.String("name", customer.Name.Primary))
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) showCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	customer, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	input, ok := h.decodeParty(w, r)
	if !ok {
		return
	}
	customer, err := h.service.UpdateCustomer(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) removeCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) customerStatement(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	txs, err := h.service.CustomerStatement(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txs)
}

func (h *Handler) customerPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	input, ok := h.decodePayment(w, r)
	if !ok {
		return
	}
	tx, err := h.service.RecordCustomerPayment(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("customer payment recorded", slog.Int64("customer_id", id), slog.Float64("amount", tx.Amount))
	httpx.JSON(w, http.StatusCreated, tx)
}

func (h *Handler) recomputeCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	balance, err := h.service.RecomputeCustomerBalance(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]float64{"current_balance": balance})
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		h.logger.Error("list suppliers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeParty(w, r)
	if !ok {
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("supplier created", slog.Int64("id", supplier.ID), slog.String("name", supplier.Name.Primary))
	httpx.JSON(w, http.StatusCreated, supplier)
}

func (h *Handler) showSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	supplier, err := h.service.GetSupplier(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	input, ok := h.decodeParty(w, r)
	if !ok {
		return
	}
	supplier, err := h.service.UpdateSupplier(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) removeSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.service.DeleteSupplier(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) supplierStatement(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	txs, err := h.service.SupplierStatement(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txs)
}

func (h *Handler) supplierPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	input, ok := h.decodePayment(w, r)
	if !ok {
		return
	}
	tx, err := h.service.RecordSupplierPayment(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("supplier payment recorded", slog.Int64("supplier_id", id), slog.Float64("amount", tx.Amount))
	httpx.JSON(w, http.StatusCreated, tx)
}

func (h *Handler) recomputeSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := parsePartyID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	balance, err := h.service.RecomputeSupplierBalance(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]float64{"current_balance": balance})
}

func parsePartyID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
