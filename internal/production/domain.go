package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Record is one completed production run. TotalCost is frozen at creation
// from the material costs in effect at that moment.
type Record struct {
	ID               int64          `json:"id"`
	Code             string         `json:"code"`
	ProductID        int64          `json:"product_id"`
	QuantityProduced float64        `json:"quantity_produced"`
	TotalCost        float64        `json:"total_cost"`
	Notes            string         `json:"notes,omitempty"`
	ProductionDate   time.Time      `json:"production_date"`
	CreatedAt        time.Time      `json:"created_at"`
	Materials        []MaterialLine `json:"materials,omitempty"`
}

// MaterialLine snapshots one material consumption. CostAtTime is the
// material's unit cost when the run was recorded and never changes after.
type MaterialLine struct {
	ID           int64   `json:"id"`
	ProductionID int64   `json:"production_id"`
	MaterialID   int64   `json:"material_id"`
	QuantityUsed float64 `json:"quantity_used"`
	CostAtTime   float64 `json:"cost_at_time"`
}

// MaterialUse is a caller-specified consumption override.
type MaterialUse struct {
	MaterialID int64   `json:"material_id" validate:"required"`
	Quantity   float64 `json:"quantity" validate:"gt=0"`
}

// RecordInput describes a production run to record. When Materials is empty
// the consumption is derived from the product's recipe.
type RecordInput struct {
	ProductID int64
	Quantity  float64
	Materials []MaterialUse
	Notes     string
	Date      *time.Time
}

var (
	// ErrNotFound indicates a missing production record.
	ErrNotFound = fmt.Errorf("production: %w", shared.ErrNotFound)
	// ErrInvalidQuantity rejects non-positive production quantities.
	ErrInvalidQuantity = fmt.Errorf("production: quantity must be positive: %w", shared.ErrValidation)
	// ErrNoRecipe indicates the product has no recipe to derive consumption from.
	ErrNoRecipe = fmt.Errorf("production: product has no recipe: %w", shared.ErrNoRecipe)
)

// Shortfall reports one material that cannot cover the planned consumption.
type Shortfall struct {
	MaterialID int64   `json:"material_id"`
	Material   string  `json:"material"`
	Required   float64 `json:"required"`
	Available  float64 `json:"available"`
}

// InsufficientMaterialsError aggregates every shortfall of a rejected run
// so the caller sees the full picture in one round trip.
type InsufficientMaterialsError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientMaterialsError) Error() string {
	names := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		names[i] = fmt.Sprintf("%s (need %g, have %g)", s.Material, s.Required, s.Available)
	}
	return "production: insufficient materials: " + strings.Join(names, "; ")
}

func (e *InsufficientMaterialsError) Unwrap() error { return shared.ErrInsufficientStock }

// NegativeStockError blocks deleting a run whose output has already been sold.
type NegativeStockError struct {
	Product   string
	Available float64
	Requested float64
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("production: deleting run would drive %s stock negative (have %g, would remove %g)", e.Product, e.Available, e.Requested)
}

func (e *NegativeStockError) Unwrap() error { return shared.ErrNegativeStock }
