package materials

import (
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Unit enumerates supported measurement units for raw materials.
type Unit string

const (
	UnitKg     Unit = "kg"
	UnitPieces Unit = "pieces"
	UnitSacks  Unit = "sacks"
	UnitLiters Unit = "liters"
	UnitGrams  Unit = "grams"
)

// Valid reports whether the unit is one of the supported values.
func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitPieces, UnitSacks, UnitLiters, UnitGrams:
		return true
	}
	return false
}

// RawMaterial is a stocked input to production. CostPerUnit follows a
// latest-cost policy: each receipt overwrites it with the landed unit cost.
type RawMaterial struct {
	ID           int64                `json:"id"`
	Name         shared.LocalizedText `json:"name"`
	Unit         Unit                 `json:"unit"`
	CurrentStock float64              `json:"current_stock"`
	MinThreshold float64              `json:"min_threshold"`
	CostPerUnit  float64              `json:"cost_per_unit"`
	SupplierID   *int64               `json:"supplier_id,omitempty"`
	LastReceived *time.Time           `json:"last_received,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// MaterialReceipt is an immutable audit record of one procurement event.
type MaterialReceipt struct {
	ID               int64     `json:"id"`
	Code             string    `json:"code"`
	MaterialID       int64     `json:"material_id"`
	SupplierID       *int64    `json:"supplier_id,omitempty"`
	QuantityReceived float64   `json:"quantity_received"`
	UnitCost         float64   `json:"unit_cost"`
	ShippingCost     float64   `json:"shipping_cost"`
	TotalCost        float64   `json:"total_cost"`
	ReceivedDate     time.Time `json:"received_date"`
}

// AddMaterialInput creates a new raw material, optionally recording the
// opening purchase against a supplier.
type AddMaterialInput struct {
	Name         shared.LocalizedText
	Unit         Unit
	CurrentStock float64
	MinThreshold float64
	SupplierID   *int64
	TotalCost    float64
	ShippingCost float64
}

// UpdateMaterialInput carries optional updates; nil fields are left untouched.
type UpdateMaterialInput struct {
	Name         *shared.LocalizedText
	Unit         *Unit
	MinThreshold *float64
	SupplierID   *int64
}

// ReceiveInput describes a procurement event. Exactly one of UnitCost or
// TotalCost is usually supplied; the other is derived.
type ReceiveInput struct {
	MaterialID   int64
	Quantity     float64
	SupplierID   *int64
	UnitCost     *float64
	ShippingCost float64
	TotalCost    *float64
}

var (
	// ErrNotFound indicates a missing material.
	ErrNotFound = fmt.Errorf("materials: %w", shared.ErrNotFound)
	// ErrEmptyName rejects materials without a name.
	ErrEmptyName = fmt.Errorf("materials: name is required: %w", shared.ErrValidation)
	// ErrInvalidUnit rejects unsupported measurement units.
	ErrInvalidUnit = fmt.Errorf("materials: unsupported unit: %w", shared.ErrValidation)
	// ErrInvalidQuantity rejects non-positive received quantities.
	ErrInvalidQuantity = fmt.Errorf("materials: quantity must be positive: %w", shared.ErrValidation)
	// ErrNegativeStock rejects negative opening stock.
	ErrNegativeStock = fmt.Errorf("materials: stock must not be negative: %w", shared.ErrValidation)
)

// ReferencedError blocks deletion while other records still point at the material.
type ReferencedError struct {
	Material string
	Relation string
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("materials: cannot delete %s: referenced by %s", e.Material, e.Relation)
}

func (e *ReferencedError) Unwrap() error { return shared.ErrReferencedEntity }
