package products

import (
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Product represents a finished good produced from raw materials.
type Product struct {
	ID             int64                `json:"id"`
	Name           shared.LocalizedText `json:"name"`
	Size           string               `json:"size"`
	SellingPrice   float64              `json:"selling_price"`
	ProductionCost float64              `json:"production_cost"`
	CurrentStock   float64              `json:"current_stock"`
	MinThreshold   float64              `json:"min_threshold"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// BOMLine maps a product to one required raw material per produced unit.
type BOMLine struct {
	ID              int64     `json:"id"`
	ProductID       int64     `json:"product_id"`
	MaterialID      int64     `json:"material_id"`
	QuantityPerUnit float64   `json:"quantity_per_unit"`
	CreatedAt       time.Time `json:"created_at"`
}

// BOMItem is the input form of a recipe line.
type BOMItem struct {
	MaterialID      int64   `json:"material_id"`
	QuantityPerUnit float64 `json:"quantity_per_unit"`
}

// CreateProductInput carries fields for a new product.
type CreateProductInput struct {
	Name         shared.LocalizedText
	Size         string
	SellingPrice float64
	MinThreshold float64
	CurrentStock float64
}

// UpdateProductInput carries optional updates; nil fields are left untouched.
type UpdateProductInput struct {
	Name         *shared.LocalizedText
	Size         *string
	SellingPrice *float64
	MinThreshold *float64
}

var (
	// ErrNotFound indicates a missing product.
	ErrNotFound = fmt.Errorf("products: %w", shared.ErrNotFound)
	// ErrEmptySize rejects products without a size label.
	ErrEmptySize = fmt.Errorf("products: size must not be empty: %w", shared.ErrValidation)
	// ErrEmptyName rejects products without a name.
	ErrEmptyName = fmt.Errorf("products: name is required: %w", shared.ErrValidation)
	// ErrInvalidQuantity rejects non-positive recipe quantities.
	ErrInvalidQuantity = fmt.Errorf("products: recipe quantity must be positive: %w", shared.ErrValidation)
)

// ReferencedError blocks deletion while other records still point at the product.
type ReferencedError struct {
	Product  string
	Relation string
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("products: cannot delete %s: referenced by %s", e.Product, e.Relation)
}

func (e *ReferencedError) Unwrap() error { return shared.ErrReferencedEntity }
