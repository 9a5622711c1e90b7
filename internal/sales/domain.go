package sales

import (
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// PaymentStatus is derived from the paid amount, never stored as given.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPartial PaymentStatus = "partial"
	StatusUnpaid  PaymentStatus = "unpaid"
)

// Record is one sale. TotalAmount includes shipping. The unpaid portion,
// if any, lives on as a customer ledger entry referencing this record.
// CustomerName is always recorded, even for walk-ins with no customer
// entity behind them.
type Record struct {
	ID            int64         `json:"id"`
	Code          string        `json:"code"`
	ProductID     int64         `json:"product_id"`
	CustomerID    *int64        `json:"customer_id,omitempty"`
	CustomerName  string        `json:"customer_name"`
	Quantity      float64       `json:"quantity"`
	UnitPrice     float64       `json:"unit_price"`
	ShippingCost  float64       `json:"shipping_cost"`
	TotalAmount   float64       `json:"total_amount"`
	PaidAmount    float64       `json:"paid_amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method"`
	Notes         string        `json:"notes,omitempty"`
	SaleDate      time.Time     `json:"sale_date"`
	CreatedAt     time.Time     `json:"created_at"`
}

// RecordInput describes a sale to record. A nil PaidAmount means the sale
// was settled in full.
type RecordInput struct {
	ProductID     int64
	CustomerID    *int64
	CustomerName  string
	Quantity      float64
	UnitPrice     float64
	ShippingCost  float64
	PaidAmount    *float64
	PaymentMethod string
	Notes         string
	Date          *time.Time
}

var (
	// ErrNotFound indicates a missing sale record.
	ErrNotFound = fmt.Errorf("sales: %w", shared.ErrNotFound)
	// ErrInvalidQuantity rejects non-positive sale quantities.
	ErrInvalidQuantity = fmt.Errorf("sales: quantity must be positive: %w", shared.ErrValidation)
	// ErrInvalidPaidAmount rejects negative paid amounts.
	ErrInvalidPaidAmount = fmt.Errorf("sales: paid amount must not be negative: %w", shared.ErrValidation)
)

// InsufficientStockError reports a sale that exceeds available product stock.
type InsufficientStockError struct {
	Product   string
	Available float64
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("sales: insufficient stock of %s (have %g, requested %g)", e.Product, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return shared.ErrInsufficientStock }

// derivePayment computes the status and method from the paid amount.
// Fully unpaid sales are always 'credit'. Fully paid sales default to
// 'cash', partial sales to 'mixed', unless the caller names a method.
func derivePayment(total, paid float64, method string) (PaymentStatus, string) {
	switch {
	case paid <= 0:
		return StatusUnpaid, "credit"
	case paid >= total:
		if method == "" {
			method = "cash"
		}
		return StatusPaid, method
	default:
		if method == "" {
			method = "mixed"
		}
		return StatusPartial, method
	}
}
