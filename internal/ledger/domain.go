package ledger

import (
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	// TransactionSale increases what a customer owes.
	TransactionSale TransactionType = "sale"
	// TransactionPurchase increases what is owed to a supplier.
	TransactionPurchase TransactionType = "purchase"
	// TransactionPayment settles part of a balance on either side.
	TransactionPayment TransactionType = "payment"
)

// Customer is a buying party. CurrentBalance is the denormalized amount the
// customer still owes; the transaction log is the source of truth.
type Customer struct {
	ID             int64                `json:"id"`
	Name           shared.LocalizedText `json:"name"`
	Phone          string               `json:"phone,omitempty"`
	Address        string               `json:"address,omitempty"`
	CurrentBalance float64              `json:"current_balance"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Supplier is a selling party. CurrentBalance is what the business owes.
type Supplier struct {
	ID             int64                `json:"id"`
	Name           shared.LocalizedText `json:"name"`
	Phone          string               `json:"phone,omitempty"`
	Address        string               `json:"address,omitempty"`
	CurrentBalance float64              `json:"current_balance"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// CustomerTransaction is one append-only entry in a customer's ledger.
// ReferenceID links sale entries back to the originating sales record.
type CustomerTransaction struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	Type        TransactionType `json:"transaction_type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description,omitempty"`
	ReferenceID *int64          `json:"reference_id,omitempty"`
	Date        time.Time       `json:"transaction_date"`
}

// SupplierTransaction is one append-only entry in a supplier's ledger.
type SupplierTransaction struct {
	ID          int64           `json:"id"`
	SupplierID  int64           `json:"supplier_id"`
	Type        TransactionType `json:"transaction_type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"transaction_date"`
}

// PartyInput creates or updates a customer or supplier.
type PartyInput struct {
	Name    shared.LocalizedText
	Phone   string
	Address string
}

// PaymentInput records a settlement against a party's balance.
type PaymentInput struct {
	Amount      float64
	Description string
}

var (
	// ErrNotFound indicates a missing customer or supplier.
	ErrNotFound = fmt.Errorf("ledger: %w", shared.ErrNotFound)
	// ErrEmptyName rejects parties without a name.
	ErrEmptyName = fmt.Errorf("ledger: name is required: %w", shared.ErrValidation)
	// ErrInvalidAmount rejects non-positive payment amounts.
	ErrInvalidAmount = fmt.Errorf("ledger: amount must be positive: %w", shared.ErrValidation)
)

// ReferencedError blocks deleting a party that other records still point at.
type ReferencedError struct {
	Party    string
	Relation string
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("ledger: cannot delete %s: referenced by %s", e.Party, e.Relation)
}

func (e *ReferencedError) Unwrap() error { return shared.ErrReferencedEntity }
