package sales

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Record, error)
	List(ctx context.Context, customerID int64) ([]Record, error)
}

// AuditPort records sale events after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates sales.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service. audit may be nil.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func newSaleCode() string {
	return "SAL-" + strings.ToUpper(uuid.NewString()[:8])
}

// RecordSale records a sale. Stock goes down, the payment status and method
// are derived from the paid amount and any unpaid remainder owed by a known
// customer becomes a ledger entry plus balance increment, all in one
// transaction. An omitted paid amount means the sale was settled in full;
// a walk-in credit sale keeps only the customer name, with no ledger entry
// to track the debt against.
func (s *Service) RecordSale(ctx context.Context, input RecordInput) (Record, error) {
	if input.Quantity <= 0 {
		return Record{}, ErrInvalidQuantity
	}
	if input.PaidAmount != nil && *input.PaidAmount < 0 {
		return Record{}, ErrInvalidPaidAmount
	}
	date := s.now()
	if input.Date != nil {
		date = *input.Date
	}
	var rec Record
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product.CurrentStock < input.Quantity {
			return &InsufficientStockError{
				Product:   product.Name,
				Available: product.CurrentStock,
				Requested: input.Quantity,
			}
		}

		unitPrice := input.UnitPrice
		if unitPrice == 0 {
			unitPrice = product.SellingPrice
		}
		total := unitPrice*input.Quantity + input.ShippingCost
		paid := total
		if input.PaidAmount != nil {
			paid = *input.PaidAmount
		}
		status, method := derivePayment(total, paid, input.PaymentMethod)
		unpaid := total - paid

		rec = Record{
			Code:          newSaleCode(),
			ProductID:     product.ID,
			CustomerID:    input.CustomerID,
			CustomerName:  input.CustomerName,
			Quantity:      input.Quantity,
			UnitPrice:     unitPrice,
			ShippingCost:  input.ShippingCost,
			TotalAmount:   total,
			PaidAmount:    paid,
			PaymentStatus: status,
			PaymentMethod: method,
			Notes:         input.Notes,
			SaleDate:      date,
		}
		id, err := tx.InsertRecord(ctx, rec)
		if err != nil {
			return err
		}
		rec.ID = id

		if err := tx.UpdateProductStock(ctx, product.ID, product.CurrentStock-input.Quantity); err != nil {
			return err
		}

		if unpaid > 0 && input.CustomerID != nil {
			desc := fmt.Sprintf("Sale of %g x %s, %s outstanding", input.Quantity, product.Name, shared.FormatCurrency(unpaid, "en"))
			if err := tx.AppendCustomerSale(ctx, *input.CustomerID, unpaid, desc, id, date); err != nil {
				return err
			}
			if err := tx.AddCustomerBalance(ctx, *input.CustomerID, unpaid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	s.recordAudit(ctx, "sale.record", rec.ID, map[string]any{
		"code":   rec.Code,
		"total":  shared.FormatCurrency(rec.TotalAmount, "en"),
		"status": string(rec.PaymentStatus),
	})
	return rec, nil
}

// Get loads a single sale.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	return s.repo.Get(ctx, id)
}

// List returns sales for a customer, or all sales when customerID is 0.
func (s *Service) List(ctx context.Context, customerID int64) ([]Record, error) {
	return s.repo.List(ctx, customerID)
}

// DeleteSale reverses a sale exactly: the linked ledger entry is removed
// and the customer balance decremented by the same amount, the record is
// deleted and the sold quantity goes back into product stock.
func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rec, err := tx.GetRecordForUpdate(ctx, id)
		if err != nil {
			return err
		}
		customerID, amount, found, err := tx.RemoveCustomerSaleEntry(ctx, id)
		if err != nil {
			return err
		}
		if found {
			if err := tx.AddCustomerBalance(ctx, customerID, -amount); err != nil {
				return err
			}
		}
		if err := tx.DeleteRecord(ctx, id); err != nil {
			return err
		}
		product, err := tx.GetProductForUpdate(ctx, rec.ProductID)
		if err != nil {
			return err
		}
		return tx.UpdateProductStock(ctx, product.ID, product.CurrentStock+rec.Quantity)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "sale.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "sales_record",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
