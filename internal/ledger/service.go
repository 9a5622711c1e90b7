package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	ListCustomerTransactions(ctx context.Context, customerID int64) ([]CustomerTransaction, error)
	ListSupplierTransactions(ctx context.Context, supplierID int64) ([]SupplierTransaction, error)
}

// AuditPort records ledger mutations after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates customer and supplier ledgers.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service. audit may be nil.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateCustomer adds a customer with a zero opening balance.
func (s *Service) CreateCustomer(ctx context.Context, input PartyInput) (Customer, error) {
	if input.Name.IsEmpty() {
		return Customer{}, ErrEmptyName
	}
	c := Customer{Name: input.Name, Phone: input.Phone, Address: input.Address}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertCustomer(ctx, c)
		if err != nil {
			return err
		}
		c.ID = id
		return nil
	})
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

// CreateSupplier adds a supplier with a zero opening balance.
func (s *Service) CreateSupplier(ctx context.Context, input PartyInput) (Supplier, error) {
	if input.Name.IsEmpty() {
		return Supplier{}, ErrEmptyName
	}
	sup := Supplier{Name: input.Name, Phone: input.Phone, Address: input.Address}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertSupplier(ctx, sup)
		if err != nil {
			return err
		}
		sup.ID = id
		return nil
	})
	if err != nil {
		return Supplier{}, err
	}
	return sup, nil
}

// UpdateCustomer edits contact details; the balance is never set directly.
func (s *Service) UpdateCustomer(ctx context.Context, id int64, input PartyInput) (Customer, error) {
	if input.Name.IsEmpty() {
		return Customer{}, ErrEmptyName
	}
	var updated Customer
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetCustomerForUpdate(ctx, id)
		if err != nil {
			return err
		}
		c.Name = input.Name
		c.Phone = input.Phone
		c.Address = input.Address
		if err := tx.UpdateCustomer(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	return updated, err
}

// UpdateSupplier edits contact details; the balance is never set directly.
func (s *Service) UpdateSupplier(ctx context.Context, id int64, input PartyInput) (Supplier, error) {
	if input.Name.IsEmpty() {
		return Supplier{}, ErrEmptyName
	}
	var updated Supplier
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sup, err := tx.GetSupplierForUpdate(ctx, id)
		if err != nil {
			return err
		}
		sup.Name = input.Name
		sup.Phone = input.Phone
		sup.Address = input.Address
		if err := tx.UpdateSupplier(ctx, sup); err != nil {
			return err
		}
		updated = sup
		return nil
	})
	return updated, err
}

// GetCustomer loads a single customer.
func (s *Service) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// GetSupplier loads a single supplier.
func (s *Service) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

// ListCustomers returns all customers.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// ListSuppliers returns all suppliers.
func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// CustomerStatement returns the transaction log of a customer.
func (s *Service) CustomerStatement(ctx context.Context, customerID int64) ([]CustomerTransaction, error) {
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListCustomerTransactions(ctx, customerID)
}

// SupplierStatement returns the transaction log of a supplier.
func (s *Service) SupplierStatement(ctx context.Context, supplierID int64) ([]SupplierTransaction, error) {
	if _, err := s.repo.GetSupplier(ctx, supplierID); err != nil {
		return nil, err
	}
	return s.repo.ListSupplierTransactions(ctx, supplierID)
}

// RecordCustomerPayment appends a payment entry and decrements the
// customer's balance in the same transaction. Balances may go negative,
// which represents prepayment.
func (s *Service) RecordCustomerPayment(ctx context.Context, customerID int64, input PaymentInput) (CustomerTransaction, error) {
	if input.Amount <= 0 {
		return CustomerTransaction{}, ErrInvalidAmount
	}
	now := s.now()
	t := CustomerTransaction{
		CustomerID:  customerID,
		Type:        TransactionPayment,
		Amount:      input.Amount,
		Description: input.Description,
		Date:        now,
	}
	if t.Description == "" {
		t.Description = fmt.Sprintf("Payment received, %s", shared.FormatCurrency(input.Amount, "en"))
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetCustomerForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		id, err := tx.InsertCustomerTransaction(ctx, t)
		if err != nil {
			return err
		}
		t.ID = id
		c.CurrentBalance -= input.Amount
		return tx.UpdateCustomer(ctx, c)
	})
	if err != nil {
		return CustomerTransaction{}, err
	}
	s.recordAudit(ctx, "customer.payment", "customer", customerID, map[string]any{
		"amount": shared.FormatCurrency(input.Amount, "en"),
	})
	return t, nil
}

// RecordSupplierPayment appends a payment entry and decrements the
// supplier's balance in the same transaction.
func (s *Service) RecordSupplierPayment(ctx context.Context, supplierID int64, input PaymentInput) (SupplierTransaction, error) {
	if input.Amount <= 0 {
		return SupplierTransaction{}, ErrInvalidAmount
	}
	now := s.now()
	t := SupplierTransaction{
		SupplierID:  supplierID,
		Type:        TransactionPayment,
		Amount:      input.Amount,
		Description: input.Description,
		Date:        now,
	}
	if t.Description == "" {
		t.Description = fmt.Sprintf("Payment made, %s", shared.FormatCurrency(input.Amount, "en"))
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sup, err := tx.GetSupplierForUpdate(ctx, supplierID)
		if err != nil {
			return err
		}
		id, err := tx.InsertSupplierTransaction(ctx, t)
		if err != nil {
			return err
		}
		t.ID = id
		sup.CurrentBalance -= input.Amount
		return tx.UpdateSupplier(ctx, sup)
	})
	if err != nil {
		return SupplierTransaction{}, err
	}
	s.recordAudit(ctx, "supplier.payment", "supplier", supplierID, map[string]any{
		"amount": shared.FormatCurrency(input.Amount, "en"),
	})
	return t, nil
}

// RecomputeCustomerBalance replays the full log and overwrites the stored
// balance, repairing any drift in the denormalized value.
func (s *Service) RecomputeCustomerBalance(ctx context.Context, customerID int64) (float64, error) {
	var balance float64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetCustomerForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		sum, err := tx.SumCustomerLedger(ctx, customerID)
		if err != nil {
			return err
		}
		c.CurrentBalance = sum
		balance = sum
		return tx.UpdateCustomer(ctx, c)
	})
	return balance, err
}

// RecomputeSupplierBalance replays the full log and overwrites the stored
// balance.
func (s *Service) RecomputeSupplierBalance(ctx context.Context, supplierID int64) (float64, error) {
	var balance float64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sup, err := tx.GetSupplierForUpdate(ctx, supplierID)
		if err != nil {
			return err
		}
		sum, err := tx.SumSupplierLedger(ctx, supplierID)
		if err != nil {
			return err
		}
		sup.CurrentBalance = sum
		balance = sum
		return tx.UpdateSupplier(ctx, sup)
	})
	return balance, err
}

// DeleteCustomer removes a customer with no sales or ledger history.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetCustomerForUpdate(ctx, id)
		if err != nil {
			return err
		}
		n, err := tx.CountCustomerSales(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &ReferencedError{Party: c.Name.Primary, Relation: "sales records"}
		}
		n, err = tx.CountCustomerTransactions(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &ReferencedError{Party: c.Name.Primary, Relation: "ledger transactions"}
		}
		return tx.DeleteCustomer(ctx, id)
	})
}

// DeleteSupplier removes a supplier with no linked materials or ledger history.
func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sup, err := tx.GetSupplierForUpdate(ctx, id)
		if err != nil {
			return err
		}
		n, err := tx.CountSupplierMaterials(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &ReferencedError{Party: sup.Name.Primary, Relation: "raw materials"}
		}
		n, err = tx.CountSupplierTransactions(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &ReferencedError{Party: sup.Name.Primary, Relation: "ledger transactions"}
		}
		return tx.DeleteSupplier(ctx, id)
	})
}

func (s *Service) recordAudit(ctx context.Context, action, entity string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
