package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type memoryLedgerRepo struct {
	customers    map[int64]Customer
	suppliers    map[int64]Supplier
	customerTxs  []CustomerTransaction
	supplierTxs  []SupplierTransaction
	salesByCust  map[int64]int
	matsBySupp   map[int64]int
	nextPartyID  int64
	nextLedgerID int64
}

type memoryLedgerTx struct {
	repo *memoryLedgerRepo
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		customers:   make(map[int64]Customer),
		suppliers:   make(map[int64]Supplier),
		salesByCust: make(map[int64]int),
		matsBySupp:  make(map[int64]int),
	}
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryLedgerTx{repo: r})
}

func (r *memoryLedgerRepo) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryLedgerRepo) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryLedgerRepo) ListCustomers(ctx context.Context) ([]Customer, error) {
	items := make([]Customer, 0, len(r.customers))
	for _, c := range r.customers {
		items = append(items, c)
	}
	return items, nil
}

func (r *memoryLedgerRepo) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	items := make([]Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		items = append(items, s)
	}
	return items, nil
}

func (r *memoryLedgerRepo) ListCustomerTransactions(ctx context.Context, customerID int64) ([]CustomerTransaction, error) {
	out := []CustomerTransaction{}
	for i := len(r.customerTxs) - 1; i >= 0; i-- {
		if r.customerTxs[i].CustomerID == customerID {
			out = append(out, r.customerTxs[i])
		}
	}
	return out, nil
}

func (r *memoryLedgerRepo) ListSupplierTransactions(ctx context.Context, supplierID int64) ([]SupplierTransaction, error) {
	out := []SupplierTransaction{}
	for i := len(r.supplierTxs) - 1; i >= 0; i-- {
		if r.supplierTxs[i].SupplierID == supplierID {
			out = append(out, r.supplierTxs[i])
		}
	}
	return out, nil
}

func (tx *memoryLedgerTx) GetCustomerForUpdate(ctx context.Context, id int64) (Customer, error) {
	return tx.repo.GetCustomer(ctx, id)
}

func (tx *memoryLedgerTx) GetSupplierForUpdate(ctx context.Context, id int64) (Supplier, error) {
	return tx.repo.GetSupplier(ctx, id)
}

func (tx *memoryLedgerTx) InsertCustomer(ctx context.Context, c Customer) (int64, error) {
	tx.repo.nextPartyID++
	c.ID = tx.repo.nextPartyID
	c.CreatedAt = time.Now()
	tx.repo.customers[c.ID] = c
	return c.ID, nil
}

func (tx *memoryLedgerTx) InsertSupplier(ctx context.Context, s Supplier) (int64, error) {
	tx.repo.nextPartyID++
	s.ID = tx.repo.nextPartyID
	s.CreatedAt = time.Now()
	tx.repo.suppliers[s.ID] = s
	return s.ID, nil
}

func (tx *memoryLedgerTx) UpdateCustomer(ctx context.Context, c Customer) error {
	tx.repo.customers[c.ID] = c
	return nil
}

func (tx *memoryLedgerTx) UpdateSupplier(ctx context.Context, s Supplier) error {
	tx.repo.suppliers[s.ID] = s
	return nil
}

func (tx *memoryLedgerTx) DeleteCustomer(ctx context.Context, id int64) error {
	delete(tx.repo.customers, id)
	return nil
}

func (tx *memoryLedgerTx) DeleteSupplier(ctx context.Context, id int64) error {
	delete(tx.repo.suppliers, id)
	return nil
}

func (tx *memoryLedgerTx) InsertCustomerTransaction(ctx context.Context, t CustomerTransaction) (int64, error) {
	tx.repo.nextLedgerID++
	t.ID = tx.repo.nextLedgerID
	tx.repo.customerTxs = append(tx.repo.customerTxs, t)
	return t.ID, nil
}

func (tx *memoryLedgerTx) InsertSupplierTransaction(ctx context.Context, t SupplierTransaction) (int64, error) {
	tx.repo.nextLedgerID++
	t.ID = tx.repo.nextLedgerID
	tx.repo.supplierTxs = append(tx.repo.supplierTxs, t)
	return t.ID, nil
}

func (tx *memoryLedgerTx) SumCustomerLedger(ctx context.Context, customerID int64) (float64, error) {
	var sum float64
	for _, t := range tx.repo.customerTxs {
		if t.CustomerID != customerID {
			continue
		}
		if t.Type == TransactionPayment {
			sum -= t.Amount
		} else {
			sum += t.Amount
		}
	}
	return sum, nil
}

func (tx *memoryLedgerTx) SumSupplierLedger(ctx context.Context, supplierID int64) (float64, error) {
	var sum float64
	for _, t := range tx.repo.supplierTxs {
		if t.SupplierID != supplierID {
			continue
		}
		if t.Type == TransactionPayment {
			sum -= t.Amount
		} else {
			sum += t.Amount
		}
	}
	return sum, nil
}

func (tx *memoryLedgerTx) CountCustomerSales(ctx context.Context, customerID int64) (int, error) {
	return tx.repo.salesByCust[customerID], nil
}

func (tx *memoryLedgerTx) CountCustomerTransactions(ctx context.Context, customerID int64) (int, error) {
	n := 0
	for _, t := range tx.repo.customerTxs {
		if t.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (tx *memoryLedgerTx) CountSupplierMaterials(ctx context.Context, supplierID int64) (int, error) {
	return tx.repo.matsBySupp[supplierID], nil
}

func (tx *memoryLedgerTx) CountSupplierTransactions(ctx context.Context, supplierID int64) (int, error) {
	n := 0
	for _, t := range tx.repo.supplierTxs {
		if t.SupplierID == supplierID {
			n++
		}
	}
	return n, nil
}

func seedCustomer(repo *memoryLedgerRepo, c Customer) Customer {
	repo.nextPartyID++
	c.ID = repo.nextPartyID
	repo.customers[c.ID] = c
	return c
}

func seedSupplier(repo *memoryLedgerRepo, s Supplier) Supplier {
	repo.nextPartyID++
	s.ID = repo.nextPartyID
	repo.suppliers[s.ID] = s
	return s
}

func TestCreateCustomerRequiresName(t *testing.T) {
	svc := NewService(newMemoryLedgerRepo(), nil)
	_, err := svc.CreateCustomer(context.Background(), PartyInput{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCustomerPaymentAppendsAndDecrements(t *testing.T) {
	repo := newMemoryLedgerRepo()
	c := seedCustomer(repo, Customer{Name: shared.NewLocalizedText("Ahmed", ""), CurrentBalance: 300})
	svc := NewService(repo, nil)

	tx, err := svc.RecordCustomerPayment(context.Background(), c.ID, PaymentInput{Amount: 120})
	require.NoError(t, err)
	require.Equal(t, TransactionPayment, tx.Type)
	require.NotEmpty(t, tx.Description)
	require.InDelta(t, 180.0, repo.customers[c.ID].CurrentBalance, 1e-9)
	require.Len(t, repo.customerTxs, 1)
}

func TestCustomerPaymentMayOvershootBalance(t *testing.T) {
	repo := newMemoryLedgerRepo()
	c := seedCustomer(repo, Customer{Name: shared.NewLocalizedText("Ahmed", ""), CurrentBalance: 50})
	svc := NewService(repo, nil)

	_, err := svc.RecordCustomerPayment(context.Background(), c.ID, PaymentInput{Amount: 80})
	require.NoError(t, err)
	// negative balance is allowed and means prepayment
	require.InDelta(t, -30.0, repo.customers[c.ID].CurrentBalance, 1e-9)
}

func TestSupplierPaymentAppendsAndDecrements(t *testing.T) {
	repo := newMemoryLedgerRepo()
	s := seedSupplier(repo, Supplier{Name: shared.NewLocalizedText("Mills Co", ""), CurrentBalance: 500})
	svc := NewService(repo, nil)

	_, err := svc.RecordSupplierPayment(context.Background(), s.ID, PaymentInput{Amount: 200, Description: "cheque 114"})
	require.NoError(t, err)
	require.InDelta(t, 300.0, repo.suppliers[s.ID].CurrentBalance, 1e-9)
	require.Equal(t, "cheque 114", repo.supplierTxs[0].Description)
}

func TestPaymentRejectsNonPositiveAmount(t *testing.T) {
	repo := newMemoryLedgerRepo()
	c := seedCustomer(repo, Customer{Name: shared.NewLocalizedText("Ahmed", "")})
	svc := NewService(repo, nil)

	_, err := svc.RecordCustomerPayment(context.Background(), c.ID, PaymentInput{Amount: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.RecordCustomerPayment(context.Background(), c.ID, PaymentInput{Amount: -5})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecomputeCustomerBalanceRepairsDrift(t *testing.T) {
	repo := newMemoryLedgerRepo()
	c := seedCustomer(repo, Customer{Name: shared.NewLocalizedText("Ahmed", ""), CurrentBalance: 999})
	repo.customerTxs = append(repo.customerTxs,
		CustomerTransaction{CustomerID: c.ID, Type: TransactionSale, Amount: 400},
		CustomerTransaction{CustomerID: c.ID, Type: TransactionSale, Amount: 100},
		CustomerTransaction{CustomerID: c.ID, Type: TransactionPayment, Amount: 150},
	)
	svc := NewService(repo, nil)

	balance, err := svc.RecomputeCustomerBalance(context.Background(), c.ID)
	require.NoError(t, err)
	require.InDelta(t, 350.0, balance, 1e-9)
	require.InDelta(t, 350.0, repo.customers[c.ID].CurrentBalance, 1e-9)
}

func TestRecomputeSupplierBalanceRepairsDrift(t *testing.T) {
	repo := newMemoryLedgerRepo()
	s := seedSupplier(repo, Supplier{Name: shared.NewLocalizedText("Mills Co", ""), CurrentBalance: -1})
	repo.supplierTxs = append(repo.supplierTxs,
		SupplierTransaction{SupplierID: s.ID, Type: TransactionPurchase, Amount: 250},
		SupplierTransaction{SupplierID: s.ID, Type: TransactionPayment, Amount: 100},
	)
	svc := NewService(repo, nil)

	balance, err := svc.RecomputeSupplierBalance(context.Background(), s.ID)
	require.NoError(t, err)
	require.InDelta(t, 150.0, balance, 1e-9)
}

func TestDeleteCustomerBlockedByHistory(t *testing.T) {
	repo := newMemoryLedgerRepo()
	c := seedCustomer(repo, Customer{Name: shared.NewLocalizedText("Ahmed", "")})
	repo.salesByCust[c.ID] = 3
	svc := NewService(repo, nil)

	err := svc.DeleteCustomer(context.Background(), c.ID)
	var refErr *ReferencedError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, "sales records", refErr.Relation)

	repo.salesByCust[c.ID] = 0
	repo.customerTxs = append(repo.customerTxs, CustomerTransaction{CustomerID: c.ID, Type: TransactionPayment, Amount: 10})
	err = svc.DeleteCustomer(context.Background(), c.ID)
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, "ledger transactions", refErr.Relation)
}

func TestDeleteSupplierBlockedByMaterials(t *testing.T) {
	repo := newMemoryLedgerRepo()
	s := seedSupplier(repo, Supplier{Name: shared.NewLocalizedText("Mills Co", "")})
	repo.matsBySupp[s.ID] = 1
	svc := NewService(repo, nil)

	err := svc.DeleteSupplier(context.Background(), s.ID)
	var refErr *ReferencedError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, "raw materials", refErr.Relation)
	require.ErrorIs(t, err, shared.ErrReferencedEntity)

	repo.matsBySupp[s.ID] = 0
	require.NoError(t, svc.DeleteSupplier(context.Background(), s.ID))
}
