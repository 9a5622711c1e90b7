package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type ledgerEntry struct {
	customerID  int64
	amount      float64
	description string
	referenceID int64
}

type memorySalesRepo struct {
	products map[int64]ProductState
	records  map[int64]Record
	ledger   []ledgerEntry
	balances map[int64]float64
	nextID   int64
}

type memorySalesTx struct {
	repo *memorySalesRepo
}

func newMemorySalesRepo() *memorySalesRepo {
	return &memorySalesRepo{
		products: make(map[int64]ProductState),
		records:  make(map[int64]Record),
		balances: make(map[int64]float64),
	}
}

func (r *memorySalesRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memorySalesTx{repo: r})
}

func (r *memorySalesRepo) Get(ctx context.Context, id int64) (Record, error) {
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *memorySalesRepo) List(ctx context.Context, customerID int64) ([]Record, error) {
	out := []Record{}
	for _, rec := range r.records {
		if customerID == 0 || (rec.CustomerID != nil && *rec.CustomerID == customerID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (tx *memorySalesTx) GetProductForUpdate(ctx context.Context, id int64) (ProductState, error) {
	p, ok := tx.repo.products[id]
	if !ok {
		return ProductState{}, ErrNotFound
	}
	return p, nil
}

func (tx *memorySalesTx) GetRecordForUpdate(ctx context.Context, id int64) (Record, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memorySalesTx) InsertRecord(ctx context.Context, rec Record) (int64, error) {
	tx.repo.nextID++
	rec.ID = tx.repo.nextID
	rec.CreatedAt = time.Now()
	tx.repo.records[rec.ID] = rec
	return rec.ID, nil
}

func (tx *memorySalesTx) DeleteRecord(ctx context.Context, id int64) error {
	delete(tx.repo.records, id)
	return nil
}

func (tx *memorySalesTx) UpdateProductStock(ctx context.Context, productID int64, newStock float64) error {
	p := tx.repo.products[productID]
	p.CurrentStock = newStock
	tx.repo.products[productID] = p
	return nil
}

func (tx *memorySalesTx) AppendCustomerSale(ctx context.Context, customerID int64, amount float64, description string, referenceID int64, date time.Time) error {
	tx.repo.ledger = append(tx.repo.ledger, ledgerEntry{customerID: customerID, amount: amount, description: description, referenceID: referenceID})
	return nil
}

func (tx *memorySalesTx) RemoveCustomerSaleEntry(ctx context.Context, referenceID int64) (int64, float64, bool, error) {
	for i, e := range tx.repo.ledger {
		if e.referenceID == referenceID {
			tx.repo.ledger = append(tx.repo.ledger[:i], tx.repo.ledger[i+1:]...)
			return e.customerID, e.amount, true, nil
		}
	}
	return 0, 0, false, nil
}

func (tx *memorySalesTx) AddCustomerBalance(ctx context.Context, customerID int64, delta float64) error {
	tx.repo.balances[customerID] += delta
	return nil
}

func seedShop(repo *memorySalesRepo) {
	repo.products[1] = ProductState{ID: 1, Name: "Bread", CurrentStock: 40, SellingPrice: 5}
}

func custPtr(v int64) *int64 { return &v }

func paidPtr(v float64) *float64 { return &v }

func TestRecordSaleFullyPaidDefaultsToCash(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	rec, err := svc.RecordSale(context.Background(), RecordInput{
		ProductID:    1,
		CustomerName: "Walk-in",
		Quantity:     10,
		UnitPrice:    5,
		PaidAmount:   paidPtr(50),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, rec.PaymentStatus)
	require.Equal(t, "cash", rec.PaymentMethod)
	require.InDelta(t, 50.0, rec.TotalAmount, 1e-9)
	require.InDelta(t, 30.0, repo.products[1].CurrentStock, 1e-9)
	require.Empty(t, repo.ledger)
	require.Contains(t, rec.Code, "SAL-")
}

func TestRecordSaleOmittedPaidAmountSettlesInFull(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	rec, err := svc.RecordSale(context.Background(), RecordInput{
		ProductID:    1,
		CustomerName: "Walk-in",
		Quantity:     2,
		UnitPrice:    5,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, rec.PaymentStatus)
	require.Equal(t, "cash", rec.PaymentMethod)
	require.InDelta(t, 10.0, rec.PaidAmount, 1e-9)
	require.Empty(t, repo.ledger)
}

func TestRecordSaleTotalIncludesShipping(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	rec, err := svc.RecordSale(context.Background(), RecordInput{
		ProductID:    1,
		CustomerID:   custPtr(9),
		CustomerName: "Nadia",
		Quantity:     4,
		UnitPrice:    5,
		ShippingCost: 15,
		PaidAmount:   paidPtr(20),
	})
	require.NoError(t, err)
	require.InDelta(t, 35.0, rec.TotalAmount, 1e-9)
	require.Equal(t, StatusPartial, rec.PaymentStatus)
	require.Equal(t, "mixed", rec.PaymentMethod)

	// unpaid remainder carried on the customer ledger
	require.Len(t, repo.ledger, 1)
	require.InDelta(t, 15.0, repo.ledger[0].amount, 1e-9)
	require.Equal(t, rec.ID, repo.ledger[0].referenceID)
	require.InDelta(t, 15.0, repo.balances[9], 1e-9)
}

func TestRecordSaleUnpaidForcesCredit(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	rec, err := svc.RecordSale(context.Background(), RecordInput{
		ProductID:     1,
		CustomerID:    custPtr(9),
		CustomerName:  "Nadia",
		Quantity:      2,
		UnitPrice:     5,
		PaidAmount:    paidPtr(0),
		PaymentMethod: "cash", // caller's method is overridden for unpaid
	})
	require.NoError(t, err)
	require.Equal(t, StatusUnpaid, rec.PaymentStatus)
	require.Equal(t, "credit", rec.PaymentMethod)
	require.InDelta(t, 10.0, repo.balances[9], 1e-9)
}

func TestRecordSaleUsesProductPriceWhenUnset(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	rec, err := svc.RecordSale(context.Background(), RecordInput{
		ProductID:    1,
		CustomerName: "Walk-in",
		Quantity:     3,
		PaidAmount:   paidPtr(15),
	})
	require.NoError(t, err)
	require.InDelta(t, 5.0, rec.UnitPrice, 1e-9)
	require.InDelta(t, 15.0, rec.TotalAmount, 1e-9)
}

func TestRecordSaleWalkInCreditKeepsNameSkipsLedger(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	rec, err := svc.RecordSale(context.Background(), RecordInput{
		ProductID:    1,
		CustomerName: "Om Hassan",
		Quantity:     2,
		UnitPrice:    5,
		PaidAmount:   paidPtr(0),
	})
	require.NoError(t, err)
	require.Equal(t, StatusUnpaid, rec.PaymentStatus)
	require.Equal(t, "credit", rec.PaymentMethod)
	require.Equal(t, "Om Hassan", rec.CustomerName)
	require.Nil(t, rec.CustomerID)
	require.InDelta(t, 38.0, repo.products[1].CurrentStock, 1e-9)
	// no customer entity, so no ledger entry to track the debt against
	require.Empty(t, repo.ledger)
	require.Empty(t, repo.balances)
}

func TestRecordSaleRejectsNegativePaidAmount(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	_, err := svc.RecordSale(context.Background(), RecordInput{
		ProductID:    1,
		CustomerName: "Walk-in",
		Quantity:     2,
		UnitPrice:    5,
		PaidAmount:   paidPtr(-1),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.InDelta(t, 40.0, repo.products[1].CurrentStock, 1e-9)
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	_, err := svc.RecordSale(context.Background(), RecordInput{ProductID: 1, CustomerName: "Walk-in", Quantity: 100, UnitPrice: 5, PaidAmount: paidPtr(500)})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, "Bread", stockErr.Product)
	require.InDelta(t, 40.0, stockErr.Available, 1e-9)
	require.InDelta(t, 100.0, stockErr.Requested, 1e-9)
}

func TestDeleteSaleExactRoundTrip(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	rec, err := svc.RecordSale(context.Background(), RecordInput{
		ProductID:    1,
		CustomerID:   custPtr(9),
		CustomerName: "Nadia",
		Quantity:     6,
		UnitPrice:    5,
		PaidAmount:   paidPtr(10),
	})
	require.NoError(t, err)
	require.InDelta(t, 20.0, repo.balances[9], 1e-9)

	require.NoError(t, svc.DeleteSale(context.Background(), rec.ID))

	// everything back to the starting point
	require.InDelta(t, 40.0, repo.products[1].CurrentStock, 1e-9)
	require.InDelta(t, 0.0, repo.balances[9], 1e-9)
	require.Empty(t, repo.ledger)
	_, err = repo.Get(context.Background(), rec.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteSalePaidSaleSkipsLedger(t *testing.T) {
	repo := newMemorySalesRepo()
	seedShop(repo)
	svc := NewService(repo, nil)

	rec, err := svc.RecordSale(context.Background(), RecordInput{ProductID: 1, CustomerName: "Walk-in", Quantity: 5, UnitPrice: 5, PaidAmount: paidPtr(25)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSale(context.Background(), rec.ID))
	require.InDelta(t, 40.0, repo.products[1].CurrentStock, 1e-9)
	require.Empty(t, repo.balances)
}
