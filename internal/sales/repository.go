package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/platform/db"
)

// ProductState is the slice of a product this package reads and writes.
type ProductState struct {
	ID           int64
	Name         string
	CurrentStock float64
	SellingPrice float64
}

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
// A sale touches the record, the product stock and the customer ledger,
// so the whole mutation lives in one tx.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id int64) (ProductState, error)
	GetRecordForUpdate(ctx context.Context, id int64) (Record, error)
	InsertRecord(ctx context.Context, rec Record) (int64, error)
	DeleteRecord(ctx context.Context, id int64) error
	UpdateProductStock(ctx context.Context, productID int64, newStock float64) error
	AppendCustomerSale(ctx context.Context, customerID int64, amount float64, description string, referenceID int64, date time.Time) error
	RemoveCustomerSaleEntry(ctx context.Context, referenceID int64) (customerID int64, amount float64, found bool, err error)
	AddCustomerBalance(ctx context.Context, customerID int64, delta float64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const recordColumns = `id, code, product_id, customer_id, customer_name, quantity, unit_price, shipping_cost, total_amount, paid_amount, payment_status, payment_method, notes, sale_date, created_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.Code, &rec.ProductID, &rec.CustomerID, &rec.CustomerName, &rec.Quantity, &rec.UnitPrice, &rec.ShippingCost, &rec.TotalAmount, &rec.PaidAmount, &rec.PaymentStatus, &rec.PaymentMethod, &rec.Notes, &rec.SaleDate, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// Get loads a single sale.
func (r *Repository) Get(ctx context.Context, id int64) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM sales_records WHERE id=$1`, id))
}

// List returns sales, newest first, optionally filtered by customer.
func (r *Repository) List(ctx context.Context, customerID int64) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recordColumns+` FROM sales_records
WHERE ($1 = 0 OR customer_id = $1) ORDER BY sale_date DESC, id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.ProductID, &rec.CustomerID, &rec.CustomerName, &rec.Quantity, &rec.UnitPrice, &rec.ShippingCost, &rec.TotalAmount, &rec.PaidAmount, &rec.PaymentStatus, &rec.PaymentMethod, &rec.Notes, &rec.SaleDate, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (ProductState, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, name, current_stock, selling_price FROM products WHERE id=$1 FOR UPDATE`, id)
	var p ProductState
	err := row.Scan(&p.ID, &p.Name, &p.CurrentStock, &p.SellingPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductState{}, ErrNotFound
	}
	return p, err
}

func (r *txRepository) GetRecordForUpdate(ctx context.Context, id int64) (Record, error) {
	return scanRecord(r.tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM sales_records WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) InsertRecord(ctx context.Context, rec Record) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales_records (code, product_id, customer_id, customer_name, quantity, unit_price, shipping_cost, total_amount, paid_amount, payment_status, payment_method, notes, sale_date, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW()) RETURNING id`,
		rec.Code, rec.ProductID, rec.CustomerID, rec.CustomerName, rec.Quantity, rec.UnitPrice, rec.ShippingCost, rec.TotalAmount, rec.PaidAmount, string(rec.PaymentStatus), rec.PaymentMethod, rec.Notes, rec.SaleDate).Scan(&id)
	return id, err
}

func (r *txRepository) DeleteRecord(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM sales_records WHERE id=$1`, id)
	return err
}

func (r *txRepository) UpdateProductStock(ctx context.Context, productID int64, newStock float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET current_stock=$2, updated_at=NOW() WHERE id=$1`, productID, newStock)
	return err
}

func (r *txRepository) AppendCustomerSale(ctx context.Context, customerID int64, amount float64, description string, referenceID int64, date time.Time) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO customer_transactions (customer_id, transaction_type, amount, description, reference_id, transaction_date)
VALUES ($1,'sale',$2,$3,$4,$5)`, customerID, amount, description, referenceID, date)
	return err
}

// RemoveCustomerSaleEntry deletes the ledger entry created for a sale and
// reports what it removed so the balance can be rolled back exactly.
func (r *txRepository) RemoveCustomerSaleEntry(ctx context.Context, referenceID int64) (int64, float64, bool, error) {
	row := r.tx.QueryRow(ctx, `DELETE FROM customer_transactions WHERE reference_id=$1 AND transaction_type='sale'
RETURNING customer_id, amount`, referenceID)
	var customerID int64
	var amount float64
	err := row.Scan(&customerID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return customerID, amount, true, nil
}

func (r *txRepository) AddCustomerBalance(ctx context.Context, customerID int64, delta float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE customers SET current_balance = current_balance + $2, updated_at=NOW() WHERE id=$1`, customerID, delta)
	return err
}
