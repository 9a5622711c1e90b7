package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/platform/db"
)

// Repository persists customers, suppliers and their transaction logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetCustomerForUpdate(ctx context.Context, id int64) (Customer, error)
	GetSupplierForUpdate(ctx context.Context, id int64) (Supplier, error)
	InsertCustomer(ctx context.Context, c Customer) (int64, error)
	InsertSupplier(ctx context.Context, s Supplier) (int64, error)
	UpdateCustomer(ctx context.Context, c Customer) error
	UpdateSupplier(ctx context.Context, s Supplier) error
	DeleteCustomer(ctx context.Context, id int64) error
	DeleteSupplier(ctx context.Context, id int64) error
	InsertCustomerTransaction(ctx context.Context, t CustomerTransaction) (int64, error)
	InsertSupplierTransaction(ctx context.Context, t SupplierTransaction) (int64, error)
	SumCustomerLedger(ctx context.Context, customerID int64) (float64, error)
	SumSupplierLedger(ctx context.Context, supplierID int64) (float64, error)
	CountCustomerSales(ctx context.Context, customerID int64) (int, error)
	CountCustomerTransactions(ctx context.Context, customerID int64) (int, error)
	CountSupplierMaterials(ctx context.Context, supplierID int64) (int, error)
	CountSupplierTransactions(ctx context.Context, supplierID int64) (int, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const partyColumns = `id, name, name_ar, phone, address, current_balance, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name.Primary, &c.Name.Secondary, &c.Phone, &c.Address, &c.CurrentBalance, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name.Primary, &s.Name.Secondary, &s.Phone, &s.Address, &s.CurrentBalance, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	return s, err
}

// GetCustomer loads a single customer.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `SELECT `+partyColumns+` FROM customers WHERE id=$1`, id))
}

// GetSupplier loads a single supplier.
func (r *Repository) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, `SELECT `+partyColumns+` FROM suppliers WHERE id=$1`, id))
}

// ListCustomers returns customers ordered by name.
func (r *Repository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+partyColumns+` FROM customers ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name.Primary, &c.Name.Secondary, &c.Phone, &c.Address, &c.CurrentBalance, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// ListSuppliers returns suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+partyColumns+` FROM suppliers ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Supplier{}
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name.Primary, &s.Name.Secondary, &s.Phone, &s.Address, &s.CurrentBalance, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// ListCustomerTransactions returns a customer's ledger, newest first.
func (r *Repository) ListCustomerTransactions(ctx context.Context, customerID int64) ([]CustomerTransaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, customer_id, transaction_type, amount, description, reference_id, transaction_date
FROM customer_transactions WHERE customer_id=$1 ORDER BY transaction_date DESC, id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CustomerTransaction{}
	for rows.Next() {
		var t CustomerTransaction
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Type, &t.Amount, &t.Description, &t.ReferenceID, &t.Date); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// ListSupplierTransactions returns a supplier's ledger, newest first.
func (r *Repository) ListSupplierTransactions(ctx context.Context, supplierID int64) ([]SupplierTransaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, supplier_id, transaction_type, amount, description, transaction_date
FROM supplier_transactions WHERE supplier_id=$1 ORDER BY transaction_date DESC, id DESC`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SupplierTransaction{}
	for rows.Next() {
		var t SupplierTransaction
		if err := rows.Scan(&t.ID, &t.SupplierID, &t.Type, &t.Amount, &t.Description, &t.Date); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *txRepository) GetCustomerForUpdate(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(r.tx.QueryRow(ctx, `SELECT `+partyColumns+` FROM customers WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) GetSupplierForUpdate(ctx context.Context, id int64) (Supplier, error) {
	return scanSupplier(r.tx.QueryRow(ctx, `SELECT `+partyColumns+` FROM suppliers WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) InsertCustomer(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO customers (name, name_ar, phone, address, current_balance, created_at, updated_at)
VALUES ($1,$2,$3,$4,0,NOW(),NOW()) RETURNING id`, c.Name.Primary, c.Name.Secondary, c.Phone, c.Address).Scan(&id)
	return id, err
}

func (r *txRepository) InsertSupplier(ctx context.Context, s Supplier) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO suppliers (name, name_ar, phone, address, current_balance, created_at, updated_at)
VALUES ($1,$2,$3,$4,0,NOW(),NOW()) RETURNING id`, s.Name.Primary, s.Name.Secondary, s.Phone, s.Address).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateCustomer(ctx context.Context, c Customer) error {
	_, err := r.tx.Exec(ctx, `UPDATE customers SET name=$2, name_ar=$3, phone=$4, address=$5, current_balance=$6, updated_at=NOW() WHERE id=$1`,
		c.ID, c.Name.Primary, c.Name.Secondary, c.Phone, c.Address, c.CurrentBalance)
	return err
}

func (r *txRepository) UpdateSupplier(ctx context.Context, s Supplier) error {
	_, err := r.tx.Exec(ctx, `UPDATE suppliers SET name=$2, name_ar=$3, phone=$4, address=$5, current_balance=$6, updated_at=NOW() WHERE id=$1`,
		s.ID, s.Name.Primary, s.Name.Secondary, s.Phone, s.Address, s.CurrentBalance)
	return err
}

func (r *txRepository) DeleteCustomer(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	return err
}

func (r *txRepository) DeleteSupplier(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM suppliers WHERE id=$1`, id)
	return err
}

func (r *txRepository) InsertCustomerTransaction(ctx context.Context, t CustomerTransaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO customer_transactions (customer_id, transaction_type, amount, description, reference_id, transaction_date)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`, t.CustomerID, string(t.Type), t.Amount, t.Description, t.ReferenceID, t.Date).Scan(&id)
	return id, err
}

func (r *txRepository) InsertSupplierTransaction(ctx context.Context, t SupplierTransaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO supplier_transactions (supplier_id, transaction_type, amount, description, transaction_date)
VALUES ($1,$2,$3,$4,$5) RETURNING id`, t.SupplierID, string(t.Type), t.Amount, t.Description, t.Date).Scan(&id)
	return id, err
}

// SumCustomerLedger folds the full log: sales add, payments subtract.
func (r *txRepository) SumCustomerLedger(ctx context.Context, customerID int64) (float64, error) {
	var sum float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN transaction_type='payment' THEN -amount ELSE amount END),0)
FROM customer_transactions WHERE customer_id=$1`, customerID).Scan(&sum)
	return sum, err
}

// SumSupplierLedger folds the full log: purchases add, payments subtract.
func (r *txRepository) SumSupplierLedger(ctx context.Context, supplierID int64) (float64, error) {
	var sum float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN transaction_type='payment' THEN -amount ELSE amount END),0)
FROM supplier_transactions WHERE supplier_id=$1`, supplierID).Scan(&sum)
	return sum, err
}

func (r *txRepository) CountCustomerSales(ctx context.Context, customerID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM sales_records WHERE customer_id=$1`, customerID).Scan(&n)
	return n, err
}

func (r *txRepository) CountCustomerTransactions(ctx context.Context, customerID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM customer_transactions WHERE customer_id=$1`, customerID).Scan(&n)
	return n, err
}

func (r *txRepository) CountSupplierMaterials(ctx context.Context, supplierID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM raw_materials WHERE supplier_id=$1`, supplierID).Scan(&n)
	return n, err
}

func (r *txRepository) CountSupplierTransactions(ctx context.Context, supplierID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM supplier_transactions WHERE supplier_id=$1`, supplierID).Scan(&n)
	return n, err
}
