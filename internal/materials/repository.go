package materials

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/platform/db"
)

// Repository persists raw materials and receipts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetMaterialForUpdate(ctx context.Context, id int64) (RawMaterial, error)
	InsertMaterial(ctx context.Context, m RawMaterial) (int64, error)
	UpdateMaterial(ctx context.Context, m RawMaterial) error
	DeleteMaterial(ctx context.Context, id int64) error
	InsertReceipt(ctx context.Context, receipt MaterialReceipt) (int64, error)
	AppendSupplierPurchase(ctx context.Context, supplierID int64, amount float64, description string, date time.Time) error
	CountProductionUses(ctx context.Context, materialID int64) (int, error)
	CountBOMUses(ctx context.Context, materialID int64) (int, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("materials repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const materialColumns = `id, name, name_ar, unit, current_stock, min_threshold, cost_per_unit, supplier_id, last_received, created_at, updated_at`

func scanMaterial(row pgx.Row) (RawMaterial, error) {
	var m RawMaterial
	err := row.Scan(&m.ID, &m.Name.Primary, &m.Name.Secondary, &m.Unit, &m.CurrentStock, &m.MinThreshold, &m.CostPerUnit, &m.SupplierID, &m.LastReceived, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RawMaterial{}, ErrNotFound
	}
	return m, err
}

// Get loads a single material.
func (r *Repository) Get(ctx context.Context, id int64) (RawMaterial, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM raw_materials WHERE id=$1`, id)
	return scanMaterial(row)
}

// List returns materials ordered by name.
func (r *Repository) List(ctx context.Context) ([]RawMaterial, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+materialColumns+` FROM raw_materials ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []RawMaterial{}
	for rows.Next() {
		var m RawMaterial
		if err := rows.Scan(&m.ID, &m.Name.Primary, &m.Name.Secondary, &m.Unit, &m.CurrentStock, &m.MinThreshold, &m.CostPerUnit, &m.SupplierID, &m.LastReceived, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// ListReceipts returns receipts for a material, newest first. materialID 0
// lists every receipt.
func (r *Repository) ListReceipts(ctx context.Context, materialID int64) ([]MaterialReceipt, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, material_id, supplier_id, quantity_received, unit_cost, shipping_cost, total_cost, received_date
FROM material_receipts
WHERE ($1 = 0 OR material_id = $1)
ORDER BY received_date DESC, id DESC`, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	receipts := []MaterialReceipt{}
	for rows.Next() {
		var rec MaterialReceipt
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.MaterialID, &rec.SupplierID, &rec.QuantityReceived, &rec.UnitCost, &rec.ShippingCost, &rec.TotalCost, &rec.ReceivedDate); err != nil {
			return nil, err
		}
		receipts = append(receipts, rec)
	}
	return receipts, rows.Err()
}

func (r *txRepository) GetMaterialForUpdate(ctx context.Context, id int64) (RawMaterial, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+materialColumns+` FROM raw_materials WHERE id=$1 FOR UPDATE`, id)
	return scanMaterial(row)
}

func (r *txRepository) InsertMaterial(ctx context.Context, m RawMaterial) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO raw_materials (name, name_ar, unit, current_stock, min_threshold, cost_per_unit, supplier_id, last_received, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW()) RETURNING id`,
		m.Name.Primary, m.Name.Secondary, string(m.Unit), m.CurrentStock, m.MinThreshold, m.CostPerUnit, m.SupplierID, m.LastReceived).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateMaterial(ctx context.Context, m RawMaterial) error {
	_, err := r.tx.Exec(ctx, `UPDATE raw_materials SET name=$2, name_ar=$3, unit=$4, current_stock=$5, min_threshold=$6, cost_per_unit=$7, supplier_id=$8, last_received=$9, updated_at=NOW() WHERE id=$1`,
		m.ID, m.Name.Primary, m.Name.Secondary, string(m.Unit), m.CurrentStock, m.MinThreshold, m.CostPerUnit, m.SupplierID, m.LastReceived)
	return err
}

func (r *txRepository) DeleteMaterial(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM raw_materials WHERE id=$1`, id)
	return err
}

func (r *txRepository) InsertReceipt(ctx context.Context, receipt MaterialReceipt) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO material_receipts (code, material_id, supplier_id, quantity_received, unit_cost, shipping_cost, total_cost, received_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		receipt.Code, receipt.MaterialID, receipt.SupplierID, receipt.QuantityReceived, receipt.UnitCost, receipt.ShippingCost, receipt.TotalCost, receipt.ReceivedDate).Scan(&id)
	return id, err
}

// AppendSupplierPurchase writes the ledger row and bumps the denormalized
// balance in the same transaction as the stock movement.
func (r *txRepository) AppendSupplierPurchase(ctx context.Context, supplierID int64, amount float64, description string, date time.Time) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO supplier_transactions (supplier_id, transaction_type, amount, description, transaction_date)
VALUES ($1,'purchase',$2,$3,$4)`, supplierID, amount, description, date)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(ctx, `UPDATE suppliers SET current_balance = current_balance + $2, updated_at=NOW() WHERE id=$1`, supplierID, amount)
	return err
}

func (r *txRepository) CountProductionUses(ctx context.Context, materialID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM production_materials WHERE material_id=$1`, materialID).Scan(&n)
	return n, err
}

func (r *txRepository) CountBOMUses(ctx context.Context, materialID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM product_bom WHERE material_id=$1`, materialID).Scan(&n)
	return n, err
}
