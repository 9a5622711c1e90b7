package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/platform/db"
)

// Repository persists products and recipes in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	InsertProduct(ctx context.Context, p Product) (int64, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id int64) error
	DeleteBOM(ctx context.Context, productID int64) error
	InsertBOMLine(ctx context.Context, line BOMLine) error
	CountProductionRecords(ctx context.Context, productID int64) (int, error)
	CountBOMLines(ctx context.Context, productID int64) (int, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("products repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const productColumns = `id, name, name_ar, size, selling_price, production_cost, current_stock, min_threshold, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name.Primary, &p.Name.Secondary, &p.Size, &p.SellingPrice, &p.ProductionCost, &p.CurrentStock, &p.MinThreshold, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Get loads a single product.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	return scanProduct(row)
}

// List returns products ordered by name.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name.Primary, &p.Name.Secondary, &p.Size, &p.SellingPrice, &p.ProductionCost, &p.CurrentStock, &p.MinThreshold, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// GetBOM lists recipe lines for a product ordered by creation time.
func (r *Repository) GetBOM(ctx context.Context, productID int64) ([]BOMLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, material_id, quantity_per_unit, created_at FROM product_bom WHERE product_id=$1 ORDER BY created_at ASC, id ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []BOMLine{}
	for rows.Next() {
		var line BOMLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.MaterialID, &line.QuantityPerUnit, &line.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *txRepository) InsertProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO products (name, name_ar, size, selling_price, production_cost, current_stock, min_threshold, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id`,
		p.Name.Primary, p.Name.Secondary, p.Size, p.SellingPrice, p.ProductionCost, p.CurrentStock, p.MinThreshold).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateProduct(ctx context.Context, p Product) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET name=$2, name_ar=$3, size=$4, selling_price=$5, production_cost=$6, min_threshold=$7, updated_at=NOW() WHERE id=$1`,
		p.ID, p.Name.Primary, p.Name.Secondary, p.Size, p.SellingPrice, p.ProductionCost, p.MinThreshold)
	return err
}

func (r *txRepository) DeleteProduct(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	return err
}

func (r *txRepository) DeleteBOM(ctx context.Context, productID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM product_bom WHERE product_id=$1`, productID)
	return err
}

func (r *txRepository) InsertBOMLine(ctx context.Context, line BOMLine) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO product_bom (product_id, material_id, quantity_per_unit, created_at) VALUES ($1,$2,$3,NOW())`,
		line.ProductID, line.MaterialID, line.QuantityPerUnit)
	return err
}

func (r *txRepository) CountProductionRecords(ctx context.Context, productID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM production_records WHERE product_id=$1`, productID).Scan(&n)
	return n, err
}

func (r *txRepository) CountBOMLines(ctx context.Context, productID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM product_bom WHERE product_id=$1`, productID).Scan(&n)
	return n, err
}
