package production

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/platform/db"
)

// ProductState is the slice of a product this package reads and writes.
type ProductState struct {
	ID             int64
	Name           string
	CurrentStock   float64
	ProductionCost float64
}

// MaterialState is the slice of a raw material this package reads and writes.
type MaterialState struct {
	ID           int64
	Name         string
	CurrentStock float64
	CostPerUnit  float64
}

// RecipeLine is one per-unit component of a product's recipe.
type RecipeLine struct {
	MaterialID      int64
	QuantityPerUnit float64
}

// Repository persists production runs in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
// A run touches three tables, so the whole mutation lives in one tx.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id int64) (ProductState, error)
	GetMaterialForUpdate(ctx context.Context, id int64) (MaterialState, error)
	GetRecipe(ctx context.Context, productID int64) ([]RecipeLine, error)
	GetRecordForUpdate(ctx context.Context, id int64) (Record, error)
	InsertRecord(ctx context.Context, rec Record) (int64, error)
	InsertMaterialLine(ctx context.Context, line MaterialLine) (int64, error)
	DeleteMaterialLines(ctx context.Context, productionID int64) error
	DeleteRecord(ctx context.Context, id int64) error
	UpdateProduct(ctx context.Context, p ProductState) error
	UpdateMaterialStock(ctx context.Context, materialID int64, newStock float64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("production repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Get loads a record with its material lines.
func (r *Repository) Get(ctx context.Context, id int64) (Record, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, code, product_id, quantity_produced, total_cost, notes, production_date, created_at
FROM production_records WHERE id=$1`, id)
	var rec Record
	err := row.Scan(&rec.ID, &rec.Code, &rec.ProductID, &rec.QuantityProduced, &rec.TotalCost, &rec.Notes, &rec.ProductionDate, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.Materials, err = r.listLines(ctx, id)
	return rec, err
}

func (r *Repository) listLines(ctx context.Context, productionID int64) ([]MaterialLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, production_id, material_id, quantity_used, cost_at_time
FROM production_materials WHERE production_id=$1 ORDER BY id ASC`, productionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []MaterialLine{}
	for rows.Next() {
		var l MaterialLine
		if err := rows.Scan(&l.ID, &l.ProductionID, &l.MaterialID, &l.QuantityUsed, &l.CostAtTime); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// List returns records, newest first. productID 0 lists every record.
func (r *Repository) List(ctx context.Context, productID int64) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, product_id, quantity_produced, total_cost, notes, production_date, created_at
FROM production_records WHERE ($1 = 0 OR product_id = $1) ORDER BY production_date DESC, id DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.ProductID, &rec.QuantityProduced, &rec.TotalCost, &rec.Notes, &rec.ProductionDate, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (ProductState, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, name, current_stock, production_cost FROM products WHERE id=$1 FOR UPDATE`, id)
	var p ProductState
	err := row.Scan(&p.ID, &p.Name, &p.CurrentStock, &p.ProductionCost)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductState{}, ErrNotFound
	}
	return p, err
}

func (r *txRepository) GetMaterialForUpdate(ctx context.Context, id int64) (MaterialState, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, name, current_stock, cost_per_unit FROM raw_materials WHERE id=$1 FOR UPDATE`, id)
	var m MaterialState
	err := row.Scan(&m.ID, &m.Name, &m.CurrentStock, &m.CostPerUnit)
	if errors.Is(err, pgx.ErrNoRows) {
		return MaterialState{}, ErrNotFound
	}
	return m, err
}

func (r *txRepository) GetRecipe(ctx context.Context, productID int64) ([]RecipeLine, error) {
	rows, err := r.tx.Query(ctx, `SELECT material_id, quantity_per_unit FROM product_bom WHERE product_id=$1 ORDER BY id ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []RecipeLine{}
	for rows.Next() {
		var l RecipeLine
		if err := rows.Scan(&l.MaterialID, &l.QuantityPerUnit); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *txRepository) GetRecordForUpdate(ctx context.Context, id int64) (Record, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, code, product_id, quantity_produced, total_cost, notes, production_date, created_at
FROM production_records WHERE id=$1 FOR UPDATE`, id)
	var rec Record
	err := row.Scan(&rec.ID, &rec.Code, &rec.ProductID, &rec.QuantityProduced, &rec.TotalCost, &rec.Notes, &rec.ProductionDate, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (r *txRepository) InsertRecord(ctx context.Context, rec Record) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO production_records (code, product_id, quantity_produced, total_cost, notes, production_date, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id`,
		rec.Code, rec.ProductID, rec.QuantityProduced, rec.TotalCost, rec.Notes, rec.ProductionDate).Scan(&id)
	return id, err
}

func (r *txRepository) InsertMaterialLine(ctx context.Context, line MaterialLine) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO production_materials (production_id, material_id, quantity_used, cost_at_time)
VALUES ($1,$2,$3,$4) RETURNING id`, line.ProductionID, line.MaterialID, line.QuantityUsed, line.CostAtTime).Scan(&id)
	return id, err
}

func (r *txRepository) DeleteMaterialLines(ctx context.Context, productionID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM production_materials WHERE production_id=$1`, productionID)
	return err
}

func (r *txRepository) DeleteRecord(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM production_records WHERE id=$1`, id)
	return err
}

func (r *txRepository) UpdateProduct(ctx context.Context, p ProductState) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET current_stock=$2, production_cost=$3, updated_at=NOW() WHERE id=$1`, p.ID, p.CurrentStock, p.ProductionCost)
	return err
}

func (r *txRepository) UpdateMaterialStock(ctx context.Context, materialID int64, newStock float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE raw_materials SET current_stock=$2, updated_at=NOW() WHERE id=$1`, materialID, newStock)
	return err
}
