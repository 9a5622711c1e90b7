package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads raw sales rows for aggregation. Analytics never writes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CustomerSales returns every sale of a customer in chronological order.
func (r *Repository) CustomerSales(ctx context.Context, customerID int64) ([]SaleRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.product_id, p.name, s.quantity, s.total_amount, s.payment_method, s.sale_date
FROM sales_records s
JOIN products p ON p.id = s.product_id
WHERE s.customer_id = $1
ORDER BY s.sale_date ASC, s.id ASC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sales := []SaleRow{}
	for rows.Next() {
		var s SaleRow
		if err := rows.Scan(&s.ProductID, &s.ProductName, &s.Quantity, &s.TotalAmount, &s.PaymentMethod, &s.SaleDate); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
