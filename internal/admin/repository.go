package admin

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/platform/db"
)

// Repository performs the destructive reset against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	Purge(ctx context.Context, table string) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx runs the whole purge in one transaction: either every table is
// emptied or none is.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("admin repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

var allowedTables = func() map[string]struct{} {
	m := make(map[string]struct{}, len(purgeOrder))
	for _, t := range purgeOrder {
		m[t] = struct{}{}
	}
	return m
}()

// Purge deletes every row of one known table. The table name must be on
// the allow list; nothing is ever interpolated from user input.
func (r *txRepository) Purge(ctx context.Context, table string) (int64, error) {
	if _, ok := allowedTables[table]; !ok {
		return 0, errors.New("admin: refusing to purge unknown table " + table)
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM `+table)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
