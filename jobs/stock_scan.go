package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// StockAlertScanJob sweeps materials and products whose stock has fallen to
// or below the minimum threshold and logs an alert for each.
type StockAlertScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	Audit  *shared.AuditLogger
	clock  func() time.Time
}

// NewStockAlertScanJob initialises the low-stock sweep handler.
func NewStockAlertScanJob(pool *pgxpool.Pool, logger *slog.Logger, audit *shared.AuditLogger) *StockAlertScanJob {
	return &StockAlertScanJob{
		Pool:   pool,
		Logger: logger,
		Audit:  audit,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type lowStockRow struct {
	Kind      string
	ID        int64
	Name      string
	Stock     float64
	Threshold float64
}

// Handle executes one sweep.
func (j *StockAlertScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("stock alert scan: handler not configured")
	}
	var payload StockAlertScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	var alerts []lowStockRow
	if !payload.ProductsOnly {
		rows, err := j.collect(ctx, "material", `SELECT id, name, current_stock, min_threshold FROM raw_materials WHERE current_stock <= min_threshold ORDER BY id`)
		if err != nil {
			return err
		}
		alerts = append(alerts, rows...)
	}
	if !payload.MaterialsOnly {
		rows, err := j.collect(ctx, "product", `SELECT id, name, current_stock, min_threshold FROM products WHERE current_stock <= min_threshold ORDER BY id`)
		if err != nil {
			return err
		}
		alerts = append(alerts, rows...)
	}

	for _, alert := range alerts {
		j.Logger.Warn("low stock",
			slog.String("kind", alert.Kind),
			slog.Int64("id", alert.ID),
			slog.String("name", alert.Name),
			slog.Float64("current_stock", alert.Stock),
			slog.Float64("min_threshold", alert.Threshold),
		)
	}
	if j.Audit != nil {
		_ = j.Audit.Record(ctx, shared.AuditLog{
			Action:   "stock.alert_scan",
			Entity:   "inventory",
			EntityID: "sweep",
			Meta:     map[string]any{"alerts": len(alerts)},
			At:       j.clock(),
		})
	}
	j.Logger.Info("stock alert scan finished", slog.Int("alerts", len(alerts)))
	return nil
}

func (j *StockAlertScanJob) collect(ctx context.Context, kind, query string) ([]lowStockRow, error) {
	rows, err := j.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []lowStockRow
	for rows.Next() {
		r := lowStockRow{Kind: kind}
		if err := rows.Scan(&r.ID, &r.Name, &r.Stock, &r.Threshold); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
