package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockAlertScan is the task type for the low-stock sweep.
	TaskStockAlertScan = "stock:alert-scan"
)

// StockAlertScanPayload tunes one low-stock sweep. Zero values scan
// everything.
type StockAlertScanPayload struct {
	// MaterialsOnly restricts the sweep to raw materials.
	MaterialsOnly bool `json:"materials_only,omitempty"`
	// ProductsOnly restricts the sweep to finished products.
	ProductsOnly bool `json:"products_only,omitempty"`
}

// NewStockAlertScanTask constructs an Asynq task.
func NewStockAlertScanTask(payload StockAlertScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAlertScan, data), nil
}
