package admin

import (
	"fmt"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// ResetResult reports the outcome of a full data reset.
type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var (
	// ErrBadPassword rejects a reset attempt with the wrong password.
	ErrBadPassword = fmt.Errorf("admin: reset password rejected: %w", shared.ErrUnauthorized)
	// ErrNotConfigured indicates no reset password hash was configured.
	ErrNotConfigured = fmt.Errorf("admin: reset password not configured: %w", shared.ErrUnauthorized)
)

// purgeOrder lists every tenant table, children before parents, so the
// purge never trips a foreign key.
var purgeOrder = []string{
	"customer_transactions",
	"supplier_transactions",
	"production_materials",
	"production_records",
	"material_receipts",
	"sales_records",
	"product_bom",
	"products",
	"raw_materials",
	"customers",
	"suppliers",
}
