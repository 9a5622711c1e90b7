package production

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Record, error)
	List(ctx context.Context, productID int64) ([]Record, error)
}

// AuditPort records production events after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates production runs.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service. audit may be nil.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func newRunCode() string {
	return "PRD-" + strings.ToUpper(uuid.NewString()[:8])
}

// RecordRun records a production run. Material consumption comes from the
// caller when given, otherwise it is derived from the product's recipe.
// Material stocks go down, the product stock goes up and every line freezes
// the material's unit cost, all in one transaction. A product without a
// recipe cannot be produced.
func (s *Service) RecordRun(ctx context.Context, input RecordInput) (Record, error) {
	if input.Quantity <= 0 {
		return Record{}, ErrInvalidQuantity
	}
	date := s.now()
	if input.Date != nil {
		date = *input.Date
	}
	var rec Record
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		recipe, err := tx.GetRecipe(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if len(recipe) == 0 {
			return ErrNoRecipe
		}

		uses := input.Materials
		if len(uses) == 0 {
			uses = make([]MaterialUse, len(recipe))
			for i, line := range recipe {
				uses[i] = MaterialUse{MaterialID: line.MaterialID, Quantity: line.QuantityPerUnit * input.Quantity}
			}
		}

		// Lock every material first and collect all shortfalls so the
		// caller gets the complete list, not just the first one.
		materials := make([]MaterialState, len(uses))
		var shortfalls []Shortfall
		for i, use := range uses {
			if use.Quantity <= 0 {
				return ErrInvalidQuantity
			}
			m, err := tx.GetMaterialForUpdate(ctx, use.MaterialID)
			if err != nil {
				return err
			}
			materials[i] = m
			if m.CurrentStock < use.Quantity {
				shortfalls = append(shortfalls, Shortfall{
					MaterialID: m.ID,
					Material:   m.Name,
					Required:   use.Quantity,
					Available:  m.CurrentStock,
				})
			}
		}
		if len(shortfalls) > 0 {
			return &InsufficientMaterialsError{Shortfalls: shortfalls}
		}

		var totalCost float64
		for i, use := range uses {
			totalCost += use.Quantity * materials[i].CostPerUnit
		}

		rec = Record{
			Code:             newRunCode(),
			ProductID:        product.ID,
			QuantityProduced: input.Quantity,
			TotalCost:        totalCost,
			Notes:            input.Notes,
			ProductionDate:   date,
		}
		id, err := tx.InsertRecord(ctx, rec)
		if err != nil {
			return err
		}
		rec.ID = id

		for i, use := range uses {
			line := MaterialLine{
				ProductionID: id,
				MaterialID:   use.MaterialID,
				QuantityUsed: use.Quantity,
				CostAtTime:   materials[i].CostPerUnit,
			}
			lineID, err := tx.InsertMaterialLine(ctx, line)
			if err != nil {
				return err
			}
			line.ID = lineID
			rec.Materials = append(rec.Materials, line)
			if err := tx.UpdateMaterialStock(ctx, use.MaterialID, materials[i].CurrentStock-use.Quantity); err != nil {
				return err
			}
		}

		product.CurrentStock += input.Quantity
		product.ProductionCost = totalCost / input.Quantity
		return tx.UpdateProduct(ctx, product)
	})
	if err != nil {
		return Record{}, err
	}
	s.recordAudit(ctx, "production.record", rec.ID, map[string]any{
		"code":       rec.Code,
		"product_id": rec.ProductID,
		"quantity":   rec.QuantityProduced,
		"total_cost": shared.FormatCurrency(rec.TotalCost, "en"),
	})
	return rec, nil
}

// Get loads a record with its material lines.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	return s.repo.Get(ctx, id)
}

// List returns runs for a product, or all runs when productID is 0.
func (s *Service) List(ctx context.Context, productID int64) ([]Record, error) {
	return s.repo.List(ctx, productID)
}

// DeleteRun removes a run and takes its output back out of product stock.
// Consumed materials are NOT restored: they were physically used and the
// run's lines are the only honest record of that. The delete is refused
// when the output has already been sold past the point of reversal.
func (s *Service) DeleteRun(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rec, err := tx.GetRecordForUpdate(ctx, id)
		if err != nil {
			return err
		}
		product, err := tx.GetProductForUpdate(ctx, rec.ProductID)
		if err != nil {
			return err
		}
		if product.CurrentStock < rec.QuantityProduced {
			return &NegativeStockError{
				Product:   product.Name,
				Available: product.CurrentStock,
				Requested: rec.QuantityProduced,
			}
		}
		if err := tx.DeleteMaterialLines(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteRecord(ctx, id); err != nil {
			return err
		}
		product.CurrentStock -= rec.QuantityProduced
		return tx.UpdateProduct(ctx, product)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "production.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "production_record",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
