package materials

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (RawMaterial, error)
	List(ctx context.Context) ([]RawMaterial, error)
	ListReceipts(ctx context.Context, materialID int64) ([]MaterialReceipt, error)
}

// AuditPort records procurement events after they commit.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates raw material stock and procurement.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service. audit may be nil.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func newReceiptCode() string {
	return "RCV-" + strings.ToUpper(uuid.NewString()[:8])
}

// Add creates a raw material. When opening stock and a total cost are given,
// the unit cost is derived as total/stock; a supplier purchase is recorded
// for the full total cost.
func (s *Service) Add(ctx context.Context, input AddMaterialInput) (RawMaterial, error) {
	if input.Name.IsEmpty() {
		return RawMaterial{}, ErrEmptyName
	}
	if !input.Unit.Valid() {
		return RawMaterial{}, ErrInvalidUnit
	}
	if input.CurrentStock < 0 {
		return RawMaterial{}, ErrNegativeStock
	}
	costPerUnit := 0.0
	if input.CurrentStock > 0 {
		costPerUnit = input.TotalCost / input.CurrentStock
	}
	now := s.now()
	m := RawMaterial{
		Name:         input.Name,
		Unit:         input.Unit,
		CurrentStock: input.CurrentStock,
		MinThreshold: input.MinThreshold,
		CostPerUnit:  costPerUnit,
		SupplierID:   input.SupplierID,
	}
	if input.CurrentStock > 0 {
		m.LastReceived = &now
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertMaterial(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		if input.SupplierID != nil && input.TotalCost > 0 {
			desc := fmt.Sprintf("Purchase of %g %s of %s", input.CurrentStock, input.Unit, input.Name.Primary)
			return tx.AppendSupplierPurchase(ctx, *input.SupplierID, input.TotalCost, desc, now)
		}
		return nil
	})
	if err != nil {
		return RawMaterial{}, err
	}
	s.recordAudit(ctx, "material.add", m.ID, map[string]any{
		"name":       m.Name.Primary,
		"stock":      m.CurrentStock,
		"total_cost": shared.FormatCurrency(input.TotalCost, "en"),
	})
	return m, nil
}

// Receive applies a procurement event: stock goes up, the unit cost is
// overwritten with the landed cost of this receipt, a receipt row is written
// and the supplier is charged for the material-only portion.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) (MaterialReceipt, error) {
	if input.Quantity <= 0 {
		return MaterialReceipt{}, ErrInvalidQuantity
	}
	now := s.now()
	var receipt MaterialReceipt
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		m, err := tx.GetMaterialForUpdate(ctx, input.MaterialID)
		if err != nil {
			return err
		}
		unitCost, totalCost := resolveCosts(input, m.CostPerUnit)

		m.CurrentStock += input.Quantity
		m.CostPerUnit = unitCost
		m.LastReceived = &now
		if input.SupplierID != nil {
			m.SupplierID = input.SupplierID
		}
		if err := tx.UpdateMaterial(ctx, m); err != nil {
			return err
		}

		receipt = MaterialReceipt{
			Code:             newReceiptCode(),
			MaterialID:       m.ID,
			SupplierID:       input.SupplierID,
			QuantityReceived: input.Quantity,
			UnitCost:         unitCost,
			ShippingCost:     input.ShippingCost,
			TotalCost:        totalCost,
			ReceivedDate:     now,
		}
		id, err := tx.InsertReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		receipt.ID = id

		if input.SupplierID != nil {
			materialOnly := totalCost - input.ShippingCost
			if materialOnly > 0 {
				desc := fmt.Sprintf("Purchase of %g %s of %s", input.Quantity, m.Unit, m.Name.Primary)
				return tx.AppendSupplierPurchase(ctx, *input.SupplierID, materialOnly, desc, now)
			}
		}
		return nil
	})
	if err != nil {
		return MaterialReceipt{}, err
	}
	s.recordAudit(ctx, "material.receive", receipt.MaterialID, map[string]any{
		"code":      receipt.Code,
		"quantity":  receipt.QuantityReceived,
		"unit_cost": shared.FormatCurrency(receipt.UnitCost, "en"),
	})
	return receipt, nil
}

// resolveCosts derives the missing side of the unit/total cost pair.
// Shipping is landed into the unit cost when the total is given, and added
// on top when only the unit cost is given. With neither, the material's
// current cost is carried forward.
func resolveCosts(input ReceiveInput, currentCost float64) (unitCost, totalCost float64) {
	switch {
	case input.TotalCost != nil && input.UnitCost == nil:
		totalCost = *input.TotalCost
		unitCost = (totalCost + input.ShippingCost) / input.Quantity
	case input.UnitCost != nil && input.TotalCost == nil:
		unitCost = *input.UnitCost
		totalCost = unitCost*input.Quantity + input.ShippingCost
	case input.UnitCost != nil && input.TotalCost != nil:
		unitCost = *input.UnitCost
		totalCost = *input.TotalCost
	default:
		unitCost = currentCost
		totalCost = unitCost * input.Quantity
	}
	return unitCost, totalCost
}

// Update applies the provided fields to an existing material.
func (s *Service) Update(ctx context.Context, id int64, input UpdateMaterialInput) (RawMaterial, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return RawMaterial{}, err
	}
	if input.Name != nil {
		if input.Name.IsEmpty() {
			return RawMaterial{}, ErrEmptyName
		}
		existing.Name = *input.Name
	}
	if input.Unit != nil {
		if !input.Unit.Valid() {
			return RawMaterial{}, ErrInvalidUnit
		}
		existing.Unit = *input.Unit
	}
	if input.MinThreshold != nil {
		existing.MinThreshold = *input.MinThreshold
	}
	if input.SupplierID != nil {
		existing.SupplierID = input.SupplierID
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateMaterial(ctx, existing)
	})
	if err != nil {
		return RawMaterial{}, err
	}
	return existing, nil
}

// Get loads a single material.
func (s *Service) Get(ctx context.Context, id int64) (RawMaterial, error) {
	return s.repo.Get(ctx, id)
}

// List returns all materials.
func (s *Service) List(ctx context.Context) ([]RawMaterial, error) {
	return s.repo.List(ctx)
}

// ListReceipts returns procurement history for one material, or all
// receipts when id is 0.
func (s *Service) ListReceipts(ctx context.Context, materialID int64) ([]MaterialReceipt, error) {
	return s.repo.ListReceipts(ctx, materialID)
}

// LatestUnitCost returns the unit cost of the most recent receipt, falling
// back to the material's stored cost when no receipts exist.
func (s *Service) LatestUnitCost(ctx context.Context, materialID int64) (float64, error) {
	receipts, err := s.repo.ListReceipts(ctx, materialID)
	if err != nil {
		return 0, err
	}
	if len(receipts) > 0 {
		return receipts[0].UnitCost, nil
	}
	m, err := s.repo.Get(ctx, materialID)
	if err != nil {
		return 0, err
	}
	return m.CostPerUnit, nil
}

// AverageUnitCost returns the quantity-weighted average landed cost across
// all receipts of the material.
func (s *Service) AverageUnitCost(ctx context.Context, materialID int64) (float64, error) {
	receipts, err := s.repo.ListReceipts(ctx, materialID)
	if err != nil {
		return 0, err
	}
	var qty, cost float64
	for _, rec := range receipts {
		qty += rec.QuantityReceived
		cost += rec.UnitCost * rec.QuantityReceived
	}
	if qty == 0 {
		m, err := s.repo.Get(ctx, materialID)
		if err != nil {
			return 0, err
		}
		return m.CostPerUnit, nil
	}
	return cost / qty, nil
}

// Delete removes a material unless production history or product recipes
// still reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		m, err := tx.GetMaterialForUpdate(ctx, id)
		if err != nil {
			return err
		}
		uses, err := tx.CountProductionUses(ctx, id)
		if err != nil {
			return err
		}
		if uses > 0 {
			return &ReferencedError{Material: m.Name.Primary, Relation: "production records"}
		}
		uses, err = tx.CountBOMUses(ctx, id)
		if err != nil {
			return err
		}
		if uses > 0 {
			return &ReferencedError{Material: m.Name.Primary, Relation: "product recipes"}
		}
		return tx.DeleteMaterial(ctx, id)
	})
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "raw_material",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
