package products

import (
	"context"
	"strings"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Product, error)
	List(ctx context.Context) ([]Product, error)
	GetBOM(ctx context.Context, productID int64) ([]BOMLine, error)
}

// Service coordinates product catalog and recipe operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, input CreateProductInput) (Product, error) {
	if input.Name.IsEmpty() {
		return Product{}, ErrEmptyName
	}
	size := strings.TrimSpace(input.Size)
	if size == "" {
		return Product{}, ErrEmptySize
	}
	p := Product{
		Name:         input.Name,
		Size:         size,
		SellingPrice: input.SellingPrice,
		MinThreshold: input.MinThreshold,
		CurrentStock: input.CurrentStock,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertProduct(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update applies the provided fields to an existing product.
func (s *Service) Update(ctx context.Context, id int64, input UpdateProductInput) (Product, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if input.Name != nil {
		if input.Name.IsEmpty() {
			return Product{}, ErrEmptyName
		}
		existing.Name = *input.Name
	}
	if input.Size != nil {
		size := strings.TrimSpace(*input.Size)
		if size == "" {
			return Product{}, ErrEmptySize
		}
		existing.Size = size
	}
	if input.SellingPrice != nil {
		existing.SellingPrice = *input.SellingPrice
	}
	if input.MinThreshold != nil {
		existing.MinThreshold = *input.MinThreshold
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateProduct(ctx, existing)
	})
	if err != nil {
		return Product{}, err
	}
	return existing, nil
}

// Get loads one product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns the catalog ordered by name.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Delete removes a product unless production history or recipe lines reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		n, err := tx.CountProductionRecords(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &ReferencedError{Product: existing.Name.Primary, Relation: "production records"}
		}
		n, err = tx.CountBOMLines(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &ReferencedError{Product: existing.Name.Primary, Relation: "product recipes (BOM)"}
		}
		return tx.DeleteProduct(ctx, id)
	})
}

// SaveBOM replaces the full recipe of a product. Partial edits are not
// supported: existing lines are deleted and the new set inserted.
func (s *Service) SaveBOM(ctx context.Context, productID int64, items []BOMItem) error {
	if _, err := s.repo.Get(ctx, productID); err != nil {
		return err
	}
	for _, item := range items {
		if item.MaterialID == 0 || item.QuantityPerUnit <= 0 {
			return ErrInvalidQuantity
		}
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteBOM(ctx, productID); err != nil {
			return err
		}
		for _, item := range items {
			line := BOMLine{ProductID: productID, MaterialID: item.MaterialID, QuantityPerUnit: item.QuantityPerUnit}
			if err := tx.InsertBOMLine(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetBOM lists the recipe of a product.
func (s *Service) GetBOM(ctx context.Context, productID int64) ([]BOMLine, error) {
	return s.repo.GetBOM(ctx, productID)
}
