package products

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type memoryProductRepo struct {
	products    map[int64]Product
	bom         map[int64][]BOMLine
	production  map[int64]int
	nextID      int64
	nextLineSeq int64
}

type memoryProductTx struct {
	repo *memoryProductRepo
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{
		products:   make(map[int64]Product),
		bom:        make(map[int64][]BOMLine),
		production: make(map[int64]int),
	}
}

func (r *memoryProductRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryProductTx{repo: r})
}

func (r *memoryProductRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryProductRepo) List(ctx context.Context) ([]Product, error) {
	items := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		items = append(items, p)
	}
	return items, nil
}

func (r *memoryProductRepo) GetBOM(ctx context.Context, productID int64) ([]BOMLine, error) {
	return append([]BOMLine(nil), r.bom[productID]...), nil
}

func (tx *memoryProductTx) InsertProduct(ctx context.Context, p Product) (int64, error) {
	tx.repo.nextID++
	p.ID = tx.repo.nextID
	p.CreatedAt = time.Now()
	tx.repo.products[p.ID] = p
	return p.ID, nil
}

func (tx *memoryProductTx) UpdateProduct(ctx context.Context, p Product) error {
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryProductTx) DeleteProduct(ctx context.Context, id int64) error {
	delete(tx.repo.products, id)
	return nil
}

func (tx *memoryProductTx) DeleteBOM(ctx context.Context, productID int64) error {
	delete(tx.repo.bom, productID)
	return nil
}

func (tx *memoryProductTx) InsertBOMLine(ctx context.Context, line BOMLine) error {
	tx.repo.nextLineSeq++
	line.ID = tx.repo.nextLineSeq
	tx.repo.bom[line.ProductID] = append(tx.repo.bom[line.ProductID], line)
	return nil
}

func (tx *memoryProductTx) CountProductionRecords(ctx context.Context, productID int64) (int, error) {
	return tx.repo.production[productID], nil
}

func (tx *memoryProductTx) CountBOMLines(ctx context.Context, productID int64) (int, error) {
	return len(tx.repo.bom[productID]), nil
}

func TestCreateProductValidatesSize(t *testing.T) {
	svc := NewService(newMemoryProductRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Name: shared.NewLocalizedText("Soap", ""), Size: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)

	p, err := svc.Create(ctx, CreateProductInput{Name: shared.NewLocalizedText("Soap", ""), Size: " 250g ", SellingPrice: 12})
	require.NoError(t, err)
	require.Equal(t, "250g", p.Size)
	require.NotZero(t, p.ID)
}

func TestUpdateProductRejectsEmptySize(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductInput{Name: shared.NewLocalizedText("Soap", ""), Size: "250g"})
	require.NoError(t, err)

	empty := ""
	_, err = svc.Update(ctx, p.ID, UpdateProductInput{Size: &empty})
	require.ErrorIs(t, err, shared.ErrValidation)

	price := 15.5
	updated, err := svc.Update(ctx, p.ID, UpdateProductInput{SellingPrice: &price})
	require.NoError(t, err)
	require.Equal(t, 15.5, updated.SellingPrice)
}

func TestSaveBOMReplacesAllLines(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductInput{Name: shared.NewLocalizedText("Soap", ""), Size: "250g"})
	require.NoError(t, err)

	require.NoError(t, svc.SaveBOM(ctx, p.ID, []BOMItem{
		{MaterialID: 1, QuantityPerUnit: 0.2},
		{MaterialID: 2, QuantityPerUnit: 0.05},
	}))
	lines, err := svc.GetBOM(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	// A later save fully replaces the set, never merges.
	require.NoError(t, svc.SaveBOM(ctx, p.ID, []BOMItem{{MaterialID: 3, QuantityPerUnit: 1}}))
	lines, err = svc.GetBOM(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, int64(3), lines[0].MaterialID)
}

func TestSaveBOMRejectsInvalidQuantity(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductInput{Name: shared.NewLocalizedText("Soap", ""), Size: "250g"})
	require.NoError(t, err)

	err = svc.SaveBOM(ctx, p.ID, []BOMItem{{MaterialID: 1, QuantityPerUnit: 0}})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteProductBlockedByReferences(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductInput{Name: shared.NewLocalizedText("Soap", ""), Size: "250g"})
	require.NoError(t, err)

	repo.production[p.ID] = 2
	err = svc.Delete(ctx, p.ID)
	require.ErrorIs(t, err, shared.ErrReferencedEntity)
	var refErr *ReferencedError
	require.True(t, errors.As(err, &refErr))
	require.Equal(t, "production records", refErr.Relation)

	repo.production[p.ID] = 0
	require.NoError(t, svc.SaveBOM(ctx, p.ID, []BOMItem{{MaterialID: 1, QuantityPerUnit: 1}}))
	err = svc.Delete(ctx, p.ID)
	require.ErrorIs(t, err, shared.ErrReferencedEntity)

	require.NoError(t, svc.SaveBOM(ctx, p.ID, nil))
	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
