package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type memoryResetRepo struct {
	purged []string
	rows   map[string]int64
}

type memoryResetTx struct {
	repo *memoryResetRepo
}

func (r *memoryResetRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryResetTx{repo: r})
}

func (tx *memoryResetTx) Purge(ctx context.Context, table string) (int64, error) {
	tx.repo.purged = append(tx.repo.purged, table)
	return tx.repo.rows[table], nil
}

type fakeBumper struct {
	bumps int
}

func (b *fakeBumper) Bump(ctx context.Context) error {
	b.bumps++
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestResetAllDataPurgesEveryTableInOrder(t *testing.T) {
	repo := &memoryResetRepo{rows: map[string]int64{"products": 3, "customers": 2}}
	bumper := &fakeBumper{}
	svc := NewService(repo, nil, bumper, mustHash(t, "s3cret"))

	result, err := svc.ResetAllData(context.Background(), "s3cret")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Contains(t, result.Message, "5 rows")

	require.Equal(t, purgeOrder, repo.purged)
	// children purged before their parents
	require.Less(t, indexOf(repo.purged, "customer_transactions"), indexOf(repo.purged, "customers"))
	require.Less(t, indexOf(repo.purged, "product_bom"), indexOf(repo.purged, "products"))
	require.Less(t, indexOf(repo.purged, "production_materials"), indexOf(repo.purged, "raw_materials"))
	require.Equal(t, 1, bumper.bumps)
}

func TestResetAllDataRejectsWrongPassword(t *testing.T) {
	repo := &memoryResetRepo{}
	svc := NewService(repo, nil, nil, mustHash(t, "s3cret"))

	_, err := svc.ResetAllData(context.Background(), "guess")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	require.Empty(t, repo.purged)
}

func TestResetAllDataDisabledWithoutHash(t *testing.T) {
	repo := &memoryResetRepo{}
	svc := NewService(repo, nil, nil, "")

	_, err := svc.ResetAllData(context.Background(), "anything")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	require.Empty(t, repo.purged)
}

func indexOf(items []string, want string) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return -1
}
