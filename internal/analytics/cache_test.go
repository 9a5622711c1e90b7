package analytics

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls int
	rows  []SaleRow
}

func (c *countingSource) CustomerSales(ctx context.Context, customerID int64) ([]SaleRow, error) {
	c.calls++
	return c.rows, nil
}

func newTestCache(t *testing.T) (*Cache, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	return cache, func() {
		_ = client.Close()
		mr.Close()
	}
}

func fetchProfile(t *testing.T, cache *Cache, svc *Service, customerID int64) CustomerAnalytics {
	t.Helper()
	ctx := context.Background()
	key, err := cache.CustomerKey(ctx, customerID)
	require.NoError(t, err)
	var out CustomerAnalytics
	err = cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return svc.ComputeCustomer(ctx, customerID)
	})
	require.NoError(t, err)
	return out
}

func TestCacheServesSecondReadWithoutRecompute(t *testing.T) {
	cache, cleanup := newTestCache(t)
	defer cleanup()

	src := &countingSource{rows: []SaleRow{
		{ProductID: 1, ProductName: "Bread", Quantity: 2, TotalAmount: 10, PaymentMethod: "cash", SaleDate: day(2026, 4, 1)},
	}}
	svc := NewService(src)

	first := fetchProfile(t, cache, svc, 7)
	second := fetchProfile(t, cache, svc, 7)

	require.Equal(t, 1, src.calls)
	require.Equal(t, first.TotalPurchases, second.TotalPurchases)
	require.InDelta(t, first.TotalAmount, second.TotalAmount, 1e-9)
}

func TestBumpInvalidatesCachedProfiles(t *testing.T) {
	cache, cleanup := newTestCache(t)
	defer cleanup()

	src := &countingSource{rows: []SaleRow{
		{ProductID: 1, ProductName: "Bread", Quantity: 2, TotalAmount: 10, PaymentMethod: "cash", SaleDate: day(2026, 4, 1)},
	}}
	svc := NewService(src)

	fetchProfile(t, cache, svc, 7)
	require.NoError(t, cache.Bump(context.Background()))
	fetchProfile(t, cache, svc, 7)

	// the bump changed the key, forcing a recompute
	require.Equal(t, 2, src.calls)
}

func TestNilCacheComputesEveryTime(t *testing.T) {
	src := &countingSource{}
	svc := NewService(src)
	var cache *Cache

	fetchProfile(t, cache, svc, 7)
	fetchProfile(t, cache, svc, 7)
	require.Equal(t, 2, src.calls)
}
