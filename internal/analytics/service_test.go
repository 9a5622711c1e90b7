package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memorySalesSource struct {
	sales map[int64][]SaleRow
}

func (m *memorySalesSource) CustomerSales(ctx context.Context, customerID int64) ([]SaleRow, error) {
	return m.sales[customerID], nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func TestComputeCustomerZeroSales(t *testing.T) {
	svc := NewService(&memorySalesSource{sales: map[int64][]SaleRow{}})

	result, err := svc.ComputeCustomer(context.Background(), 1)
	require.NoError(t, err)
	require.Zero(t, result.TotalPurchases)
	require.Zero(t, result.TotalAmount)
	require.Empty(t, result.MostPurchased)
	require.Len(t, result.WeeklyPattern, 7)
	require.Nil(t, result.NextPurchase)
}

func TestTopProductsRankedWithShare(t *testing.T) {
	src := &memorySalesSource{sales: map[int64][]SaleRow{
		1: {
			{ProductID: 1, ProductName: "Bread", Quantity: 30, TotalAmount: 150, PaymentMethod: "cash", SaleDate: day(2026, 1, 5)},
			{ProductID: 2, ProductName: "Cake", Quantity: 10, TotalAmount: 200, PaymentMethod: "cash", SaleDate: day(2026, 1, 6)},
			{ProductID: 1, ProductName: "Bread", Quantity: 10, TotalAmount: 50, PaymentMethod: "cash", SaleDate: day(2026, 1, 7)},
		},
	}}
	svc := NewService(src)

	result, err := svc.ComputeCustomer(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalPurchases)
	require.InDelta(t, 400.0, result.TotalAmount, 1e-9)

	require.Len(t, result.MostPurchased, 2)
	require.Equal(t, "Bread", result.MostPurchased[0].Name)
	require.InDelta(t, 40.0, result.MostPurchased[0].Quantity, 1e-9)
	// 40 of 50 total units
	require.InDelta(t, 80.0, result.MostPurchased[0].Percentage, 1e-9)
	require.InDelta(t, 20.0, result.MostPurchased[1].Percentage, 1e-9)
}

func TestTopProductsCapsAtFive(t *testing.T) {
	rows := []SaleRow{}
	for i := int64(1); i <= 7; i++ {
		rows = append(rows, SaleRow{ProductID: i, ProductName: string(rune('A'+i-1)), Quantity: float64(i), TotalAmount: 10, PaymentMethod: "cash", SaleDate: day(2026, 2, int(i))})
	}
	svc := NewService(&memorySalesSource{sales: map[int64][]SaleRow{1: rows}})

	result, err := svc.ComputeCustomer(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, result.MostPurchased, 5)
	// highest quantity first
	require.Equal(t, "G", result.MostPurchased[0].Name)
}

func TestWeeklyPatternBuckets(t *testing.T) {
	// 2026-02-01 is a Sunday
	src := &memorySalesSource{sales: map[int64][]SaleRow{
		1: {
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 2, 1)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 2, 8)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 2, 2)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 2, 9)},
		},
	}}
	svc := NewService(src)

	result, err := svc.ComputeCustomer(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, result.WeeklyPattern, 7)
	require.Equal(t, 2, result.WeeklyPattern[time.Sunday].Count)
	require.Equal(t, 2, result.WeeklyPattern[time.Monday].Count)
	require.InDelta(t, 50.0, result.WeeklyPattern[time.Sunday].Percentage, 1e-9)
	require.Zero(t, result.WeeklyPattern[time.Friday].Count)
}

func TestMonthlyTrendTwelveBuckets(t *testing.T) {
	svc := NewService(&memorySalesSource{sales: map[int64][]SaleRow{
		1: {
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 100, PaymentMethod: "cash", SaleDate: day(2026, 8, 10)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 40, PaymentMethod: "cash", SaleDate: day(2026, 7, 2)},
			// outside the 12-month window
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 999, PaymentMethod: "cash", SaleDate: day(2024, 1, 2)},
		},
	}})
	svc.now = func() time.Time { return day(2026, 8, 29) }

	result, err := svc.ComputeCustomer(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, result.MonthlyTrend, 12)
	require.Equal(t, "2025-09", result.MonthlyTrend[0].Month)
	require.Equal(t, "2026-08", result.MonthlyTrend[11].Month)
	require.InDelta(t, 100.0, result.MonthlyTrend[11].Amount, 1e-9)
	require.InDelta(t, 40.0, result.MonthlyTrend[10].Amount, 1e-9)

	var total float64
	for _, bucket := range result.MonthlyTrend {
		total += bucket.Amount
	}
	require.InDelta(t, 140.0, total, 1e-9)
}

func TestPredictionRegularGapsFullConfidence(t *testing.T) {
	svc := NewService(&memorySalesSource{sales: map[int64][]SaleRow{
		1: {
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 1, 1)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 1, 11)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 1, 21)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 1, 31)},
		},
	}})

	result, err := svc.ComputeCustomer(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, result.NextPurchase)
	require.InDelta(t, 10.0, result.NextPurchase.AvgDaysBetween, 1e-9)
	require.InDelta(t, 100.0, result.NextPurchase.Confidence, 1e-9)
	require.Equal(t, day(2026, 1, 31).AddDate(0, 0, 10), result.NextPurchase.PredictedDate)
	require.Equal(t, []string{"Bread"}, result.NextPurchase.RecommendedProducts)
}

func TestPredictionIrregularGapsLowConfidence(t *testing.T) {
	svc := NewService(&memorySalesSource{sales: map[int64][]SaleRow{
		1: {
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 1, 1)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 1, 2)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 6, 30)},
		},
	}})

	result, err := svc.ComputeCustomer(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, result.NextPurchase)
	// wildly uneven gaps clamp to zero
	require.InDelta(t, 0.0, result.NextPurchase.Confidence, 1e-9)
}

func TestPredictionNeedsAtLeastTwoSales(t *testing.T) {
	svc := NewService(&memorySalesSource{sales: map[int64][]SaleRow{
		1: {{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 1, 1)}},
	}})

	result, err := svc.ComputeCustomer(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, result.NextPurchase)
}

func TestPaymentBehaviorSplitsMethods(t *testing.T) {
	svc := NewService(&memorySalesSource{sales: map[int64][]SaleRow{
		1: {
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 3, 1)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "credit", SaleDate: day(2026, 3, 2)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "mixed", SaleDate: day(2026, 3, 3)},
			{ProductID: 1, ProductName: "Bread", Quantity: 1, TotalAmount: 5, PaymentMethod: "cash", SaleDate: day(2026, 3, 4)},
		},
	}})

	result, err := svc.ComputeCustomer(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, 50.0, result.PaymentBehavior.CashPercentage, 1e-9)
	require.InDelta(t, 50.0, result.PaymentBehavior.CreditPercentage, 1e-9)
	require.Zero(t, result.PaymentBehavior.AverageDelayDays)
}
