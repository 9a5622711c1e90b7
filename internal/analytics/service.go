package analytics

import (
	"context"
	"math"
	"sort"
	"time"
)

// RepositoryPort abstracts the sales read model.
type RepositoryPort interface {
	CustomerSales(ctx context.Context, customerID int64) ([]SaleRow, error)
}

// Service computes customer analytics from raw sales rows.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ComputeCustomer derives the full analytics profile for one customer.
// A customer with no sales yields a zeroed profile, not an error.
func (s *Service) ComputeCustomer(ctx context.Context, customerID int64) (CustomerAnalytics, error) {
	sales, err := s.repo.CustomerSales(ctx, customerID)
	if err != nil {
		return CustomerAnalytics{}, err
	}
	result := CustomerAnalytics{
		CustomerID:    customerID,
		MostPurchased: []ProductShare{},
		WeeklyPattern: emptyWeek(),
		MonthlyTrend:  []MonthBucket{},
	}
	if len(sales) == 0 {
		return result, nil
	}

	result.TotalPurchases = len(sales)
	for _, sale := range sales {
		result.TotalAmount += sale.TotalAmount
	}
	result.MostPurchased = topProducts(sales, 5)
	result.WeeklyPattern = weeklyPattern(sales)
	result.MonthlyTrend = monthlyTrend(sales, s.now())
	result.NextPurchase = predictNextPurchase(sales, result.MostPurchased)
	result.PaymentBehavior = paymentBehavior(sales)
	return result, nil
}

func topProducts(sales []SaleRow, limit int) []ProductShare {
	byProduct := map[int64]*ProductShare{}
	var totalQty float64
	for _, sale := range sales {
		totalQty += sale.Quantity
		share, ok := byProduct[sale.ProductID]
		if !ok {
			share = &ProductShare{ProductID: sale.ProductID, Name: sale.ProductName}
			byProduct[sale.ProductID] = share
		}
		share.Quantity += sale.Quantity
		share.Amount += sale.TotalAmount
	}
	shares := make([]ProductShare, 0, len(byProduct))
	for _, share := range byProduct {
		if totalQty > 0 {
			share.Percentage = share.Quantity / totalQty * 100
		}
		shares = append(shares, *share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Quantity != shares[j].Quantity {
			return shares[i].Quantity > shares[j].Quantity
		}
		return shares[i].Name < shares[j].Name
	})
	if len(shares) > limit {
		shares = shares[:limit]
	}
	return shares
}

func emptyWeek() []WeekdayBucket {
	week := make([]WeekdayBucket, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		week[d] = WeekdayBucket{Weekday: d}
	}
	return week
}

func weeklyPattern(sales []SaleRow) []WeekdayBucket {
	week := emptyWeek()
	for _, sale := range sales {
		week[sale.SaleDate.Weekday()].Count++
	}
	total := float64(len(sales))
	for i := range week {
		if total > 0 {
			week[i].Percentage = float64(week[i].Count) / total * 100
		}
	}
	return week
}

// monthlyTrend buckets the last twelve calendar months ending at now,
// oldest first. Sales outside the window are dropped.
func monthlyTrend(sales []SaleRow, now time.Time) []MonthBucket {
	buckets := make([]MonthBucket, 12)
	index := map[string]int{}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	for i := 0; i < 12; i++ {
		label := start.AddDate(0, i, 0).Format("2006-01")
		buckets[i] = MonthBucket{Month: label}
		index[label] = i
	}
	for _, sale := range sales {
		label := sale.SaleDate.Format("2006-01")
		if i, ok := index[label]; ok {
			buckets[i].Count++
			buckets[i].Amount += sale.TotalAmount
		}
	}
	return buckets
}

// predictNextPurchase needs at least two sales. Confidence is 100 for
// perfectly regular gaps and falls toward 0 as the gaps spread out.
func predictNextPurchase(sales []SaleRow, top []ProductShare) *Prediction {
	if len(sales) < 2 {
		return nil
	}
	sorted := append([]SaleRow(nil), sales...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SaleDate.Before(sorted[j].SaleDate) })

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].SaleDate.Sub(sorted[i-1].SaleDate).Hours()/24)
	}
	var sum float64
	for _, g := range gaps {
		sum += g
	}
	avg := sum / float64(len(gaps))

	confidence := 0.0
	if avg > 0 {
		var variance float64
		for _, g := range gaps {
			variance += (g - avg) * (g - avg)
		}
		variance /= float64(len(gaps))
		confidence = math.Max(0, math.Min(100, 100-variance/avg*50))
	}

	recommended := make([]string, 0, 3)
	for i, share := range top {
		if i == 3 {
			break
		}
		recommended = append(recommended, share.Name)
	}
	last := sorted[len(sorted)-1].SaleDate
	return &Prediction{
		PredictedDate:       last.AddDate(0, 0, int(math.Round(avg))),
		AvgDaysBetween:      avg,
		Confidence:          confidence,
		RecommendedProducts: recommended,
	}
}

func paymentBehavior(sales []SaleRow) PaymentBehavior {
	var cash, credit int
	for _, sale := range sales {
		switch sale.PaymentMethod {
		case "cash":
			cash++
		case "credit", "mixed":
			credit++
		}
	}
	total := float64(len(sales))
	return PaymentBehavior{
		CashPercentage:   float64(cash) / total * 100,
		CreditPercentage: float64(credit) / total * 100,
		AverageDelayDays: 0,
	}
}
