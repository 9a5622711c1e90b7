package analytics

import "time"

// CustomerAnalytics is the derived purchasing profile of one customer.
// It is computed from raw sales rows and never stored.
type CustomerAnalytics struct {
	CustomerID      int64           `json:"customer_id"`
	TotalPurchases  int             `json:"total_purchases"`
	TotalAmount     float64         `json:"total_amount"`
	MostPurchased   []ProductShare  `json:"most_purchased_products"`
	WeeklyPattern   []WeekdayBucket `json:"weekly_purchase_pattern"`
	MonthlyTrend    []MonthBucket   `json:"monthly_trend"`
	NextPurchase    *Prediction     `json:"predicted_next_purchase,omitempty"`
	PaymentBehavior PaymentBehavior `json:"payment_behavior"`
}

// ProductShare is one product's contribution to a customer's purchases.
type ProductShare struct {
	ProductID  int64   `json:"product_id"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// WeekdayBucket counts purchases on one day of the week.
type WeekdayBucket struct {
	Weekday    time.Weekday `json:"weekday"`
	Count      int          `json:"count"`
	Percentage float64      `json:"percentage"`
}

// MonthBucket aggregates one calendar month of spending.
type MonthBucket struct {
	Month  string  `json:"month"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// Prediction estimates when the customer buys next, based on the mean gap
// between past purchases. Confidence drops as the gaps get irregular.
type Prediction struct {
	PredictedDate       time.Time `json:"predicted_date"`
	AvgDaysBetween      float64   `json:"avg_days_between"`
	Confidence          float64   `json:"confidence"`
	RecommendedProducts []string  `json:"recommended_products"`
}

// PaymentBehavior summarizes how the customer pays. AverageDelayDays is a
// placeholder and always zero.
type PaymentBehavior struct {
	CashPercentage   float64 `json:"cash_percentage"`
	CreditPercentage float64 `json:"credit_percentage"`
	AverageDelayDays float64 `json:"average_delay_days"`
}

// SaleRow is the raw input row the engine aggregates over.
type SaleRow struct {
	ProductID     int64
	ProductName   string
	Quantity      float64
	TotalAmount   float64
	PaymentMethod string
	SaleDate      time.Time
}
