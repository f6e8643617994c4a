package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	PeriodToday  = "today"
	Period7Days  = "7days"
	Period30Days = "30days"

	topProductsLimit = 5
)

var profitRate = decimal.RequireFromString("0.30")

type TopProduct struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Qty     int    `json:"qty"`
	Revenue int64  `json:"revenue"`
}

type TrendPoint struct {
	Label   string `json:"label"`
	Revenue int64  `json:"revenue"`
}

type PaymentBreakdown struct {
	Count   int   `json:"count"`
	Revenue int64 `json:"revenue"`
}

type AnalyticsSummary struct {
	Period            string                                   `json:"period"`
	PeriodLabel       string                                   `json:"periodLabel"`
	TotalRevenue      int64                                    `json:"totalRevenue"`
	TotalTransactions int                                      `json:"totalTransactions"`
	AvgTransaction    int64                                    `json:"avgTransaction"`
	TotalProfit       int64                                    `json:"totalProfit"`
	ProfitMargin      float64                                  `json:"profitMargin"`
	TopProducts       []TopProduct                             `json:"topProducts"`
	StockAlerts       int64                                    `json:"stockAlerts"`
	RevenueTrend      []TrendPoint                             `json:"revenueTrend"`
	ByPaymentMethod   map[model.PaymentMethod]PaymentBreakdown `json:"byPaymentMethod"`
	HealthScore       int                                      `json:"healthScore"`
}

type DailySummary struct {
	Date              string                                   `json:"date"`
	TotalRevenue      int64                                    `json:"totalRevenue"`
	TotalTransactions int                                      `json:"totalTransactions"`
	ByPaymentMethod   map[model.PaymentMethod]PaymentBreakdown `json:"byPaymentMethod"`
}

type AnalyticsService interface {
	Summarize(ctx context.Context, period string) (*AnalyticsSummary, error)
	TodaySummary(ctx context.Context) (*DailySummary, error)
}

type analyticsService struct {
	store *repository.Store
	now   func() time.Time
}

func NewAnalyticsService(store *repository.Store) AnalyticsService {
	return &analyticsService{store: store, now: time.Now}
}

// PeriodRange resolves a reporting period to an inclusive [start, end] window in
// Asia/Jakarta. Unknown periods fall back to today; the normalized period is returned.
func PeriodRange(period string, now time.Time) (start, end time.Time, label, normalized string) {
	now = now.In(JakartaLoc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, JakartaLoc)
	end = dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)

	switch period {
	case Period7Days:
		return end.AddDate(0, 0, -7), end, "Last 7 Days", Period7Days
	case Period30Days:
		return end.AddDate(0, 0, -30), end, "Last 30 Days", Period30Days
	default:
		return dayStart, end, "Today", PeriodToday
	}
}

// HealthScore rates the period between 0 and 100 from its volume and open alerts.
func HealthScore(transactions int, alerts int64) int {
	score := 50
	if transactions > 10 {
		score += min(20, transactions/5)
	}
	score += 15
	switch {
	case alerts == 0:
		score += 15
	case alerts <= 5:
		score += 10
	default:
		score -= int(min(10, alerts*2))
	}
	return max(0, min(100, score))
}

func (s *analyticsService) Summarize(ctx context.Context, period string) (*AnalyticsSummary, error) {
	start, end, label, period := PeriodRange(period, s.now())

	txs, err := s.store.Transactions.FindBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	alerts, err := s.store.Alerts.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}

	var revenue int64
	for _, t := range txs {
		revenue += t.TotalAmount
	}

	sum := &AnalyticsSummary{
		Period:            period,
		PeriodLabel:       label,
		TotalRevenue:      revenue,
		TotalTransactions: len(txs),
		TotalProfit:       decimal.NewFromInt(revenue).Mul(profitRate).Round(0).IntPart(),
		ProfitMargin:      30.0,
		TopProducts:       topProducts(txs, topProductsLimit),
		StockAlerts:       alerts,
		ByPaymentMethod:   byPaymentMethod(txs),
		HealthScore:       HealthScore(len(txs), alerts),
	}
	if len(txs) > 0 {
		sum.AvgTransaction = decimal.NewFromInt(revenue).Div(decimal.NewFromInt(int64(len(txs)))).Round(0).IntPart()
	}
	if period == PeriodToday {
		sum.RevenueTrend = hourlyTrend(txs)
	} else {
		sum.RevenueTrend = dailyTrend(txs)
	}
	return sum, nil
}

func (s *analyticsService) TodaySummary(ctx context.Context) (*DailySummary, error) {
	start, end, _, _ := PeriodRange(PeriodToday, s.now())
	txs, err := s.store.Transactions.FindBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	out := &DailySummary{
		Date:              start.Format("2006-01-02"),
		TotalTransactions: len(txs),
		ByPaymentMethod:   byPaymentMethod(txs),
	}
	for _, t := range txs {
		out.TotalRevenue += t.TotalAmount
	}
	return out, nil
}

// topProducts ranks by revenue. txs must be oldest first; ties keep first-seen order.
func topProducts(txs []model.Transaction, limit int) []TopProduct {
	index := make(map[string]int)
	var ranked []TopProduct
	for _, t := range txs {
		for _, it := range t.Items {
			i, ok := index[it.Barcode]
			if !ok {
				i = len(ranked)
				index[it.Barcode] = i
				ranked = append(ranked, TopProduct{Barcode: it.Barcode, Name: it.NameSnapshot})
			}
			ranked[i].Qty += it.Quantity
			ranked[i].Revenue += it.Subtotal
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Revenue > ranked[j].Revenue })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		ranked = []TopProduct{}
	}
	return ranked
}

func hourlyTrend(txs []model.Transaction) []TrendPoint {
	var hours [24]int64
	for _, t := range txs {
		hours[t.CreatedAt.In(JakartaLoc).Hour()] += t.TotalAmount
	}
	trend := make([]TrendPoint, 24)
	for h := range hours {
		trend[h] = TrendPoint{Label: fmt.Sprintf("%02d:00", h), Revenue: hours[h]}
	}
	return trend
}

func dailyTrend(txs []model.Transaction) []TrendPoint {
	days := make(map[string]int64)
	for _, t := range txs {
		days[t.CreatedAt.In(JakartaLoc).Format("2006-01-02")] += t.TotalAmount
	}
	trend := make([]TrendPoint, 0, len(days))
	for day, rev := range days {
		trend = append(trend, TrendPoint{Label: day, Revenue: rev})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Label < trend[j].Label })
	return trend
}

func byPaymentMethod(txs []model.Transaction) map[model.PaymentMethod]PaymentBreakdown {
	out := make(map[model.PaymentMethod]PaymentBreakdown)
	for _, t := range txs {
		b := out[t.PaymentMethod]
		b.Count++
		b.Revenue += t.TotalAmount
		out[t.PaymentMethod] = b
	}
	return out
}
