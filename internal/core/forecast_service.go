package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const forecastHistoryDays = 180

// MonthlyAmount is one historical data point, keyed by "2006-01" month.
type MonthlyAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// ForecastPoint is one projected month with an uncertainty band of one
// standard deviation around the prediction.
type ForecastPoint struct {
	Month           string  `json:"month"`
	PredictedAmount float64 `json:"predicted_amount"`
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
}

// Forecast is the result of projecting a monthly series forward.
type Forecast struct {
	Historical   []MonthlyAmount `json:"historical"`
	Forecast     []ForecastPoint `json:"forecast"`
	AvgMonthly   float64         `json:"avg_monthly"`
	Trend        string          `json:"trend"` // increasing, decreasing, stable
	TrendPercent float64         `json:"trend_percent"`
	Confidence   float64         `json:"confidence"`
}

// ForecastService projects expenses and revenue from the trailing six
// months of recorded data.
type ForecastService interface {
	ExpenseForecast(ctx context.Context, companyID string, monthsAhead int) (Forecast, error)
	RevenueForecast(ctx context.Context, companyID string, monthsAhead int) (Forecast, error)
}

type forecastService struct {
	pool *pgxpool.Pool
}

// NewForecastService constructs a ForecastService backed by PostgreSQL.
func NewForecastService(pool *pgxpool.Pool) ForecastService {
	return &forecastService{pool: pool}
}

func (s *forecastService) ExpenseForecast(ctx context.Context, companyID string, monthsAhead int) (Forecast, error) {
	since := time.Now().UTC().AddDate(0, 0, -forecastHistoryDays)
	totals := map[string]float64{}

	rows, err := s.pool.Query(ctx, `
		SELECT to_char(invoice_date, 'YYYY-MM'), COALESCE(SUM(total_amount), 0)
		FROM invoices
		WHERE company_id = $1 AND invoice_date >= $2
		GROUP BY 1`, companyID, since)
	if err != nil {
		return Forecast{}, fmt.Errorf("query invoice totals: %w", err)
	}
	if err := collectMonthlyTotals(rows, totals); err != nil {
		return Forecast{}, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT to_char(expense_date, 'YYYY-MM'), COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE company_id = $1 AND expense_date >= $2
		GROUP BY 1`, companyID, since)
	if err != nil {
		return Forecast{}, fmt.Errorf("query expense totals: %w", err)
	}
	if err := collectMonthlyTotals(rows, totals); err != nil {
		return Forecast{}, err
	}

	return buildForecast(totals, monthsAhead), nil
}

func (s *forecastService) RevenueForecast(ctx context.Context, companyID string, monthsAhead int) (Forecast, error) {
	since := time.Now().UTC().AddDate(0, 0, -forecastHistoryDays)
	totals := map[string]float64{}

	rows, err := s.pool.Query(ctx, `
		SELECT to_char(revenue_date, 'YYYY-MM'), COALESCE(SUM(fiscal_revenue), 0)
		FROM daily_revenues
		WHERE company_id = $1 AND revenue_date >= $2
		GROUP BY 1`, companyID, since)
	if err != nil {
		return Forecast{}, fmt.Errorf("query revenue totals: %w", err)
	}
	if err := collectMonthlyTotals(rows, totals); err != nil {
		return Forecast{}, err
	}

	return buildForecast(totals, monthsAhead), nil
}

func collectMonthlyTotals(rows pgx.Rows, totals map[string]float64) error {
	defer rows.Close()
	for rows.Next() {
		var month string
		var amount float64
		if err := rows.Scan(&month, &amount); err != nil {
			return fmt.Errorf("scan monthly total: %w", err)
		}
		totals[month] += amount
	}
	return rows.Err()
}

// buildForecast turns a month->amount map into a projection. The trend is
// the percent change between the means of the older and newer halves of
// the series; a change above 10 percent in either direction is treated as
// a real trend, otherwise the projection is flat.
func buildForecast(totals map[string]float64, monthsAhead int) Forecast {
	if monthsAhead <= 0 {
		monthsAhead = 3
	}
	if len(totals) == 0 {
		return Forecast{
			Historical: []MonthlyAmount{},
			Forecast:   []ForecastPoint{},
			Trend:      "stable",
		}
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	historical := make([]MonthlyAmount, len(months))
	amounts := make([]float64, len(months))
	for i, m := range months {
		historical[i] = MonthlyAmount{Month: m, Amount: totals[m]}
		amounts[i] = totals[m]
	}

	avg := mean(amounts)
	sd := stddev(amounts, avg)

	trend := "stable"
	trendPercent := 0.0
	if len(amounts) >= 3 {
		firstHalf := mean(amounts[:len(amounts)/2])
		secondHalf := mean(amounts[len(amounts)/2:])
		if firstHalf > 0 {
			trendPercent = (secondHalf - firstHalf) / firstHalf * 100
		}
		switch {
		case trendPercent > 10:
			trend = "increasing"
		case trendPercent < -10:
			trend = "decreasing"
		}
	}

	monthlyGrowth := 1.0
	if trend != "stable" {
		monthlyGrowth = 1 + trendPercent/100/12
	}

	now := time.Now().UTC()
	forecast := make([]ForecastPoint, 0, monthsAhead)
	for i := 1; i <= monthsAhead; i++ {
		predicted := avg * math.Pow(monthlyGrowth, float64(i))
		forecast = append(forecast, ForecastPoint{
			Month:           now.AddDate(0, 0, 30*i).Format("2006-01"),
			PredictedAmount: round2(predicted),
			LowerBound:      round2(math.Max(0, predicted-sd)),
			UpperBound:      round2(predicted + sd),
		})
	}

	return Forecast{
		Historical:   historical,
		Forecast:     forecast,
		AvgMonthly:   round2(avg),
		Trend:        trend,
		TrendPercent: math.Round(trendPercent*10) / 10,
		Confidence:   round2(math.Min(0.9, float64(len(amounts))/6)),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
