package calculator

import (
	"math"

	"RiskForecast/internal/model"
)

// DailyReturns computes the fractional change of each price from the prior row.
// The first element is NaN since it has no prior row.
func DailyReturns(prices []float64) []float64 {
	if len(prices) == 0 {
		return nil
	}
	out := make([]float64, len(prices))
	out[0] = math.NaN()
	for i := 1; i < len(prices); i++ {
		out[i] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return out
}

// CumulativeReturns compounds daily returns into a running total return.
// The first element is anchored at 0 regardless of daily[0].
func CumulativeReturns(daily []float64) []float64 {
	if len(daily) == 0 {
		return nil
	}
	out := make([]float64, len(daily))
	growth := 1.0
	for i := 1; i < len(daily); i++ {
		growth *= 1 + daily[i]
		out[i] = growth - 1
	}
	return out
}

// CalculateReturns extends a price series with daily and cumulative returns.
func CalculateReturns(series *model.PriceSeries) (*model.ReturnSeries, error) {
	if series == nil || series.Len() == 0 {
		return nil, ErrEmptySeries
	}
	daily := DailyReturns(series.Prices())
	cumulative := CumulativeReturns(daily)

	points := make([]model.ReturnPoint, series.Len())
	for i, p := range series.Points {
		points[i] = model.ReturnPoint{
			Date:             p.Date,
			Price:            p.Price,
			DailyReturn:      daily[i],
			CumulativeReturn: cumulative[i],
		}
	}
	return &model.ReturnSeries{Symbol: series.Symbol, Points: points}, nil
}
