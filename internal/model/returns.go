package model

import "time"

// ReturnPoint extends a price row with its derived returns.
type ReturnPoint struct {
	Date             time.Time
	Price            float64
	DailyReturn      float64 // NaN for the first row
	CumulativeReturn float64 // 0 for the first row
}

// ReturnSeries is the price series extended with daily and cumulative returns.
type ReturnSeries struct {
	Symbol string
	Points []ReturnPoint
}

// DailyReturns returns the daily return column, including the leading NaN.
func (s *ReturnSeries) DailyReturns() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.DailyReturn
	}
	return out
}

// CumulativeReturns returns the cumulative return column.
func (s *ReturnSeries) CumulativeReturns() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.CumulativeReturn
	}
	return out
}
