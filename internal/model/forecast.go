package model

import "time"

// ForecastPoint is one predicted row with its uncertainty bounds.
type ForecastPoint struct {
	Date      time.Time
	Yhat      float64
	YhatLower float64
	YhatUpper float64
}

// Forecast covers every history date plus Horizon calendar days past the last one.
type Forecast struct {
	Symbol  string
	Horizon int
	Points  []ForecastPoint
}

// Future returns only the rows dated after last.
func (f *Forecast) Future(last time.Time) []ForecastPoint {
	for i, p := range f.Points {
		if p.Date.After(last) {
			return f.Points[i:]
		}
	}
	return nil
}
