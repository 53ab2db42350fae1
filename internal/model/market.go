package model

import "time"

// OHLCV represents a single candlestick bar as returned by a data provider.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PricePoint is one (date, closing price) row.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceSeries is the two-column table the rest of the pipeline works on.
// Dates are strictly increasing and every price is positive.
type PriceSeries struct {
	Symbol    string
	Points    []PricePoint
	FetchedAt time.Time
}

// Dates returns the date column.
func (s *PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date
	}
	return dates
}

// Prices returns the price column.
func (s *PriceSeries) Prices() []float64 {
	prices := make([]float64, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Price
	}
	return prices
}

// Len returns the number of rows.
func (s *PriceSeries) Len() int { return len(s.Points) }
