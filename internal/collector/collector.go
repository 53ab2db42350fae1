package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"RiskForecast/internal/model"
)

var (
	ErrNoData           = errors.New("no price data")
	ErrNonPositivePrice = errors.New("non-positive price")
	ErrUnorderedDates   = errors.New("dates not strictly increasing")
)

// Collector fetches the price history the pipeline runs on.
type Collector struct {
	Fetcher Fetcher
	Symbol  string
	Start   time.Time
	Log     *zap.Logger

	now func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, start time.Time, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{Fetcher: fetcher, Symbol: symbol, Start: start, Log: log, now: time.Now}
}

// Fetch downloads daily bars from Start to now in a single request.
func (c *Collector) Fetch(ctx context.Context) ([]model.OHLCV, time.Time, error) {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	end := now().UTC()

	bars, err := c.Fetcher.FetchDailyBars(ctx, c.Symbol, c.Start, end)
	if err != nil {
		return nil, end, fmt.Errorf("fetch daily bars from %s: %w", c.Fetcher.Name(), err)
	}
	return bars, end, nil
}

// Collect fetches daily bars from Start to now and reshapes them.
func (c *Collector) Collect(ctx context.Context) (*model.PriceSeries, error) {
	bars, end, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	series, err := Reshape(c.Symbol, bars)
	if err != nil {
		return nil, fmt.Errorf("reshape %s: %w", c.Symbol, err)
	}
	series.FetchedAt = end

	c.Log.Info("price history fetched",
		zap.String("provider", c.Fetcher.Name()),
		zap.String("symbol", c.Symbol),
		zap.Int("rows", series.Len()),
		zap.Time("first", series.Points[0].Date),
		zap.Time("last", series.Points[series.Len()-1].Date),
	)
	return series, nil
}

// Reshape projects raw bars onto (date, close) rows. Dates are truncated to
// the calendar day in UTC.
func Reshape(symbol string, bars []model.OHLCV) (*model.PriceSeries, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	series := &model.PriceSeries{Symbol: symbol, Points: make([]model.PricePoint, 0, len(bars))}
	for i, b := range bars {
		if !(b.Close > 0) {
			return nil, fmt.Errorf("row %d (%s): %w", i, b.Time.Format(time.DateOnly), ErrNonPositivePrice)
		}
		t := b.Time.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(series.Points); n > 0 && !day.After(series.Points[n-1].Date) {
			return nil, fmt.Errorf("row %d (%s): %w", i, day.Format(time.DateOnly), ErrUnorderedDates)
		}
		series.Points = append(series.Points, model.PricePoint{Date: day, Price: b.Close})
	}
	return series, nil
}
