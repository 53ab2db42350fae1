package collector

import (
	"context"
	"time"

	"RiskForecast/internal/model"
)

// Fetcher defines the interface for fetching historical market data.
type Fetcher interface {
	// FetchDailyBars returns daily bars for symbol in [start, end], oldest first.
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}
