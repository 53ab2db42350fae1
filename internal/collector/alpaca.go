package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"RiskForecast/internal/model"
)

// barsClient is the subset of the Alpaca market data client used here.
type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaFetcher implements Fetcher using Alpaca market data v2 bars.
// Bars are adjusted for splits and dividends, like Yahoo's adjusted close.
type AlpacaFetcher struct {
	client barsClient
	feed   marketdata.Feed
}

// NewAlpacaFetcher creates a fetcher authenticated with the given key pair.
// An empty feed selects IEX, the only feed free keys may query up to now.
func NewAlpacaFetcher(apiKey, apiSecret string, feed marketdata.Feed) *AlpacaFetcher {
	if feed == "" {
		feed = marketdata.IEX
	}
	return &AlpacaFetcher{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		feed: feed,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchDailyBars requests one-day bars for symbol in [start, end].
// The SDK call is not cancellable, so ctx is only checked before it starts.
func (f *AlpacaFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Feed:       f.feed,
		Start:      start,
		End:        end,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca get bars: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("alpaca: symbol %q: %w", symbol, ErrNoData)
	}

	bars := make([]model.OHLCV, len(raw))
	for i, b := range raw {
		bars[i] = model.OHLCV{
			Time:   b.Timestamp.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	return bars, nil
}
