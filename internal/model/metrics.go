package model

import "time"

// Metric names, in report order.
const (
	MetricExpectedReturn = "Expected Return (%)"
	MetricVolatility     = "Volatility (%)"
	MetricSharpeRatio    = "Sharpe Ratio"
	MetricValueAtRisk    = "Value at Risk (95%) (%)"
	MetricMaxDrawdown    = "Max Drawdown (%)"
)

// MetricOrder is the fixed key order of a MetricsReport.
var MetricOrder = []string{
	MetricExpectedReturn,
	MetricVolatility,
	MetricSharpeRatio,
	MetricValueAtRisk,
	MetricMaxDrawdown,
}

// Metric is a single named, rounded statistic.
type Metric struct {
	Name  string
	Value float64
}

// MetricsReport is the fixed-key risk/return report. It is built once and not mutated.
type MetricsReport struct {
	Symbol  string
	Metrics []Metric
}

// Get returns the value for name and whether it is present.
func (r *MetricsReport) Get(name string) (float64, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// RunRecord is everything persisted for one pipeline run.
type RunRecord struct {
	Symbol       string
	StartDate    time.Time
	EndDate      time.Time
	Observations int
	Horizon      int
	RiskFreeRate float64
	Provider     string
	Report       *MetricsReport
	Forecast     *Forecast
	ChartPath    string
	RanAt        time.Time
}
