package calculator

import (
	"errors"
	"fmt"
	"math"

	"RiskForecast/internal/model"
)

// DefaultConfidence is the confidence level used for the report's VaR.
const DefaultConfidence = 0.95

// EvaluatePerformance computes the five headline metrics for a return series.
// Percentages are scaled by 100 and every value is rounded to two decimals.
// A flat series reports a NaN Sharpe ratio rather than failing.
func EvaluatePerformance(rs *model.ReturnSeries, riskFreeRate float64) (*model.MetricsReport, error) {
	if rs == nil || len(rs.Points) < 2 {
		return nil, ErrEmptySeries
	}

	daily := rs.DailyReturns()
	cumulative := rs.CumulativeReturns()

	expected, err := ExpectedReturn(cumulative)
	if err != nil {
		return nil, fmt.Errorf("expected return: %w", err)
	}
	vol, err := Volatility(daily)
	if err != nil {
		return nil, fmt.Errorf("volatility: %w", err)
	}
	sharpe, err := SharpeRatio(daily, riskFreeRate)
	if err != nil && !errors.Is(err, ErrZeroVariance) {
		return nil, fmt.Errorf("sharpe ratio: %w", err)
	}
	if errors.Is(err, ErrZeroVariance) {
		sharpe = math.NaN()
	}
	varValue, err := ValueAtRisk(daily, DefaultConfidence)
	if err != nil {
		return nil, fmt.Errorf("value at risk: %w", err)
	}
	mdd, err := MaxDrawdown(cumulative)
	if err != nil {
		return nil, fmt.Errorf("max drawdown: %w", err)
	}

	values := map[string]float64{
		model.MetricExpectedReturn: expected * 100,
		model.MetricVolatility:     vol * 100,
		model.MetricSharpeRatio:    sharpe,
		model.MetricValueAtRisk:    varValue * 100,
		model.MetricMaxDrawdown:    mdd * 100,
	}

	report := &model.MetricsReport{Symbol: rs.Symbol}
	for _, name := range model.MetricOrder {
		report.Metrics = append(report.Metrics, model.Metric{Name: name, Value: Round2(values[name])})
	}
	return report, nil
}
