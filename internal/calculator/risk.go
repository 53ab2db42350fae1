package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDays is the number of trading days used to annualize daily statistics.
const TradingDays = 252

// Volatility returns the annualized population standard deviation of returns.
func Volatility(returns []float64) (float64, error) {
	r := DropNaN(returns)
	if len(r) == 0 {
		return 0, ErrEmptySeries
	}
	return stat.PopStdDev(r, nil) * math.Sqrt(TradingDays), nil
}

// SharpeRatio returns the annualized Sharpe ratio of returns against an annual
// risk-free rate converted to a daily rate by simple division.
// A series with zero variance yields NaN and ErrZeroVariance.
func SharpeRatio(returns []float64, riskFreeRate float64) (float64, error) {
	r := DropNaN(returns)
	if len(r) == 0 {
		return 0, ErrEmptySeries
	}
	dailyRate := riskFreeRate / TradingDays
	excess := make([]float64, len(r))
	for i, v := range r {
		excess[i] = v - dailyRate
	}
	// Identical values can still produce a tiny nonzero std from rounding in the mean.
	if floats.Min(excess) == floats.Max(excess) {
		return math.NaN(), ErrZeroVariance
	}
	mean, std := stat.PopMeanStdDev(excess, nil)
	return mean / std * math.Sqrt(TradingDays), nil
}

// ValueAtRisk returns the return threshold not expected to be undercut at the
// given confidence level, i.e. the (1-confidence) percentile of returns.
func ValueAtRisk(returns []float64, confidence float64) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, ErrInvalidConfidence
	}
	return Percentile(returns, (1-confidence)*100)
}

// MaxDrawdown returns the most negative (value-peak)/peak over the cumulative
// return series, where peak is the running maximum.
//
// Rows where peak is 0 and value is 0 produce 0/0 = NaN and are ignored by the
// minimum. A row below a zero peak produces -Inf and is kept. When no row
// survives (e.g. a constant price series) the drawdown is 0.
func MaxDrawdown(cumulative []float64) (float64, error) {
	if len(cumulative) == 0 {
		return 0, ErrEmptySeries
	}
	peaks := RunningMax(cumulative)
	drawdowns := make([]float64, len(cumulative))
	for i, v := range cumulative {
		drawdowns[i] = (v - peaks[i]) / peaks[i]
	}
	dd, ok := NanMin(drawdowns)
	if !ok {
		return 0, nil
	}
	return dd, nil
}

// ExpectedReturn returns the final cumulative return.
func ExpectedReturn(cumulative []float64) (float64, error) {
	if len(cumulative) == 0 {
		return 0, ErrEmptySeries
	}
	return cumulative[len(cumulative)-1], nil
}
