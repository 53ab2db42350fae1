package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskForecast/internal/model"
)

func makeSeries(prices []float64) *model.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := &model.PriceSeries{Symbol: "TEST"}
	for i, p := range prices {
		s.Points = append(s.Points, model.PricePoint{Date: start.AddDate(0, 0, i), Price: p})
	}
	return s
}

func TestDailyReturns(t *testing.T) {
	got := DailyReturns([]float64{100, 110, 99})
	require.Len(t, got, 3)
	assert.True(t, math.IsNaN(got[0]))
	assert.InDelta(t, 0.1, got[1], 1e-12)
	assert.InDelta(t, -0.1, got[2], 1e-12)
}

func TestCumulativeReturns_AnchoredAtZero(t *testing.T) {
	got := CumulativeReturns([]float64{math.NaN(), 0.1, -0.1})
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 0.1, got[1], 1e-12)
	assert.InDelta(t, -0.01, got[2], 1e-12)
}

func TestCalculateReturns_Empty(t *testing.T) {
	_, err := CalculateReturns(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = CalculateReturns(&model.PriceSeries{Symbol: "X"})
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestConstantSeries(t *testing.T) {
	rs, err := CalculateReturns(makeSeries([]float64{50, 50, 50, 50, 50}))
	require.NoError(t, err)

	daily := rs.DailyReturns()
	for i := 1; i < len(daily); i++ {
		assert.Equal(t, 0.0, daily[i], "daily[%d]", i)
	}

	vol, err := Volatility(daily)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vol)

	mdd, err := MaxDrawdown(rs.CumulativeReturns())
	require.NoError(t, err)
	assert.Equal(t, 0.0, mdd)

	sharpe, err := SharpeRatio(daily, 0.05)
	assert.ErrorIs(t, err, ErrZeroVariance)
	assert.True(t, math.IsNaN(sharpe))
}

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03}
	rf := 0.05

	excess := make([]float64, len(returns))
	var mean float64
	for i, r := range returns {
		excess[i] = r - rf/252
		mean += excess[i]
	}
	mean /= float64(len(excess))
	var ss float64
	for _, e := range excess {
		ss += (e - mean) * (e - mean)
	}
	want := mean / math.Sqrt(ss/float64(len(excess))) * math.Sqrt(252)

	got, err := SharpeRatio(returns, rf)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
	assert.InDelta(t, 4.997085616802471, got, 1e-9)
}

func TestSharpeRatio_IgnoresLeadingNaN(t *testing.T) {
	a, err := SharpeRatio([]float64{math.NaN(), 0.01, -0.02, 0.03}, 0.05)
	require.NoError(t, err)
	b, err := SharpeRatio([]float64{0.01, -0.02, 0.03}, 0.05)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestValueAtRisk(t *testing.T) {
	returns := []float64{-0.05, -0.03, -0.01, 0.00, 0.02, 0.04, 0.06}
	got, err := ValueAtRisk(returns, 0.95)
	require.NoError(t, err)
	// h = 6*0.05 = 0.3 -> -0.05 + 0.3*0.02
	assert.InDelta(t, -0.044, got, 1e-12)

	_, err = ValueAtRisk(returns, 1.5)
	assert.ErrorIs(t, err, ErrInvalidConfidence)
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		p    float64
		want float64
	}{
		{"min", []float64{3, 1, 2}, 0, 1},
		{"max", []float64{3, 1, 2}, 100, 3},
		{"median even", []float64{4, 1, 3, 2}, 50, 2.5},
		{"ignores nan", []float64{math.NaN(), 1, 2}, 50, 1.5},
		{"single", []float64{7}, 5, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Percentile(tt.x, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := Percentile([]float64{1}, 101)
	assert.ErrorIs(t, err, ErrInvalidPercentile)
	_, err = Percentile([]float64{math.NaN()}, 50)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestMaxDrawdown_IgnoresZeroOverZero(t *testing.T) {
	got, err := MaxDrawdown([]float64{0, 0.1, 0.05, 0.2, -0.1})
	require.NoError(t, err)
	assert.InDelta(t, -1.5, got, 1e-12)
}

func TestMaxDrawdown_BelowZeroPeak(t *testing.T) {
	got, err := MaxDrawdown([]float64{0, -0.1, 0.2})
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, -1))
}

func TestMaxDrawdown_Empty(t *testing.T) {
	_, err := MaxDrawdown(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestNanMin(t *testing.T) {
	m, ok := NanMin([]float64{math.NaN(), 2, -1, math.NaN()})
	assert.True(t, ok)
	assert.Equal(t, -1.0, m)

	m, ok = NanMin([]float64{math.NaN(), math.NaN()})
	assert.False(t, ok)
	assert.True(t, math.IsNaN(m))
}

func TestRunningMax(t *testing.T) {
	got := RunningMax([]float64{0, 0.1, 0.05, 0.2, -0.1})
	assert.Equal(t, []float64{0, 0.1, 0.1, 0.2, 0.2}, got)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, -1.01, Round2(-1.005))
	assert.Equal(t, 2.0, Round2(1.999))
	assert.Equal(t, 12.0, Round2(11.999999999999966))
	assert.True(t, math.IsNaN(Round2(math.NaN())))
	assert.True(t, math.IsInf(Round2(math.Inf(-1)), -1))
}

func TestEvaluatePerformance_TenDayFixture(t *testing.T) {
	prices := []float64{100, 102, 101, 105, 103, 104, 108, 107, 110, 112}
	rs, err := CalculateReturns(makeSeries(prices))
	require.NoError(t, err)

	report, err := EvaluatePerformance(rs, 0.05)
	require.NoError(t, err)
	require.Len(t, report.Metrics, len(model.MetricOrder))

	want := []model.Metric{
		{Name: model.MetricExpectedReturn, Value: 12.00},
		{Name: model.MetricVolatility, Value: 32.24},
		{Name: model.MetricSharpeRatio, Value: 9.91},
		{Name: model.MetricValueAtRisk, Value: -1.54},
		{Name: model.MetricMaxDrawdown, Value: -50.00},
	}
	assert.Equal(t, want, report.Metrics)
	assert.Equal(t, "TEST", report.Symbol)
}

func TestEvaluatePerformance_FlatSeries(t *testing.T) {
	rs, err := CalculateReturns(makeSeries([]float64{10, 10, 10}))
	require.NoError(t, err)

	report, err := EvaluatePerformance(rs, 0.05)
	require.NoError(t, err)

	sharpe, ok := report.Get(model.MetricSharpeRatio)
	require.True(t, ok)
	assert.True(t, math.IsNaN(sharpe))

	vol, _ := report.Get(model.MetricVolatility)
	assert.Equal(t, 0.0, vol)
}

func TestEvaluatePerformance_TooShort(t *testing.T) {
	rs, err := CalculateReturns(makeSeries([]float64{10}))
	require.NoError(t, err)
	_, err = EvaluatePerformance(rs, 0.05)
	assert.ErrorIs(t, err, ErrEmptySeries)
}
