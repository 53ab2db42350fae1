package recorder

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskForecast/internal/model"
)

func sampleRun(symbol string, ranAt time.Time) *model.RunRecord {
	return &model.RunRecord{
		Symbol:       symbol,
		StartDate:    time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		Observations: 2390,
		Horizon:      2,
		RiskFreeRate: 0.05,
		Provider:     "mock",
		ChartPath:    "output/x.png",
		RanAt:        ranAt,
		Report: &model.MetricsReport{Symbol: symbol, Metrics: []model.Metric{
			{Name: model.MetricExpectedReturn, Value: 12},
			{Name: model.MetricSharpeRatio, Value: math.NaN()},
		}},
		Forecast: &model.Forecast{Symbol: symbol, Horizon: 2, Points: []model.ForecastPoint{
			{Date: time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC), Yhat: 1, YhatLower: 0.5, YhatUpper: 1.5},
			{Date: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), Yhat: 2, YhatLower: 1.5, YhatUpper: 2.5},
		}},
	}
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	defer r.Close()

	t0 := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	id1, err := r.RecordRun(ctx, sampleRun("AAPL", t0))
	require.NoError(t, err)
	id2, err := r.RecordRun(ctx, sampleRun("AAPL", t0.Add(time.Hour)))
	require.NoError(t, err)
	_, err = r.RecordRun(ctx, sampleRun("MSFT", t0))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	runs, err := r.RecentRuns(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id2, runs[0].ID)
	assert.Equal(t, "mock", runs[0].Provider)
	assert.Equal(t, 2390, runs[0].Observations)

	require.Len(t, runs[0].Metrics, 2)
	assert.Equal(t, model.MetricExpectedReturn, runs[0].Metrics[0].Name)
	assert.Equal(t, 12.0, runs[0].Metrics[0].Value)
	assert.True(t, math.IsNaN(runs[0].Metrics[1].Value))

	var points int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM forecast_points WHERE run_id = ?`, id1).Scan(&points))
	assert.Equal(t, 2, points)
}

func TestSQLiteRecorder_Limit(t *testing.T) {
	ctx := context.Background()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 3; i++ {
		_, err := r.RecordRun(ctx, sampleRun("AAPL", time.Unix(int64(1000+i), 0)))
		require.NoError(t, err)
	}
	runs, err := r.RecentRuns(ctx, "AAPL", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(1002), runs[0].RanAt.Unix())
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	id, err := r.RecordRun(context.Background(), sampleRun("X", time.Now()))
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, r.Close())
}
