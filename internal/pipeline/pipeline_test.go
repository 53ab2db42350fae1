package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskForecast/internal/collector"
	"RiskForecast/internal/config"
	"RiskForecast/internal/model"
	"RiskForecast/internal/recorder"
)

type recordingObserver struct {
	started  []Stage
	finished []Stage
	failed   []Stage
}

func (o *recordingObserver) StageStarted(s Stage) { o.started = append(o.started, s) }
func (o *recordingObserver) StageFinished(s Stage, _ time.Duration, err error) {
	o.finished = append(o.finished, s)
	if err != nil {
		o.failed = append(o.failed, s)
	}
}

type fakeSender struct {
	texts []string
	err   error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.texts = append(f.texts, text)
	return f.err
}

func tenDayBars() []model.OHLCV {
	prices := []float64{100, 102, 101, 105, 103, 104, 108, 107, 110, 112}
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(prices))
	for i, p := range prices {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Close: p, Open: p, High: p, Low: p}
	}
	return bars
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Symbol = "TEST"
	cfg.StartDate = "2024-01-01"
	cfg.HorizonDays = 5
	cfg.Output.ChartPath = filepath.Join(dir, "chart.png")
	cfg.Output.ForecastCSV = filepath.Join(dir, "forecast.csv")
	cfg.DataSource.Provider = config.ProviderMock
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	defer rec.Close()

	var out bytes.Buffer
	obs := &recordingObserver{}
	sender := &fakeSender{err: errors.New("telegram down")}

	res, err := Run(context.Background(), cfg, Deps{
		Fetcher:  &collector.MockFetcher{DailyData: tenDayBars()},
		Recorder: rec,
		Notifier: sender,
		Observer: obs,
		Out:      &out,
	})
	require.NoError(t, err)

	all := []Stage{StageFetch, StageReshape, StageReturns, StageForecast, StageMetrics, StageReport, StageChart}
	assert.Equal(t, all, obs.started)
	assert.Equal(t, all, obs.finished)
	assert.Empty(t, obs.failed)

	want := strings.Join([]string{
		"📊 Risk & Return Metrics",
		strings.Repeat("-", 35),
		"Expected Return (%): 12.00",
		"Volatility (%): 32.24",
		"Sharpe Ratio: 9.91",
		"Value at Risk (95%) (%): -1.54",
		"Max Drawdown (%): -50.00",
	}, "\n") + "\n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, want, res.ReportText)

	assert.False(t, res.Series.FetchedAt.IsZero())
	require.Len(t, res.Forecast.Points, 15)
	assert.Equal(t, 5, res.Forecast.Horizon)
	_, err = os.Stat(cfg.Output.ChartPath)
	assert.NoError(t, err)

	f, err := os.Open(cfg.Output.ForecastCSV)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 16)
	assert.Equal(t, []string{"ds", "yhat", "yhat_lower", "yhat_upper"}, rows[0])
	assert.Equal(t, "2024-01-02", rows[1][0])

	// notifier failure is logged, not fatal
	assert.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "TEST Risk Report")

	assert.NotZero(t, res.RunID)
	runs, err := rec.RecentRuns(context.Background(), "TEST", 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "mock", runs[0].Provider)
	assert.Equal(t, 10, runs[0].Observations)
}

func TestRun_StageFailure(t *testing.T) {
	tests := []struct {
		name  string
		bars  []model.OHLCV
		err   error
		stage Stage
	}{
		{"fetch", nil, errors.New("network down"), StageFetch},
		{"reshape", []model.OHLCV{{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: -1}}, nil, StageReshape},
		{"forecast", []model.OHLCV{{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10}}, nil, StageForecast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			obs := &recordingObserver{}
			fetcher := &collector.MockFetcher{DailyData: tt.bars, Err: tt.err}

			_, err := Run(context.Background(), testConfig(t), Deps{Fetcher: fetcher, Observer: obs, Out: &out})
			require.Error(t, err)

			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stage, se.Stage)
			assert.Equal(t, []Stage{tt.stage}, obs.failed)
			assert.Empty(t, out.String())
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestRun_ChartFailureKeepsPrintedReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.ChartPath = filepath.Join(t.TempDir(), "chart")
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	defer rec.Close()

	var out bytes.Buffer
	_, err = Run(context.Background(), cfg, Deps{
		Fetcher:  &collector.MockFetcher{DailyData: tenDayBars()},
		Recorder: rec,
		Out:      &out,
	})
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageChart, se.Stage)
	assert.True(t, strings.HasPrefix(out.String(), "📊 Risk & Return Metrics"))
	assert.Contains(t, out.String(), "Sharpe Ratio: 9.91")

	runs, err := rec.RecentRuns(context.Background(), "TEST", 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRun_RequiresFetcher(t *testing.T) {
	_, err := Run(context.Background(), testConfig(t), Deps{})
	assert.Error(t, err)
}

func TestRun_GeneratedMockData(t *testing.T) {
	cfg := testConfig(t)
	cfg.HorizonDays = 30
	cfg.Output.ForecastCSV = ""

	var out bytes.Buffer
	res, err := Run(context.Background(), cfg, Deps{
		Fetcher: &collector.MockFetcher{Price: 100},
		Out:     &out,
		Now:     func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	assert.Greater(t, res.Series.Len(), 100)
	assert.Len(t, res.Report.Metrics, 5)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), res.Record.RanAt)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "forecast", StageForecast.String())
	assert.Equal(t, "stage(42)", Stage(42).String())
	err := &StageError{Stage: StageMetrics, Err: errors.New("x")}
	assert.Equal(t, "metrics stage: x", err.Error())
}
