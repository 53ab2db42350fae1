// Package pipeline runs the fetch, returns, forecast and report stages in a
// fixed order for one symbol.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"RiskForecast/internal/calculator"
	"RiskForecast/internal/chart"
	"RiskForecast/internal/collector"
	"RiskForecast/internal/config"
	"RiskForecast/internal/forecast"
	"RiskForecast/internal/model"
	"RiskForecast/internal/notifier"
	"RiskForecast/internal/recorder"
)

const notifyRetries = 3

// Sender delivers a finished report to an external channel.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Deps are the collaborators a run needs. Only Fetcher is required.
type Deps struct {
	Fetcher  collector.Fetcher
	Recorder recorder.Recorder
	Notifier Sender
	Observer Observer
	Log      *zap.Logger
	// Out receives the console report; os.Stdout when nil.
	Out io.Writer
	Now func() time.Time
}

// Result carries every intermediate product of a successful run.
type Result struct {
	Series     *model.PriceSeries
	Returns    *model.ReturnSeries
	Forecast   *model.Forecast
	Report     *model.MetricsReport
	ReportText string
	Record     *model.RunRecord
	RunID      int64
}

func (d *Deps) fill() error {
	if d.Fetcher == nil {
		return errors.New("pipeline: fetcher is required")
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	if d.Observer == nil {
		d.Observer = LogObserver{Log: d.Log}
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return nil
}

type runner struct {
	obs Observer
}

func (r runner) stage(s Stage, fn func() error) error {
	r.obs.StageStarted(s)
	start := time.Now()
	err := fn()
	r.obs.StageFinished(s, time.Since(start), err)
	if err != nil {
		return &StageError{Stage: s, Err: err}
	}
	return nil
}

// Run executes one full pipeline for cfg. A stage failure aborts the run and
// is returned as a *StageError. The report is printed before the chart is
// rendered, so only a chart failure leaves printed output behind.
// Recorder and notifier failures are logged and do not fail the run.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	if err := deps.fill(); err != nil {
		return nil, err
	}
	start, err := cfg.Start()
	if err != nil {
		return nil, fmt.Errorf("pipeline: start date: %w", err)
	}

	r := runner{obs: deps.Observer}
	res := &Result{}
	col := collector.NewCollector(deps.Fetcher, cfg.Symbol, start, deps.Log)

	var (
		bars      []model.OHLCV
		fetchedAt time.Time
	)
	if err := r.stage(StageFetch, func() (err error) {
		bars, fetchedAt, err = col.Fetch(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage(StageReshape, func() (err error) {
		res.Series, err = collector.Reshape(cfg.Symbol, bars)
		if err == nil {
			res.Series.FetchedAt = fetchedAt
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage(StageReturns, func() (err error) {
		res.Returns, err = calculator.CalculateReturns(res.Series)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage(StageForecast, func() (err error) {
		res.Forecast, err = forecast.Run(res.Series, cfg.ForecastOptions(), cfg.HorizonDays)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage(StageMetrics, func() (err error) {
		res.Report, err = calculator.EvaluatePerformance(res.Returns, cfg.RiskFreeRate)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage(StageReport, func() error {
		res.ReportText = notifier.FormatMetricsReport(res.Report)
		if _, err := io.WriteString(deps.Out, res.ReportText); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage(StageChart, func() error {
		if err := chart.RenderForecast(cfg.Output.ChartPath, cfg.Symbol, res.Series, res.Forecast); err != nil {
			return err
		}
		if cfg.Output.ForecastCSV != "" {
			if err := WriteForecastCSV(cfg.Output.ForecastCSV, res.Forecast); err != nil {
				return fmt.Errorf("forecast csv: %w", err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	res.Record = &model.RunRecord{
		Symbol:       cfg.Symbol,
		StartDate:    res.Series.Points[0].Date,
		EndDate:      res.Series.Points[res.Series.Len()-1].Date,
		Observations: res.Series.Len(),
		Horizon:      cfg.HorizonDays,
		RiskFreeRate: cfg.RiskFreeRate,
		Provider:     deps.Fetcher.Name(),
		Report:       res.Report,
		Forecast:     res.Forecast,
		ChartPath:    cfg.Output.ChartPath,
		RanAt:        deps.Now(),
	}

	if id, err := deps.Recorder.RecordRun(ctx, res.Record); err != nil {
		deps.Log.Error("record run", zap.Error(err))
	} else {
		res.RunID = id
	}
	if deps.Notifier != nil {
		if err := deps.Notifier.SendWithRetry(ctx, notifier.FormatTelegramReport(res.Record), notifyRetries); err != nil {
			deps.Log.Error("send report", zap.Error(err))
		}
	}

	deps.Log.Info("run complete",
		zap.String("symbol", cfg.Symbol),
		zap.Int("observations", res.Series.Len()),
		zap.Time("fetched_at", res.Series.FetchedAt),
		zap.Int("horizon", cfg.HorizonDays),
		zap.String("chart", cfg.Output.ChartPath),
	)
	return res, nil
}
