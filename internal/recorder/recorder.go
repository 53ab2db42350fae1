package recorder

import (
	"context"
	"time"

	"RiskForecast/internal/model"
)

// RunSummary is a stored run as read back from a recorder.
type RunSummary struct {
	ID           int64
	Symbol       string
	RanAt        time.Time
	Observations int
	Horizon      int
	Provider     string
	ChartPath    string
	Metrics      []model.Metric
}

// Recorder persists pipeline runs for later analysis.
type Recorder interface {
	RecordRun(ctx context.Context, rec *model.RunRecord) (int64, error)
	RecentRuns(ctx context.Context, symbol string, limit int) ([]RunSummary, error)
	Close() error
}
