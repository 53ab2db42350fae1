package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Stage identifies one step of a run, in execution order.
type Stage int

const (
	StageFetch Stage = iota
	StageReshape
	StageReturns
	StageForecast
	StageMetrics
	StageReport
	StageChart
)

var stageNames = [...]string{"fetch", "reshape", "returns", "forecast", "metrics", "report", "chart"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError wraps the failure of a single stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Observer is told about stage transitions. Computation code never prints
// progress itself.
type Observer interface {
	StageStarted(stage Stage)
	StageFinished(stage Stage, elapsed time.Duration, err error)
}

// LogObserver reports stage transitions as structured log events.
type LogObserver struct {
	Log *zap.Logger
}

func (o LogObserver) StageStarted(stage Stage) {
	o.Log.Debug("stage started", zap.Stringer("stage", stage))
}

func (o LogObserver) StageFinished(stage Stage, elapsed time.Duration, err error) {
	if err != nil {
		o.Log.Error("stage failed", zap.Stringer("stage", stage), zap.Duration("elapsed", elapsed), zap.Error(err))
		return
	}
	o.Log.Info("stage finished", zap.Stringer("stage", stage), zap.Duration("elapsed", elapsed))
}
