package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"RiskForecast/internal/model"
	"RiskForecast/internal/pipeline"
	"RiskForecast/internal/recorder"
)

// statusRuns is how many stored runs /status lists.
const statusRuns = 5

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) (*pipeline.Result, error)

// History reads back stored runs.
type History interface {
	RecentRuns(ctx context.Context, symbol string, limit int) ([]recorder.RunSummary, error)
}

// Scheduler re-runs the pipeline on a cron schedule and answers chat commands
// about the latest run.
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context

	run     RunFunc
	log     *zap.Logger
	running sync.Mutex

	history History
	symbol  string

	mu      sync.RWMutex
	last    *pipeline.Result
	lastErr error
	lastAt  time.Time
}

// NewScheduler creates a Scheduler. Cron specs include a seconds field.
func NewScheduler(ctx context.Context, run RunFunc, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	cronLog := cron.PrintfLogger(zap.NewStdLog(log.Named("cron")))
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		Ctx: ctx,
		run: run,
		log: log,
	}
}

// SetHistory makes /status list the latest stored runs for symbol.
func (s *Scheduler) SetHistory(h History, symbol string) {
	s.history = h
	s.symbol = symbol
}

// Register schedules the pipeline run on spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register run task %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes the pipeline immediately unless a run is already in flight.
func (s *Scheduler) RunNow() bool {
	if !s.tryStart() {
		return false
	}
	s.execute()
	return true
}

func (s *Scheduler) tryStart() bool {
	if !s.running.TryLock() {
		s.log.Warn("run skipped, previous run still in progress")
		return false
	}
	return true
}

// execute runs the pipeline and releases the lock taken by tryStart.
func (s *Scheduler) execute() {
	defer s.running.Unlock()

	s.log.Info("running scheduled pipeline")
	res, err := s.run(s.Ctx)

	s.mu.Lock()
	s.lastAt = time.Now()
	s.lastErr = err
	if err == nil {
		s.last = res
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error("scheduled run failed", zap.Error(err))
	}
}

// Next returns the next scheduled run time, or the zero time when nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.Cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	var name string
	if fields := strings.Fields(command); len(fields) > 0 {
		name = strings.ToLower(fields[0])
	}
	switch name {
	case "/report":
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.last == nil {
			return "No completed run yet."
		}
		return "<pre>" + html.EscapeString(s.last.ReportText) + "</pre>"
	case "/run":
		if !s.tryStart() {
			return "A run is already in progress."
		}
		go s.execute()
		return "Run started."
	case "/status":
		s.mu.RLock()
		defer s.mu.RUnlock()
		var b strings.Builder
		if s.lastAt.IsZero() {
			b.WriteString("Last run: never\n")
		} else if s.lastErr != nil {
			b.WriteString(fmt.Sprintf("Last run: %s (failed: %v)\n", s.lastAt.Format(time.DateTime), s.lastErr))
		} else {
			b.WriteString(fmt.Sprintf("Last run: %s (ok)\n", s.lastAt.Format(time.DateTime)))
		}
		if next := s.Next(); !next.IsZero() {
			b.WriteString(fmt.Sprintf("Next run: %s\n", next.Format(time.DateTime)))
		}
		s.writeHistory(ctx, &b)
		return b.String()
	default:
		return "Commands:\n• /report latest metrics\n• /run start a run now\n• /status last and next run"
	}
}

func (s *Scheduler) writeHistory(ctx context.Context, b *strings.Builder) {
	if s.history == nil {
		return
	}
	runs, err := s.history.RecentRuns(ctx, s.symbol, statusRuns)
	if err != nil {
		s.log.Warn("load recent runs", zap.Error(err))
		return
	}
	if len(runs) == 0 {
		return
	}
	b.WriteString("\nRecent runs:\n")
	for _, r := range runs {
		line := fmt.Sprintf("• %s %s (%d obs)", r.RanAt.Format(time.DateTime), html.EscapeString(r.Provider), r.Observations)
		for _, m := range r.Metrics {
			if m.Name == model.MetricSharpeRatio {
				line += fmt.Sprintf(" Sharpe %.2f", m.Value)
			}
		}
		b.WriteString(line + "\n")
	}
}
