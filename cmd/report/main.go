package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"RiskForecast/internal/collector"
	"RiskForecast/internal/config"
	"RiskForecast/internal/logger"
	"RiskForecast/internal/notifier"
	"RiskForecast/internal/pipeline"
	"RiskForecast/internal/recorder"
	"RiskForecast/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("run failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderAlpaca:
		fetcher = collector.NewAlpacaFetcher(cfg.DataSource.Alpaca.KeyID, cfg.DataSource.Alpaca.SecretKey, cfg.DataSource.Alpaca.Feed)
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{Price: 100}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Info("data source", zap.String("provider", fetcher.Name()), zap.String("symbol", cfg.Symbol))

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	deps := pipeline.Deps{
		Fetcher:  fetcher,
		Recorder: rec,
		Log:      log,
	}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		deps.Notifier = tn
	}

	runOnce := func(ctx context.Context) (*pipeline.Result, error) {
		return pipeline.Run(ctx, cfg, deps)
	}

	if cfg.Schedule.Cron == "" {
		_, err := runOnce(ctx)
		return err
	}

	sched := scheduler.NewScheduler(ctx, runOnce, log)
	sched.SetHistory(rec, cfg.Symbol)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}
	if cfg.Schedule.RunOnStart {
		log.Info("run_on_start enabled, executing pipeline now")
		go sched.RunNow()
	}

	log.Info("scheduler running, press Ctrl+C to stop", zap.String("cron", cfg.Schedule.Cron))
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return nil
}
