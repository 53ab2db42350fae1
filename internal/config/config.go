package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"RiskForecast/internal/forecast"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SFRA"

// Providers accepted by data_source.provider.
const (
	ProviderYahoo  = "yahoo"
	ProviderAlpaca = "alpaca"
	ProviderMock   = "mock"
)

// Config holds all application configuration.
type Config struct {
	Symbol       string  `yaml:"symbol"`
	StartDate    string  `yaml:"start_date"`
	HorizonDays  int     `yaml:"horizon_days"`
	RiskFreeRate float64 `yaml:"risk_free_rate"`

	Output struct {
		ChartPath   string `yaml:"chart_path"`
		ForecastCSV string `yaml:"forecast_csv"`
	} `yaml:"output"`
	DataSource struct {
		// Provider is yahoo, alpaca or mock. Empty picks alpaca when keys are
		// set and yahoo otherwise.
		Provider string `yaml:"provider"`
		Alpaca   struct {
			KeyID     string `yaml:"key_id"`
			SecretKey string `yaml:"secret_key"`
			// Feed is iex (free tier) or sip.
			Feed string `yaml:"feed"`
		} `yaml:"alpaca"`
	} `yaml:"data_source"`
	Forecast struct {
		YearlySeasonality     bool    `yaml:"yearly_seasonality"`
		WeeklySeasonality     bool    `yaml:"weekly_seasonality"`
		DailySeasonality      bool    `yaml:"daily_seasonality"`
		ChangepointPriorScale float64 `yaml:"changepoint_prior_scale"`
		IntervalWidth         float64 `yaml:"interval_width"`
	} `yaml:"forecast"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// envOverrides lists the variables read on top of the YAML file. Pointers
// stay nil when the variable is unset. Explicit envconfig names are also
// read without the prefix as a fallback.
type envOverrides struct {
	Symbol         *string  `split_words:"true"`
	StartDate      *string  `split_words:"true"`
	HorizonDays    *int     `split_words:"true"`
	RiskFreeRate   *float64 `split_words:"true"`
	ChartPath      *string  `split_words:"true"`
	ForecastCSV    *string  `split_words:"true"`
	Provider       *string  `split_words:"true"`
	AlpacaKeyID    *string  `envconfig:"APCA_API_KEY_ID"`
	AlpacaSecret   *string  `envconfig:"APCA_API_SECRET_KEY"`
	AlpacaFeed     *string  `split_words:"true"`
	BotToken       *string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID         *string  `envconfig:"TELEGRAM_CHAT_ID"`
	SQLitePath     *string  `envconfig:"SQLITE_PATH"`
	Proxy          *string  `envconfig:"HTTPS_PROXY"`
	ScheduleCron   *string  `split_words:"true"`
	RunOnStart     *bool    `split_words:"true"`
	LogLevel       *string  `split_words:"true"`
	LogDevelopment *bool    `split_words:"true"`
}

// Default returns the configuration used when neither the file nor the
// environment sets a value.
func Default() *Config {
	cfg := &Config{
		Symbol:       "AAPL",
		StartDate:    "2015-01-01",
		HorizonDays:  180,
		RiskFreeRate: 0.05,
	}
	fo := forecast.DefaultOptions()
	cfg.Forecast.YearlySeasonality = fo.YearlySeasonality
	cfg.Forecast.WeeklySeasonality = fo.WeeklySeasonality
	cfg.Forecast.DailySeasonality = fo.DailySeasonality
	cfg.Forecast.ChangepointPriorScale = fo.ChangepointPriorScale
	cfg.Forecast.IntervalWidth = fo.IntervalWidth
	cfg.DataSource.Alpaca.Feed = "iex"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	// Derived defaults
	if cfg.Output.ChartPath == "" {
		cfg.Output.ChartPath = fmt.Sprintf("output/%s_forecast.png", sanitize(cfg.Symbol))
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderYahoo
		if cfg.DataSource.Alpaca.KeyID != "" && cfg.DataSource.Alpaca.SecretKey != "" {
			cfg.DataSource.Provider = ProviderAlpaca
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}
	setString(&c.Symbol, env.Symbol)
	setString(&c.StartDate, env.StartDate)
	if env.HorizonDays != nil {
		c.HorizonDays = *env.HorizonDays
	}
	if env.RiskFreeRate != nil {
		c.RiskFreeRate = *env.RiskFreeRate
	}
	setString(&c.Output.ChartPath, env.ChartPath)
	setString(&c.Output.ForecastCSV, env.ForecastCSV)
	setString(&c.DataSource.Provider, env.Provider)
	setString(&c.DataSource.Alpaca.KeyID, env.AlpacaKeyID)
	setString(&c.DataSource.Alpaca.SecretKey, env.AlpacaSecret)
	setString(&c.DataSource.Alpaca.Feed, env.AlpacaFeed)
	setString(&c.Telegram.BotToken, env.BotToken)
	setString(&c.Telegram.ChatID, env.ChatID)
	setString(&c.Database.SQLitePath, env.SQLitePath)
	setString(&c.Proxy, env.Proxy)
	setString(&c.Schedule.Cron, env.ScheduleCron)
	if env.RunOnStart != nil {
		c.Schedule.RunOnStart = *env.RunOnStart
	}
	setString(&c.Log.Level, env.LogLevel)
	if env.LogDevelopment != nil {
		c.Log.Development = *env.LogDevelopment
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func sanitize(symbol string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "^", "").Replace(symbol)
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Symbol) == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	if start, err := c.Start(); err != nil {
		errs = append(errs, fmt.Errorf("start_date: %w", err))
	} else if !start.Before(time.Now()) {
		errs = append(errs, fmt.Errorf("start_date %s is in the future", c.StartDate))
	}
	if c.HorizonDays <= 0 {
		errs = append(errs, errors.New("horizon_days must be positive"))
	}
	if math.IsNaN(c.RiskFreeRate) || math.IsInf(c.RiskFreeRate, 0) {
		errs = append(errs, errors.New("risk_free_rate must be finite"))
	}
	if w := c.Forecast.IntervalWidth; !(w > 0 && w < 1) {
		errs = append(errs, errors.New("forecast.interval_width must be in (0, 1)"))
	}
	if c.Forecast.ChangepointPriorScale <= 0 {
		errs = append(errs, errors.New("forecast.changepoint_prior_scale must be positive"))
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderAlpaca:
		if c.DataSource.Alpaca.KeyID == "" || c.DataSource.Alpaca.SecretKey == "" {
			errs = append(errs, errors.New("data_source.alpaca key_id and secret_key are required for the alpaca provider"))
		}
		if f := c.DataSource.Alpaca.Feed; f != "" && f != "iex" && f != "sip" {
			errs = append(errs, fmt.Errorf("data_source.alpaca.feed %q is not one of iex, sip", f))
		}
	default:
		errs = append(errs, fmt.Errorf("data_source.provider %q is not one of yahoo, alpaca, mock", c.DataSource.Provider))
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		errs = append(errs, errors.New("telegram.bot_token and telegram.chat_id must be set together"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Start parses StartDate as a UTC calendar day.
func (c *Config) Start() (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, c.StartDate, time.UTC)
}

// TelegramEnabled reports whether reports should also go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ForecastOptions returns the model options with the configured overrides.
func (c *Config) ForecastOptions() forecast.Options {
	opts := forecast.DefaultOptions()
	opts.YearlySeasonality = c.Forecast.YearlySeasonality
	opts.WeeklySeasonality = c.Forecast.WeeklySeasonality
	opts.DailySeasonality = c.Forecast.DailySeasonality
	opts.ChangepointPriorScale = c.Forecast.ChangepointPriorScale
	opts.IntervalWidth = c.Forecast.IntervalWidth
	return opts
}
