// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"macdbot-go/internal/indicator"
	"macdbot-go/internal/risk"
	"macdbot-go/internal/strategy"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Exchange describes where candles and prices come from.
type Exchange struct {
	Provider     string `yaml:"provider"` // stub|max
	BaseURL      string `yaml:"base_url"`
	WSURL        string `yaml:"ws_url"`
	Symbol       string `yaml:"symbol"`
	Interval     int    `yaml:"interval"` // candle period in minutes
	Limit        int    `yaml:"limit"`
	PollInterval int    `yaml:"poll_interval_ms"`
}

// Period is the candle interval as a duration.
func (e Exchange) Period() time.Duration { return time.Duration(e.Interval) * time.Minute }

// Poll is the polling cadence as a duration.
func (e Exchange) Poll() time.Duration { return time.Duration(e.PollInterval) * time.Millisecond }

// Overrides adjust a strategy preset. Unset fields keep the preset value.
type Overrides struct {
	Threshold          *float64 `yaml:"threshold,omitempty"`
	StrongThreshold    *float64 `yaml:"strong_threshold,omitempty"`
	StrengthBonus      *float64 `yaml:"strength_bonus,omitempty"`
	StrongMarketCutoff *float64 `yaml:"strong_market_cutoff,omitempty"`
	ZeroLineGate       *bool    `yaml:"zero_line_gate,omitempty"`
}

// Strategy selects the scoring preset and MACD spans.
type Strategy struct {
	Preset     string    `yaml:"preset"`
	FastSpan   int       `yaml:"fast_span"`
	SlowSpan   int       `yaml:"slow_span"`
	SignalSpan int       `yaml:"signal_span"`
	Overrides  Overrides `yaml:"overrides"`
}

// Paper captures paper-trading account settings.
type Paper struct {
	StartingCash  float64 `yaml:"starting_cash"`
	FeeRate       float64 `yaml:"fee_rate"`
	TradeNotional float64 `yaml:"trade_notional"`
	TradesPath    string  `yaml:"trades_path"`
}

// Risk encodes guard-rails in front of the ledger.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
	MinNotional         float64 `yaml:"min_notional"`
	KillSwitchDrawdown  float64 `yaml:"kill_switch_drawdown"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Exchange Exchange `yaml:"exchange"`
	Strategy Strategy `yaml:"strategy"`
	Paper    Paper    `yaml:"paper"`
	Risk     Risk     `yaml:"risk"`
}

// Default returns a complete configuration for a local stub backtest.
func Default() Config {
	p := indicator.DefaultParams()
	return Config{
		App: App{Name: "macdbot", Env: "dev", MetricsAddr: ":9102", LogLevel: "info"},
		Exchange: Exchange{
			Provider:     "stub",
			BaseURL:      "https://max-api.maicoin.com",
			WSURL:        "wss://max-stream.maicoin.com/ws",
			Symbol:       "btctwd",
			Interval:     60,
			Limit:        400,
			PollInterval: 60_000,
		},
		Strategy: Strategy{
			Preset:     strategy.SmartBalanced,
			FastSpan:   p.FastSpan,
			SlowSpan:   p.SlowSpan,
			SignalSpan: p.SignalSpan,
		},
		Paper: Paper{
			StartingCash:  100_000,
			FeeRate:       0.0015,
			TradeNotional: 10_000,
			TradesPath:    "data/trades.jsonl",
		},
		Risk: Risk{MaxNotionalPerTrade: 10_000, MinNotional: 1_000, KillSwitchDrawdown: 0.3},
	}
}

// Load reads a YAML file from disk over Default.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Paper.FeeRate < 0 || c.Paper.FeeRate >= 1 {
		errs = append(errs, fmt.Errorf("paper.fee_rate %g must be in [0, 1)", c.Paper.FeeRate))
	}
	if c.Paper.StartingCash <= 0 {
		errs = append(errs, fmt.Errorf("paper.starting_cash %g must be positive", c.Paper.StartingCash))
	}
	if c.Paper.TradeNotional <= 0 {
		errs = append(errs, fmt.Errorf("paper.trade_notional %g must be positive", c.Paper.TradeNotional))
	}
	if _, err := strategy.Build(c.Strategy.Preset); err != nil {
		errs = append(errs, err)
	}
	if s := c.Strategy; s.FastSpan < 0 || s.SlowSpan < 0 || s.SignalSpan < 0 || (s.FastSpan > 0 && s.SlowSpan > 0 && s.FastSpan >= s.SlowSpan) {
		errs = append(errs, fmt.Errorf("strategy spans %d/%d/%d invalid", s.FastSpan, s.SlowSpan, s.SignalSpan))
	}
	if c.Risk.KillSwitchDrawdown < 0 || c.Risk.KillSwitchDrawdown >= 1 {
		errs = append(errs, fmt.Errorf("risk.kill_switch_drawdown %g must be in [0, 1)", c.Risk.KillSwitchDrawdown))
	}
	switch c.Exchange.Provider {
	case "stub", "max":
	default:
		errs = append(errs, fmt.Errorf("exchange.provider %q unknown", c.Exchange.Provider))
	}
	return errors.Join(errs...)
}

// IndicatorParams returns indicator settings with the configured MACD spans.
func (s Strategy) IndicatorParams() indicator.Params {
	p := indicator.DefaultParams()
	if s.FastSpan > 0 {
		p.FastSpan = s.FastSpan
	}
	if s.SlowSpan > 0 {
		p.SlowSpan = s.SlowSpan
	}
	if s.SignalSpan > 0 {
		p.SignalSpan = s.SignalSpan
	}
	return p
}

// Scoring builds the configured preset with overrides applied.
func (s Strategy) Scoring() (strategy.Config, error) {
	cfg, err := strategy.Build(s.Preset)
	if err != nil {
		return strategy.Config{}, err
	}
	o := s.Overrides
	return cfg.WithOverrides(strategy.Overrides{
		Threshold:       o.Threshold,
		StrongThreshold: o.StrongThreshold,
		StrengthBonus:   o.StrengthBonus,
		StrongCutoff:    o.StrongMarketCutoff,
		ZeroLineGate:    o.ZeroLineGate,
	}), nil
}

// Limits converts the risk section into ledger guard rails.
func (c *Config) Limits() risk.Limits {
	return risk.Limits{
		MaxNotionalPerTrade: c.Risk.MaxNotionalPerTrade,
		MinNotional:         c.Risk.MinNotional,
		KillSwitchDrawdown:  c.Risk.KillSwitchDrawdown,
		StartingCash:        c.Paper.StartingCash,
	}
}
