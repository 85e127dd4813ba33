package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MACDBOT_PAPER_FEE_RATE.
const EnvPrefix = "MACDBOT"

// ApplyEnv overlays environment variables onto cfg. Keys mirror the YAML paths with
// dots replaced by underscores, e.g. MACDBOT_STRATEGY_OVERRIDES_THRESHOLD.
func ApplyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *float64) {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}
	integer := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	override := func(key string, dst **float64) {
		if v.IsSet(key) {
			f := v.GetFloat64(key)
			*dst = &f
		}
	}

	str("app.env", &cfg.App.Env)
	str("app.log_level", &cfg.App.LogLevel)
	str("app.metrics_addr", &cfg.App.MetricsAddr)

	str("exchange.provider", &cfg.Exchange.Provider)
	str("exchange.base_url", &cfg.Exchange.BaseURL)
	str("exchange.ws_url", &cfg.Exchange.WSURL)
	str("exchange.symbol", &cfg.Exchange.Symbol)
	integer("exchange.interval", &cfg.Exchange.Interval)
	integer("exchange.limit", &cfg.Exchange.Limit)
	integer("exchange.poll_interval_ms", &cfg.Exchange.PollInterval)

	str("strategy.preset", &cfg.Strategy.Preset)
	integer("strategy.fast_span", &cfg.Strategy.FastSpan)
	integer("strategy.slow_span", &cfg.Strategy.SlowSpan)
	integer("strategy.signal_span", &cfg.Strategy.SignalSpan)
	o := &cfg.Strategy.Overrides
	override("strategy.overrides.threshold", &o.Threshold)
	override("strategy.overrides.strong_threshold", &o.StrongThreshold)
	override("strategy.overrides.strength_bonus", &o.StrengthBonus)
	override("strategy.overrides.strong_market_cutoff", &o.StrongMarketCutoff)
	if v.IsSet("strategy.overrides.zero_line_gate") {
		gate := v.GetBool("strategy.overrides.zero_line_gate")
		o.ZeroLineGate = &gate
	}

	num("paper.starting_cash", &cfg.Paper.StartingCash)
	num("paper.fee_rate", &cfg.Paper.FeeRate)
	num("paper.trade_notional", &cfg.Paper.TradeNotional)
	str("paper.trades_path", &cfg.Paper.TradesPath)

	num("risk.max_notional_per_trade", &cfg.Risk.MaxNotionalPerTrade)
	num("risk.min_notional", &cfg.Risk.MinNotional)
	num("risk.kill_switch_drawdown", &cfg.Risk.KillSwitchDrawdown)
}
