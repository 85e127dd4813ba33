// Command backtest replays the latest candle window through the configured preset
// and prints a summary.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"macdbot-go/internal/backtest"
	"macdbot-go/internal/config"
	"macdbot-go/internal/exchange"
	"macdbot-go/internal/metrics"
	"macdbot-go/internal/paper"
	"macdbot-go/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to YAML config")
	preset := flag.String("preset", "", "override strategy.preset")
	symbol := flag.String("symbol", "", "override exchange.symbol")
	provider := flag.String("provider", "", "override exchange.provider (stub|max)")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	record := flag.Bool("record", false, "append trades and events to paper.trades_path")
	maxTrades := flag.Int("trades", 20, "trade rows to show (0 = all)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *preset != "" {
		cfg.Strategy.Preset = *preset
	}
	if *symbol != "" {
		cfg.Exchange.Symbol = *symbol
	}
	if *provider != "" {
		cfg.Exchange.Provider = *provider
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config:\n%v\n", err)
		os.Exit(1)
	}

	log := util.NewConsoleLogger(os.Stderr, cfg.App.LogLevel)
	if cfg.App.MetricsAddr != "" && cfg.App.Env != "dev" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scoring, err := cfg.Strategy.Scoring()
	if err != nil {
		log.Fatal().Err(err).Msg("strategy")
	}
	feed := exchange.NewFeed(cfg.Exchange.Provider, cfg.Exchange.Symbol, log,
		exchange.WithBaseURL(cfg.Exchange.BaseURL),
		exchange.WithInterval(cfg.Exchange.Period()),
		exchange.WithLimit(cfg.Exchange.Limit),
	)

	runID := uuid.NewString()
	opts := []backtest.Option{
		backtest.WithLogger(log),
		backtest.WithRunID(func() string { return runID }),
	}
	if *record {
		rec, err := paper.NewJSONLRecorder(cfg.Paper.TradesPath, runID)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Paper.TradesPath).Msg("open trade log")
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Error().Err(err).Msg("close trade log")
			}
		}()
		opts = append(opts, backtest.WithTradeRecorder(rec), backtest.WithEventRecorder(rec))
	}

	res, err := backtest.NewRunner(opts...).Run(ctx, feed, backtest.Params{
		Indicators:   cfg.Strategy.IndicatorParams(),
		Strategy:     scoring,
		StartingCash: cfg.Paper.StartingCash,
		FeeRate:      cfg.Paper.FeeRate,
		Notional:     cfg.Paper.TradeNotional,
		Guard:        cfg.Limits(),
	})
	if err != nil {
		log.Error().Err(err).Msg("backtest failed")
		return
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Error().Err(err).Msg("encode result")
		}
		return
	}
	fmt.Print(backtest.Report(res, *maxTrades))
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		def := config.Default()
		cfg, err = &def, nil
	}
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg)
	return cfg, nil
}
