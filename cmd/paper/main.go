package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"macdbot-go/internal/backtest"
	"macdbot-go/internal/config"
	"macdbot-go/internal/exchange"
	"macdbot-go/internal/execution"
	"macdbot-go/internal/metrics"
	"macdbot-go/internal/paper"
	"macdbot-go/internal/scan"
	sig "macdbot-go/internal/signal"
	"macdbot-go/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to YAML config")
	replay := flag.Bool("replay", false, "trade the signals in the first window too")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		def := config.Default()
		cfg, err = &def, nil
	}
	log := util.NewLogger("info")
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	config.ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	log = util.NewLogger(cfg.App.LogLevel).With().Str("symbol", cfg.Exchange.Symbol).Logger()

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

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
		exchange.WithPollInterval(cfg.Exchange.Poll()),
	)
	windows := make(chan []sig.Candle, 4)
	go func() {
		if err := feed.Run(ctx, windows); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	var prices *exchange.PriceBoard
	if cfg.Exchange.Provider == exchange.ProviderMAX {
		prices = exchange.NewPriceBoard(2*time.Minute, exchange.NewMAXClient(cfg.Exchange.BaseURL, log))
		ticks := make(chan sig.Tick, 256)
		stream := exchange.NewTickerStream(cfg.Exchange.WSURL, []string{feed.Symbol()}, log)
		go func() {
			if err := stream.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("ticker stream stopped")
			}
		}()
		go prices.Consume(ctx, ticks)
	} else {
		prices = exchange.NewPriceBoard(0, exchange.NewStub(exchange.WithStubInterval(cfg.Exchange.Period())))
	}

	runID := uuid.NewString()
	recorder, err := paper.NewJSONLRecorder(cfg.Paper.TradesPath, runID)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Paper.TradesPath).Msg("open trade log")
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Error().Err(err).Msg("close trade log")
		}
	}()

	account := paper.NewAccount(cfg.Paper.StartingCash, cfg.Paper.FeeRate,
		paper.WithSymbol(feed.Symbol()),
		paper.WithNotional(cfg.Paper.TradeNotional),
		paper.WithGuard(cfg.Limits()),
		paper.WithRecorder(recorder),
		paper.WithRecorder(execution.NewExecutor(log)),
		paper.WithLogger(log),
	)
	indicators := cfg.Strategy.IndicatorParams()
	engine := scan.NewEngine(scoring, scan.WithLogger(log), scan.WithSymbol(feed.Symbol()),
		scan.WithMinHistory(indicators.MinHistory()))
	sessionOpts := []backtest.SessionOption{backtest.WithSessionLogger(log), backtest.WithSessionEvents(recorder)}
	if *replay {
		sessionOpts = append(sessionOpts, backtest.WithReplayFirstWindow())
	}
	session := backtest.NewSession(account, engine, indicators, sessionOpts...)

	log.Info().Str("run", runID).Str("preset", scoring.Name).Str("provider", cfg.Exchange.Provider).Msg("paper engine started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case candles := <-windows:
			events, err := session.Step(candles)
			if err != nil {
				log.Error().Err(err).Msg("window rejected")
				continue
			}

			px, err := prices.Price(ctx, feed.Symbol())
			if err != nil {
				px = candles[len(candles)-1].Close
				log.Warn().Err(err).Msg("no live price, marking at last close")
			}
			st := account.Status(map[string]float64{feed.Symbol(): px})
			log.Info().Int("events", len(events)).Float64("price", px).Float64("cash", st.Cash).
				Float64("value", st.TotalValue).Float64("return_pct", st.ReturnPct).
				Time("candle", session.Last()).Msg("window processed")
		}
	}
}
