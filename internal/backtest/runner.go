// Package backtest replays a candle window through the indicator, scan and paper
// ledger layers and reports what happened.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"macdbot-go/internal/indicator"
	"macdbot-go/internal/paper"
	"macdbot-go/internal/performance"
	"macdbot-go/internal/scan"
	"macdbot-go/internal/signal"
	"macdbot-go/internal/strategy"
)

// Fetcher supplies the candle window for one symbol. *exchange.Feed satisfies it.
type Fetcher interface {
	Symbol() string
	Fetch(ctx context.Context) ([]signal.Candle, error)
}

// EventRecorder receives every scan event, accepted or not.
type EventRecorder interface {
	RecordEvent(signal.Event)
}

// Params describes one run.
type Params struct {
	Symbol       string
	Indicators   indicator.Params
	Strategy     strategy.Config
	StartingCash float64
	FeeRate      float64
	Notional     float64
	Guard        paper.Guard
}

// Point is the account value right after a trade.
type Point struct {
	Ts     time.Time `json:"ts"`
	Equity float64   `json:"equity"`
}

// Refusal is an accepted event the ledger would not execute.
type Refusal struct {
	Event     signal.Event     `json:"event"`
	Rejection *paper.Rejection `json:"rejection"`
}

// Result is everything a run produced. It is never mutated after Run returns.
type Result struct {
	RunID       string              `json:"run_id"`
	Symbol      string              `json:"symbol"`
	Preset      string              `json:"preset"`
	From        time.Time           `json:"from"`
	To          time.Time           `json:"to"`
	Candles     int                 `json:"candles"`
	Events      []signal.Event      `json:"events"`
	Trades      []paper.TradeRecord `json:"trades"`
	Refusals    []Refusal           `json:"refusals,omitempty"`
	Equity      []Point             `json:"equity"`
	Signals     scan.Summary        `json:"signals"`
	Performance performance.Summary `json:"performance"`
	Status      paper.Status        `json:"status"`
}

// Runner wires the layers together. The zero value is not usable; call NewRunner.
type Runner struct {
	log       zerolog.Logger
	recorders []paper.TradeRecorder
	events    []EventRecorder
	newID     func() string
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger attaches a logger passed down to the engine and account.
func WithLogger(log zerolog.Logger) Option { return func(r *Runner) { r.log = log } }

// WithTradeRecorder forwards every executed trade to rec.
func WithTradeRecorder(rec paper.TradeRecorder) Option {
	return func(r *Runner) { r.recorders = append(r.recorders, rec) }
}

// WithEventRecorder forwards every scan event to rec.
func WithEventRecorder(rec EventRecorder) Option {
	return func(r *Runner) { r.events = append(r.events, rec) }
}

// WithRunID fixes the run identifier generator.
func WithRunID(fn func() string) Option { return func(r *Runner) { r.newID = fn } }

func NewRunner(opts ...Option) *Runner {
	r := &Runner{log: zerolog.Nop(), newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run fetches the window from src and replays it.
func (r *Runner) Run(ctx context.Context, src Fetcher, p Params) (Result, error) {
	candles, err := src.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", src.Symbol(), err)
	}
	if p.Symbol == "" {
		p.Symbol = src.Symbol()
	}
	return r.Replay(candles, p)
}

// Replay runs candles through a fresh account. The input slice is not modified.
func (r *Runner) Replay(candles []signal.Candle, p Params) (Result, error) {
	if len(candles) == 0 {
		return Result{}, errors.New("no candles to replay")
	}
	if p.Symbol == "" {
		return Result{}, errors.New("symbol is required")
	}
	rows, err := indicator.Compute(candles, p.Indicators)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		RunID:   r.newID(),
		Symbol:  p.Symbol,
		Preset:  p.Strategy.Name,
		From:    candles[0].Ts,
		To:      candles[len(candles)-1].Ts,
		Candles: len(candles),
	}
	log := r.log.With().Str("run", res.RunID).Str("symbol", p.Symbol).Logger()

	opts := []paper.Option{
		paper.WithSymbol(p.Symbol),
		paper.WithLogger(log),
	}
	if p.Notional > 0 {
		opts = append(opts, paper.WithNotional(p.Notional))
	}
	if p.Guard != nil {
		opts = append(opts, paper.WithGuard(p.Guard))
	}
	for _, rec := range r.recorders {
		opts = append(opts, paper.WithRecorder(rec))
	}
	account := paper.NewAccount(p.StartingCash, p.FeeRate, opts...)
	engine := scan.NewEngine(p.Strategy, scan.WithLogger(log), scan.WithSymbol(p.Symbol),
		scan.WithMinHistory(p.Indicators.MinHistory()))

	for ev := range engine.Scan(rows) {
		res.Events = append(res.Events, ev)
		for _, rec := range r.events {
			rec.RecordEvent(ev)
		}
		if !ev.Direction.Accepted() {
			continue
		}
		if _, rej := account.Apply(ev); rej != nil {
			res.Refusals = append(res.Refusals, Refusal{Event: ev, Rejection: rej})
			continue
		}
		st := account.Status(map[string]float64{p.Symbol: ev.Price})
		res.Equity = append(res.Equity, Point{Ts: ev.Ts, Equity: st.TotalValue})
	}

	res.Trades = account.Ledger().Snapshot()
	res.Signals = scan.Summarize(res.Events)
	res.Performance = performance.Summarize(res.Trades, res.Events)
	res.Status = account.Status(map[string]float64{p.Symbol: candles[len(candles)-1].Close})

	log.Info().Int("candles", res.Candles).Int("events", len(res.Events)).Int("trades", len(res.Trades)).
		Float64("profit", res.Performance.TotalProfit).Float64("value", res.Status.TotalValue).
		Msg("backtest finished")
	return res, nil
}
