// Package scan walks indicator rows in time order, detects MACD crosses and
// confirms them into alternating buy/sell events.
package scan

import (
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	"macdbot-go/internal/indicator"
	"macdbot-go/internal/metrics"
	"macdbot-go/internal/signal"
	"macdbot-go/internal/strategy"
)

const (
	reasonHolding = "position already open"
	reasonFlat    = "no open position"
)

// Option customises an Engine.
type Option func(*Engine)

// WithLogger attaches a logger. The default is silent.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithSymbol labels log lines and metrics.
func WithSymbol(symbol string) Option {
	return func(e *Engine) { e.symbol = symbol }
}

// WithMinHistory skips the first n rows. Callers pass indicator.Params.MinHistory;
// without it the engine skips the default slow span.
func WithMinHistory(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.minHistory = n
		}
	}
}

// WithOutOfStateEvents controls whether a cross that the position state cannot take
// (a bullish cross while long, a bearish one while flat) is still reported as a
// rejected event. It is on by default.
func WithOutOfStateEvents(on bool) Option {
	return func(e *Engine) { e.outOfState = on }
}

// Engine turns indicator rows into signal events. An Engine holds configuration
// only, so one Engine may scan many series, including concurrently.
type Engine struct {
	cfg        strategy.Config
	scorer     *strategy.Scorer
	log        zerolog.Logger
	symbol     string
	minHistory int
	outOfState bool
}

// NewEngine builds an engine for a scoring preset.
func NewEngine(cfg strategy.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		scorer:     strategy.NewScorer(cfg),
		log:        zerolog.Nop(),
		minHistory: indicator.DefaultParams().SlowSpan,
		outOfState: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the scoring preset.
func (e *Engine) Config() strategy.Config { return e.cfg }

// Scan lazily yields an event for every primitive cross in rows. Each iteration
// starts flat with trade sequence zero, so ranging twice gives identical events.
func (e *Engine) Scan(rows []indicator.Row) iter.Seq[signal.Event] {
	return e.ScanFrom(rows, 0, PositionState{})
}

// ScanFrom resumes a scan at row from with a known position state. Earlier rows
// only serve as the previous bar of the first cross check.
func (e *Engine) ScanFrom(rows []indicator.Row, from int, start PositionState) iter.Seq[signal.Event] {
	return func(yield func(signal.Event) bool) {
		state := start
		for i := max(1, e.minHistory, from); i < len(rows); i++ {
			ev, ok := e.step(rows, i, &state)
			if !ok {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// step evaluates one candle. Panics are recovered and count as no signal.
func (e *Engine) step(rows []indicator.Row, i int, state *PositionState) (ev signal.Event, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.ScanErrors.Inc()
			e.log.Error().Str("symbol", e.symbol).Int("index", i).Time("ts", rows[i].Ts).
				Str("err", fmt.Sprint(rec)).Msg("candle evaluation failed")
			ev, ok = signal.Event{}, false
		}
	}()

	prev, cur := rows[i-1], rows[i]
	if !strategy.Ready(cur, e.cfg.Requires) {
		return signal.Event{}, false
	}

	var side signal.Direction
	switch {
	case e.cfg.Cross.Bullish(prev, cur):
		side = signal.Buy
	case e.cfg.Cross.Bearish(prev, cur):
		side = signal.Sell
	default:
		return signal.Event{}, false
	}

	allowed := state.Accepts(side)
	if !allowed && !e.outOfState {
		return signal.Event{}, false
	}

	res := e.scorer.Score(cur, side)
	ev = signal.Event{
		Ts:         cur.Ts,
		Price:      cur.Close,
		Score:      res.Score,
		Threshold:  res.Threshold,
		Reasons:    res.Reasons,
		MACD:       cur.MACD,
		MACDSignal: cur.MACDSignal,
		MACDHist:   cur.MACDHist,
		Context:    strategy.AnalyzeContext(rows, i),
	}
	switch {
	case !allowed:
		ev.Direction = rejected(side)
		reason := reasonHolding
		if side == signal.Sell {
			reason = reasonFlat
		}
		ev.Reasons = append(ev.Reasons, reason)
	case res.Passed:
		ev.Direction = side
		ev.TradeSequence = state.Apply(side)
	default:
		ev.Direction = rejected(side)
	}

	e.record(ev, res.Err)
	return ev, true
}

func (e *Engine) record(ev signal.Event, scoreErr error) {
	metrics.SignalsTotal.WithLabelValues(e.symbol, string(ev.Direction)).Inc()
	metrics.ConfirmationScore.WithLabelValues(string(ev.Direction.Side())).Observe(ev.Score)

	var entry *zerolog.Event
	if ev.Direction.Accepted() {
		entry = e.log.Info()
	} else {
		entry = e.log.Debug()
	}
	if scoreErr != nil {
		entry = e.log.Warn().Err(scoreErr)
	}
	entry.Str("symbol", e.symbol).
		Str("direction", string(ev.Direction)).
		Int("seq", ev.TradeSequence).
		Float64("price", ev.Price).
		Float64("score", ev.Score).
		Float64("threshold", ev.Threshold).
		Strs("reasons", ev.Reasons).
		Msg("macd cross")
}

func rejected(side signal.Direction) signal.Direction {
	if side == signal.Sell {
		return signal.SellRejected
	}
	return signal.BuyRejected
}
