package paper

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"macdbot-go/internal/metrics"
	"macdbot-go/internal/signal"
)

// DefaultFeeRate is the taker fee applied on both legs.
const DefaultFeeRate = 0.0015

const epsilon = 1e-9

// TradeRecorder receives every executed trade.
type TradeRecorder interface {
	Record(TradeRecord)
}

// Guard vets a buy before the account commits cash. equity is cash plus open
// positions at cost.
type Guard interface {
	AllowBuy(notional, equity float64) (ok bool, reason string)
}

type openPosition struct {
	Qty      float64
	Cost     float64
	Sequence int
}

// Account is a single-position-per-symbol paper ledger. A buy spends a fixed
// notional plus fee; a sell always closes the whole holding.
type Account struct {
	mu           sync.Mutex
	startingCash float64
	cash         float64
	feeRate      float64
	notional     float64
	symbol       string
	positions    map[string]openPosition
	realized     float64
	wins, losses int
	sequence     int

	ledger    *Ledger
	recorders []TradeRecorder
	guard     Guard
	newID     func() string
	log       zerolog.Logger
}

// Option customises an Account.
type Option func(*Account)

// WithNotional sets the amount Apply spends per buy.
func WithNotional(n float64) Option { return func(a *Account) { a.notional = n } }

// WithSymbol sets the symbol Apply trades.
func WithSymbol(symbol string) Option { return func(a *Account) { a.symbol = symbol } }

// WithLedger stores trades in l instead of a private ledger.
func WithLedger(l *Ledger) Option { return func(a *Account) { a.ledger = l } }

// WithRecorder forwards every trade to r as well.
func WithRecorder(r TradeRecorder) Option {
	return func(a *Account) { a.recorders = append(a.recorders, r) }
}

// WithGuard installs pre-trade risk checks on buys.
func WithGuard(g Guard) Option { return func(a *Account) { a.guard = g } }

// WithIDs replaces the trade ID generator.
func WithIDs(fn func() string) Option { return func(a *Account) { a.newID = fn } }

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option { return func(a *Account) { a.log = log } }

// NewAccount funds an account with startingCash. A negative feeRate falls back to
// DefaultFeeRate.
func NewAccount(startingCash, feeRate float64, opts ...Option) *Account {
	if feeRate < 0 {
		feeRate = DefaultFeeRate
	}
	a := &Account{
		startingCash: startingCash,
		cash:         startingCash,
		feeRate:      feeRate,
		notional:     10_000,
		symbol:       "btctwd",
		positions:    make(map[string]openPosition),
		newID:        func() string { return uuid.NewString() },
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.ledger == nil {
		a.ledger = NewLedger(0)
	}
	metrics.PaperCash.Set(a.cash)
	return a
}

// Apply executes an accepted signal event on the account symbol. Rejected events
// are refused with NotTradable.
func (a *Account) Apply(ev signal.Event) (TradeRecord, *Rejection) {
	switch ev.Direction {
	case signal.Buy:
		return a.buy(ev.Ts, a.symbol, ev.Price, a.notional, ev.TradeSequence)
	case signal.Sell:
		return a.Sell(ev.Ts, a.symbol, ev.Price)
	default:
		return a.rejected(reject(NotTradable, "direction %s", ev.Direction))
	}
}

// Buy opens a position worth notional at price, paying notional*(1+fee).
func (a *Account) Buy(ts time.Time, symbol string, price, notional float64) (TradeRecord, *Rejection) {
	return a.buy(ts, symbol, price, notional, 0)
}

func (a *Account) buy(ts time.Time, symbol string, price, notional float64, seq int) (TradeRecord, *Rejection) {
	if !(price > 0) {
		return a.rejected(reject(InvalidPrice, "price %g", price))
	}
	if !(notional > 0) {
		return a.rejected(reject(InvalidNotional, "notional %g", notional))
	}

	a.mu.Lock()
	if pos, ok := a.positions[symbol]; ok && pos.Qty > 0 {
		a.mu.Unlock()
		return a.rejected(reject(AlreadyHolding, "%s holds %g", symbol, pos.Qty))
	}
	fee := notional * a.feeRate
	total := notional + fee
	if a.cash+epsilon < total {
		cash := a.cash
		a.mu.Unlock()
		return a.rejected(reject(InsufficientFunds, "need %.2f, have %.2f", total, cash))
	}
	if a.guard != nil {
		if ok, why := a.guard.AllowBuy(notional, a.equityAtCost()); !ok {
			a.mu.Unlock()
			return a.rejected(reject(RiskLimit, "%s", why))
		}
	}
	if seq == 0 {
		seq = a.sequence + 1
	}
	a.sequence = max(a.sequence, seq)
	qty := notional / price
	a.cash -= total
	if a.cash < 0 {
		a.cash = 0
	}
	a.positions[symbol] = openPosition{Qty: qty, Cost: total, Sequence: seq}
	rec := TradeRecord{
		ID:            a.newID(),
		Ts:            ts,
		Action:        signal.Buy,
		Symbol:        symbol,
		Price:         price,
		Quantity:      qty,
		GrossAmount:   notional,
		FeeRate:       a.feeRate,
		FeeAmount:     fee,
		NetAmount:     total,
		BalanceAfter:  a.cash,
		HoldingsAfter: qty,
		TradeSequence: seq,
	}
	a.mu.Unlock()
	return a.commit(rec), nil
}

// Sell closes the whole position in symbol at price.
func (a *Account) Sell(ts time.Time, symbol string, price float64) (TradeRecord, *Rejection) {
	if !(price > 0) {
		return a.rejected(reject(InvalidPrice, "price %g", price))
	}

	a.mu.Lock()
	pos, ok := a.positions[symbol]
	if !ok || pos.Qty <= 0 {
		a.mu.Unlock()
		return a.rejected(reject(NoPosition, "%s is flat", symbol))
	}
	gross := pos.Qty * price
	fee := gross * a.feeRate
	net := gross - fee
	profit := net - pos.Cost
	a.cash += net
	a.realized += profit
	if profit > 0 {
		a.wins++
	} else {
		a.losses++
	}
	delete(a.positions, symbol)
	rec := TradeRecord{
		ID:            a.newID(),
		Ts:            ts,
		Action:        signal.Sell,
		Symbol:        symbol,
		Price:         price,
		Quantity:      pos.Qty,
		GrossAmount:   gross,
		FeeRate:       a.feeRate,
		FeeAmount:     fee,
		NetAmount:     net,
		BalanceAfter:  a.cash,
		HoldingsAfter: 0,
		TradeSequence: pos.Sequence,
		Profit:        profit,
	}
	a.mu.Unlock()
	return a.commit(rec), nil
}

func (a *Account) commit(rec TradeRecord) TradeRecord {
	a.ledger.Record(rec)
	for _, r := range a.recorders {
		r.Record(rec)
	}
	metrics.TradesTotal.WithLabelValues(rec.Symbol, string(rec.Action)).Inc()
	metrics.PaperCash.Set(rec.BalanceAfter)
	a.log.Info().Str("symbol", rec.Symbol).Str("action", string(rec.Action)).
		Int("seq", rec.TradeSequence).Float64("price", rec.Price).Float64("qty", rec.Quantity).
		Float64("net", rec.NetAmount).Float64("cash", rec.BalanceAfter).Float64("profit", rec.Profit).
		Msg("paper trade")
	return rec
}

func (a *Account) rejected(r *Rejection) (TradeRecord, *Rejection) {
	metrics.LedgerRejections.WithLabelValues(string(r.Reason)).Inc()
	a.log.Debug().Str("reason", string(r.Reason)).Str("detail", r.Detail).Msg("ledger rejected")
	return TradeRecord{}, r
}

// equityAtCost must be called with mu held.
func (a *Account) equityAtCost() float64 {
	eq := a.cash
	for _, pos := range a.positions {
		eq += pos.Cost
	}
	return eq
}

// Ledger returns the trade log backing the account.
func (a *Account) Ledger() *Ledger { return a.ledger }

// StartingCash returns the initial bankroll.
func (a *Account) StartingCash() float64 { return a.startingCash }

// FeeRate returns the per-leg fee.
func (a *Account) FeeRate() float64 { return a.feeRate }

// Symbol is the market Apply trades.
func (a *Account) Symbol() string { return a.symbol }

// Sequence is the highest trade sequence opened so far.
func (a *Account) Sequence() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sequence
}

// Cash reports the current cash balance.
func (a *Account) Cash() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// Holdings returns the units held in symbol.
func (a *Account) Holdings(symbol string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol].Qty
}
