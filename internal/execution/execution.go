// Package execution mirrors filled paper trades as venue orders.
package execution

import (
	"fmt"
	"strings"
	"sync"

	"macdbot-go/internal/metrics"
	"macdbot-go/internal/paper"
	"macdbot-go/internal/signal"

	"github.com/rs/zerolog"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy opens the long position.
	Buy Side = "BUY"
	// Sell closes it.
	Sell Side = "SELL"
)

// Order represents a placement request the executor can process.
type Order struct {
	ClientID string
	Symbol   string
	Side     Side
	Qty      float64
	Price    float64 // 0 for market
}

// OrderFromTrade builds the order that would have produced rec on a venue.
func OrderFromTrade(rec paper.TradeRecord) (Order, error) {
	var side Side
	switch rec.Action {
	case signal.Buy:
		side = Buy
	case signal.Sell:
		side = Sell
	default:
		return Order{}, fmt.Errorf("trade %s: action %q is not an order side", rec.ID, rec.Action)
	}
	return Order{
		ClientID: rec.ID,
		Symbol:   strings.ToUpper(rec.Symbol),
		Side:     side,
		Qty:      rec.Quantity,
		Price:    rec.Price,
	}, nil
}

// Executor implements a logger-backed submitter for orders. It never talks to a
// venue; the paper ledger is the source of truth.
type Executor struct {
	log       zerolog.Logger
	mu        sync.Mutex
	submitted []Order
}

// NewExecutor wraps a zerolog logger for order submissions.
func NewExecutor(log zerolog.Logger) *Executor { return &Executor{log: log} }

// Submit logs the order request and keeps it for Submitted.
func (executor *Executor) Submit(order Order) error {
	if order.Qty <= 0 {
		return fmt.Errorf("order %s: quantity %g", order.ClientID, order.Qty)
	}
	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	executor.log.Info().Str("id", order.ClientID).Str("sym", order.Symbol).Str("side", string(order.Side)).Float64("qty", order.Qty).Float64("px", order.Price).Msg("submit order (paper)")
	executor.mu.Lock()
	executor.submitted = append(executor.submitted, order)
	executor.mu.Unlock()
	return nil
}

// Record satisfies paper.TradeRecorder so the executor can follow an account.
func (executor *Executor) Record(rec paper.TradeRecord) {
	order, err := OrderFromTrade(rec)
	if err == nil {
		err = executor.Submit(order)
	}
	if err != nil {
		executor.log.Error().Err(err).Msg("order mirror failed")
	}
}

// Submitted returns a copy of every accepted order in submission order.
func (executor *Executor) Submitted() []Order {
	executor.mu.Lock()
	defer executor.mu.Unlock()
	return append([]Order(nil), executor.submitted...)
}
