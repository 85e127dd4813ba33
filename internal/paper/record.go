package paper

import (
	"fmt"
	"time"

	"macdbot-go/internal/signal"
)

// TradeRecord is one executed ledger mutation. Records are append-only.
type TradeRecord struct {
	ID            string           `json:"id"`
	Ts            time.Time        `json:"ts"`
	Action        signal.Direction `json:"action"`
	Symbol        string           `json:"symbol"`
	Price         float64          `json:"price"`
	Quantity      float64          `json:"quantity"`
	GrossAmount   float64          `json:"gross_amount"`
	FeeRate       float64          `json:"fee_rate"`
	FeeAmount     float64          `json:"fee_amount"`
	NetAmount     float64          `json:"net_amount"`
	BalanceAfter  float64          `json:"balance_after"`
	HoldingsAfter float64          `json:"holdings_after"`
	TradeSequence int              `json:"trade_sequence,omitempty"`
	// Profit is set on sells: net proceeds minus the paired buy's total cost.
	Profit float64 `json:"profit,omitempty"`
}

// RejectReason names why the ledger refused an operation.
type RejectReason string

const (
	AlreadyHolding    RejectReason = "already_holding"
	InsufficientFunds RejectReason = "insufficient_funds"
	NoPosition        RejectReason = "no_position"
	InvalidPrice      RejectReason = "invalid_price"
	InvalidNotional   RejectReason = "invalid_notional"
	NotTradable       RejectReason = "not_tradable"
	RiskLimit         RejectReason = "risk_limit"
)

// Rejection is an expected refusal. It is a value, not an error: the account is
// unchanged.
type Rejection struct {
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail,omitempty"`
}

func (r Rejection) String() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

func reject(reason RejectReason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
