// Package signal standardizes payloads shared between data ingestion, strategy, and ledger layers.
package signal

import "time"

// Candle is one OHLCV bar supplied by a data source.
type Candle struct {
	Ts     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Direction labels a primitive cross event after confirmation.
type Direction string

const (
	Buy          Direction = "buy"
	Sell         Direction = "sell"
	BuyRejected  Direction = "buy_rejected"
	SellRejected Direction = "sell_rejected"
)

// Accepted reports whether the direction is an executable buy or sell.
func (d Direction) Accepted() bool { return d == Buy || d == Sell }

// Rejected reports whether the direction is a rejected primitive.
func (d Direction) Rejected() bool { return d == BuyRejected || d == SellRejected }

// Side maps the direction to the side that was (or would have been) traded.
func (d Direction) Side() Direction {
	switch d {
	case BuyRejected:
		return Buy
	case SellRejected:
		return Sell
	default:
		return d
	}
}

// Context summarizes the market regime around an event. It is informational only.
type Context struct {
	Trend      string  `json:"trend"`      // bullish|bearish|sideways|unknown
	Volatility string  `json:"volatility"` // high|normal|low
	Strength   float64 `json:"strength"`
}

// Event is a confirmed or rejected MACD cross. Events are never mutated after creation.
type Event struct {
	Ts            time.Time `json:"ts"`
	Price         float64   `json:"price"`
	Direction     Direction `json:"direction"`
	TradeSequence int       `json:"trade_sequence"`
	Score         float64   `json:"confirmation_score"`
	Threshold     float64   `json:"threshold_used"`
	Reasons       []string  `json:"reasons"`
	MACD          float64   `json:"macd"`
	MACDSignal    float64   `json:"macd_signal"`
	MACDHist      float64   `json:"macd_hist"`
	Context       Context   `json:"market_context"`
}

// Tick is a last-trade price update from a streaming source.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
	Ts     time.Time `json:"ts"`
}
