package strategy

import "macdbot-go/internal/indicator"

// CrossRule detects primitive MACD crosses between two consecutive rows.
type CrossRule struct {
	// ZeroLineGate additionally requires both lines below zero for a bullish
	// cross and above zero for a bearish one.
	ZeroLineGate bool
}

// Bullish reports a MACD line crossing up through its signal line.
func (c CrossRule) Bullish(prev, cur indicator.Row) bool {
	if !macdReady(prev) || !macdReady(cur) {
		return false
	}
	if !(prev.MACDHist < 0 && prev.MACD <= prev.MACDSignal && cur.MACD > cur.MACDSignal) {
		return false
	}
	return !c.ZeroLineGate || (cur.MACD < 0 && cur.MACDSignal < 0)
}

// Bearish reports a MACD line crossing down through its signal line.
func (c CrossRule) Bearish(prev, cur indicator.Row) bool {
	if !macdReady(prev) || !macdReady(cur) {
		return false
	}
	if !(prev.MACDHist > 0 && prev.MACD >= prev.MACDSignal && cur.MACD < cur.MACDSignal) {
		return false
	}
	return !c.ZeroLineGate || (cur.MACD > 0 && cur.MACDSignal > 0)
}

func macdReady(r indicator.Row) bool {
	return indicator.Valid(r.MACD) && indicator.Valid(r.MACDSignal) && indicator.Valid(r.MACDHist)
}
