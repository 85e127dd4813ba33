package risk

import "fmt"

// Limits are the pre-trade guard rails in front of the paper ledger. Zero values
// disable a limit.
type Limits struct {
	MaxNotionalPerTrade float64
	MinNotional         float64
	// KillSwitchDrawdown halts new buys once equity has fallen this fraction below
	// StartingCash.
	KillSwitchDrawdown float64
	StartingCash       float64
}

// Allow reports whether a single trade's notional is within bounds.
func (l Limits) Allow(notional float64) bool {
	if l.MaxNotionalPerTrade > 0 && notional > l.MaxNotionalPerTrade {
		return false
	}
	return notional >= l.MinNotional
}

// Halted reports whether the kill switch has tripped at equity.
func (l Limits) Halted(equity float64) bool {
	if l.KillSwitchDrawdown <= 0 || l.StartingCash <= 0 {
		return false
	}
	return equity < l.StartingCash*(1-l.KillSwitchDrawdown)
}

// AllowBuy combines the notional bounds and the kill switch.
func (l Limits) AllowBuy(notional, equity float64) (bool, string) {
	if l.Halted(equity) {
		return false, fmt.Sprintf("kill switch: equity %.2f below %.0f%% drawdown", equity, l.KillSwitchDrawdown*100)
	}
	if !l.Allow(notional) {
		return false, fmt.Sprintf("notional %.2f outside [%.2f, %.2f]", notional, l.MinNotional, l.MaxNotionalPerTrade)
	}
	return true, ""
}
