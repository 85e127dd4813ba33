package scan

import (
	"iter"
	"slices"

	"macdbot-go/internal/signal"
)

// Summary counts the outcome of one scan.
type Summary struct {
	Buys         int `json:"buys"`
	Sells        int `json:"sells"`
	BuyRejected  int `json:"buy_rejected"`
	SellRejected int `json:"sell_rejected"`
	// Open is true when the scan ended long; OpenSequence pairs it with its buy.
	Open         bool `json:"open"`
	OpenSequence int  `json:"open_sequence,omitempty"`
}

// Completed is the number of closed buy/sell pairs.
func (s Summary) Completed() int { return s.Sells }

// Collect drains a scan into a slice.
func Collect(events iter.Seq[signal.Event]) []signal.Event {
	return slices.Collect(events)
}

// Summarize derives the position outcome from an event list.
func Summarize(events []signal.Event) Summary {
	var s Summary
	var state PositionState
	for _, ev := range events {
		switch ev.Direction {
		case signal.Buy:
			s.Buys++
		case signal.Sell:
			s.Sells++
		case signal.BuyRejected:
			s.BuyRejected++
		case signal.SellRejected:
			s.SellRejected++
		}
		state.Apply(ev.Direction)
	}
	if state.Position == Long {
		s.Open = true
		s.OpenSequence = state.Sequence
	}
	return s
}
