// Package performance derives read-only statistics from a trade log and the
// signal events that drove it.
package performance

import (
	"macdbot-go/internal/paper"
	"macdbot-go/internal/signal"
)

type Summary struct {
	// Trades
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"` // percent
	OpenTrade   bool    `json:"open_trade"`

	// P&L
	TotalProfit  float64 `json:"total_profit"`
	AvgProfit    float64 `json:"avg_profit"`
	GrossProfit  float64 `json:"gross_profit"`
	GrossLoss    float64 `json:"gross_loss"`
	ProfitFactor float64 `json:"profit_factor"`
	TotalFees    float64 `json:"total_fees"`

	// Risk, over realized equity
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`

	// Signals
	Accepted         int     `json:"accepted_signals"`
	Rejected         int     `json:"rejected_signals"`
	BuyRejected      int     `json:"buy_rejected"`
	SellRejected     int     `json:"sell_rejected"`
	RejectionRate    float64 `json:"rejection_rate"` // percent
	AvgAcceptedScore float64 `json:"avg_accepted_score"`
	AvgRejectedScore float64 `json:"avg_rejected_score"`
}

// Summarize never divides by zero: every ratio with an empty denominator is 0.
func Summarize(trades []paper.TradeRecord, events []signal.Event) Summary {
	var s Summary

	var equity, peak float64
	started := false
	for _, rec := range trades {
		s.TotalFees += rec.FeeAmount
		switch rec.Action {
		case signal.Buy:
			if !started {
				equity = rec.BalanceAfter + rec.NetAmount
				peak = equity
				started = true
			}
			s.OpenTrade = true
		case signal.Sell:
			s.OpenTrade = false
			s.TotalTrades++
			s.TotalProfit += rec.Profit
			if rec.Profit > 0 {
				s.Wins++
				s.GrossProfit += rec.Profit
			} else {
				s.Losses++
				s.GrossLoss += -rec.Profit
			}
			equity = rec.BalanceAfter
			if !started {
				peak, started = equity, true
			}
			if equity > peak {
				peak = equity
			}
			if dd := peak - equity; dd > s.MaxDrawdown {
				s.MaxDrawdown = dd
				s.MaxDrawdownPct = pct(dd, peak)
			}
		}
	}
	s.WinRate = pct(float64(s.Wins), float64(s.TotalTrades))
	s.AvgProfit = div(s.TotalProfit, float64(s.TotalTrades))
	s.ProfitFactor = div(s.GrossProfit, s.GrossLoss)

	var acceptedScore, rejectedScore float64
	for _, ev := range events {
		switch {
		case ev.Direction.Accepted():
			s.Accepted++
			acceptedScore += ev.Score
		case ev.Direction == signal.BuyRejected:
			s.BuyRejected++
			rejectedScore += ev.Score
		case ev.Direction == signal.SellRejected:
			s.SellRejected++
			rejectedScore += ev.Score
		}
	}
	s.Rejected = s.BuyRejected + s.SellRejected
	s.RejectionRate = pct(float64(s.Rejected), float64(s.Rejected+s.Accepted))
	s.AvgAcceptedScore = div(acceptedScore, float64(s.Accepted))
	s.AvgRejectedScore = div(rejectedScore, float64(s.Rejected))
	return s
}

func div(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func pct(num, den float64) float64 { return div(num, den) * 100 }
