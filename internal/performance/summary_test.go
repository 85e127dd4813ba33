package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"macdbot-go/internal/paper"
	"macdbot-go/internal/signal"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil)
	assert.Equal(t, Summary{}, s)
}

func TestSummarizeTrades(t *testing.T) {
	trades := []paper.TradeRecord{
		{Action: signal.Buy, NetAmount: 1001.5, FeeAmount: 1.5, BalanceAfter: 8998.5},
		{Action: signal.Sell, FeeAmount: 1.6, Profit: 100, BalanceAfter: 10100},
		{Action: signal.Buy, NetAmount: 1001.5, FeeAmount: 1.5, BalanceAfter: 9098.5},
		{Action: signal.Sell, FeeAmount: 1.4, Profit: -300, BalanceAfter: 9800},
		{Action: signal.Buy, NetAmount: 1001.5, FeeAmount: 1.5, BalanceAfter: 8798.5},
		{Action: signal.Sell, FeeAmount: 1.5, Profit: 50, BalanceAfter: 9850},
		{Action: signal.Buy, NetAmount: 1001.5, FeeAmount: 1.5, BalanceAfter: 8848.5},
	}
	s := Summarize(trades, nil)

	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 66.6667, s.WinRate, 1e-3)
	assert.InDelta(t, -150, s.TotalProfit, 1e-9)
	assert.InDelta(t, -50, s.AvgProfit, 1e-9)
	assert.InDelta(t, 150, s.GrossProfit, 1e-9)
	assert.InDelta(t, 300, s.GrossLoss, 1e-9)
	assert.InDelta(t, 0.5, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 10.5, s.TotalFees, 1e-9)
	assert.InDelta(t, 300, s.MaxDrawdown, 1e-9)
	assert.InDelta(t, 300.0/10100*100, s.MaxDrawdownPct, 1e-9)
	assert.True(t, s.OpenTrade)
}

func TestSummarizeNoLossesHasZeroProfitFactor(t *testing.T) {
	trades := []paper.TradeRecord{
		{Action: signal.Buy, NetAmount: 100, BalanceAfter: 900},
		{Action: signal.Sell, Profit: 10, BalanceAfter: 1010},
	}
	s := Summarize(trades, nil)
	assert.Equal(t, 100.0, s.WinRate)
	assert.Zero(t, s.ProfitFactor)
	assert.Zero(t, s.MaxDrawdown)
	assert.False(t, s.OpenTrade)
}

func TestSummarizeEvents(t *testing.T) {
	events := []signal.Event{
		{Direction: signal.Buy, Score: 80},
		{Direction: signal.SellRejected, Score: 40},
		{Direction: signal.Sell, Score: 70},
		{Direction: signal.BuyRejected, Score: 60},
		{Direction: signal.BuyRejected, Score: 50},
	}
	s := Summarize(nil, events)
	assert.Equal(t, 2, s.Accepted)
	assert.Equal(t, 3, s.Rejected)
	assert.Equal(t, 2, s.BuyRejected)
	assert.Equal(t, 1, s.SellRejected)
	assert.InDelta(t, 60, s.RejectionRate, 1e-9)
	assert.InDelta(t, 75, s.AvgAcceptedScore, 1e-9)
	assert.InDelta(t, 50, s.AvgRejectedScore, 1e-9)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.AvgProfit)
}
