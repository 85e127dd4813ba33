package backtest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macdbot-go/internal/exchange"
	"macdbot-go/internal/indicator"
	"macdbot-go/internal/paper"
	"macdbot-go/internal/risk"
	"macdbot-go/internal/signal"
	"macdbot-go/internal/strategy"
)

var fixedNow = time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

func stubFeed() *exchange.Feed {
	now := func() time.Time { return fixedNow }
	return exchange.NewFeed(exchange.ProviderStub, "BTCTWD", zerolog.Nop(),
		exchange.WithClock(now), exchange.WithLimit(300))
}

func permissive() strategy.Config {
	return strategy.Config{
		Name:      "permissive",
		Threshold: strategy.Static(0),
		Cross:     strategy.CrossRule{ZeroLineGate: true},
		Requires:  []string{"macd", "macd_signal", "macd_hist"},
	}
}

func params(cfg strategy.Config) Params {
	return Params{
		Indicators:   indicator.DefaultParams(),
		Strategy:     cfg,
		StartingCash: 100_000,
		FeeRate:      paper.DefaultFeeRate,
		Notional:     10_000,
	}
}

type eventSink struct{ events []signal.Event }

func (s *eventSink) RecordEvent(ev signal.Event) { s.events = append(s.events, ev) }

func TestRunReplaysStubWindow(t *testing.T) {
	sink := &eventSink{}
	runner := NewRunner(WithEventRecorder(sink), WithRunID(func() string { return "run-1" }))

	res, err := runner.Run(context.Background(), stubFeed(), params(permissive()))
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "btctwd", res.Symbol)
	assert.Equal(t, 300, res.Candles)
	assert.Equal(t, res.Events, sink.events)
	assert.Empty(t, res.Refusals)

	var accepted int
	for _, ev := range res.Events {
		if ev.Direction.Accepted() {
			accepted++
		}
	}
	require.GreaterOrEqual(t, accepted, 4)
	assert.Len(t, res.Trades, accepted)
	assert.Len(t, res.Equity, accepted)
	assert.Equal(t, res.Signals.Sells, res.Performance.TotalTrades)

	var profit, openCost float64
	for _, rec := range res.Trades {
		profit += rec.Profit
	}
	if last := res.Trades[len(res.Trades)-1]; last.Action == signal.Buy {
		openCost = last.NetAmount
		assert.True(t, res.Signals.Open)
	}
	assert.InDelta(t, 100_000+profit-openCost, res.Status.Cash, 1e-6)
	assert.InDelta(t, profit, res.Performance.TotalProfit, 1e-6)
}

func TestGuardRefusesOversizedBuys(t *testing.T) {
	p := params(permissive())
	p.Guard = risk.Limits{MaxNotionalPerTrade: 5_000}

	res, err := NewRunner().Run(context.Background(), stubFeed(), p)
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	require.NotEmpty(t, res.Refusals)
	for _, r := range res.Refusals {
		if r.Event.Direction == signal.Buy {
			assert.Equal(t, paper.RiskLimit, r.Rejection.Reason)
		}
	}
	assert.Equal(t, 100_000.0, res.Status.TotalValue)
}

func TestReplayValidatesInput(t *testing.T) {
	runner := NewRunner()
	_, err := runner.Replay(nil, Params{Symbol: "btctwd"})
	assert.Error(t, err)

	candles := exchange.NewStub().Series(0, 10, time.Hour)
	_, err = runner.Replay(candles, Params{})
	assert.Error(t, err)

	candles[3].Close = -1
	_, err = runner.Replay(candles, Params{Symbol: "btctwd"})
	assert.True(t, errors.Is(err, indicator.ErrValidation))
}

func TestReplayWarmupFollowsSlowSpan(t *testing.T) {
	p := params(permissive())
	p.Symbol = "btctwd"
	p.Indicators.SlowSpan = 40
	stub := exchange.NewStub(exchange.WithStubInterval(time.Hour))

	res, err := NewRunner().Replay(stub.Series(0, 39, time.Hour), p)
	require.NoError(t, err)
	assert.Empty(t, res.Events)

	candles := stub.Series(0, 300, time.Hour)
	res, err = NewRunner().Replay(candles, p)
	require.NoError(t, err)
	require.NotEmpty(t, res.Events)
	for _, ev := range res.Events {
		assert.False(t, ev.Ts.Before(candles[40].Ts), "event at %s inside warmup", ev.Ts)
	}
}

type failingFetcher struct{}

func (failingFetcher) Symbol() string { return "btctwd" }
func (failingFetcher) Fetch(context.Context) ([]signal.Candle, error) {
	return nil, errors.New("boom")
}

func TestRunWrapsFetchError(t *testing.T) {
	_, err := NewRunner().Run(context.Background(), failingFetcher{}, params(permissive()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch btctwd")
}

func TestReportMentionsTotals(t *testing.T) {
	res, err := NewRunner().Run(context.Background(), stubFeed(), params(permissive()))
	require.NoError(t, err)

	out := Report(res, 3)
	assert.Contains(t, out, "BTCTWD")
	assert.Contains(t, out, "permissive")
	assert.Contains(t, out, "total value")
	assert.LessOrEqual(t, strings.Count(out, "sell")+strings.Count(out, "buy"), 3)
}
