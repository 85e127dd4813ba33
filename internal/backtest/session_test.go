package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macdbot-go/internal/exchange"
	"macdbot-go/internal/indicator"
	"macdbot-go/internal/paper"
	"macdbot-go/internal/scan"
	"macdbot-go/internal/signal"
)

func TestSessionOnlyActsOnNewCandles(t *testing.T) {
	stub := exchange.NewStub()
	account := paper.NewAccount(100_000, paper.DefaultFeeRate)
	sink := &eventSink{}
	session := NewSession(account, scan.NewEngine(permissive()), indicator.DefaultParams(), WithSessionEvents(sink))

	first := stub.Series(1000, 200, time.Hour)
	events, err := session.Step(first)
	require.NoError(t, err)
	assert.Empty(t, events, "first window only primes")
	assert.Equal(t, 0, account.Ledger().Len())
	assert.Equal(t, first[len(first)-1].Ts, session.Last())

	again, err := session.Step(first)
	require.NoError(t, err)
	assert.Empty(t, again, "repeated window is ignored")

	var seen int
	for k := int64(1001); k <= 1200; k++ {
		events, err := session.Step(stub.Series(k, 200, time.Hour))
		require.NoError(t, err)
		for _, ev := range events {
			assert.True(t, ev.Ts.Equal(session.Last()), "only the newest candle can emit")
		}
		seen += len(events)
	}
	require.Greater(t, seen, 0)
	assert.Len(t, sink.events, seen)
	assert.Greater(t, account.Ledger().Len(), 0)
}

func TestSessionFollowsAccountWhenBuySlidesOut(t *testing.T) {
	stub := exchange.NewStub()
	account := paper.NewAccount(100_000, paper.DefaultFeeRate)
	session := NewSession(account, scan.NewEngine(permissive()), indicator.DefaultParams())

	const window = 40
	_, err := session.Step(stub.Series(0, window, time.Hour))
	require.NoError(t, err)

	var accepted, sells int
	for k := int64(1); k <= 300; k++ {
		holding := account.Holdings("btctwd") > 0
		events, err := session.Step(stub.Series(k, window, time.Hour))
		require.NoError(t, err)
		for _, ev := range events {
			switch ev.Direction {
			case signal.Sell:
				sells++
				accepted++
			case signal.Buy:
				accepted++
			case signal.SellRejected:
				for _, reason := range ev.Reasons {
					assert.False(t, holding && reason == "no open position", "sell at %s rejected while the account holds", ev.Ts)
				}
			}
		}
	}
	require.Greater(t, sells, 0)
	assert.Equal(t, accepted, account.Ledger().Len(), "every accepted event reaches the ledger")
}

func TestSessionReplayFirstWindow(t *testing.T) {
	account := paper.NewAccount(100_000, paper.DefaultFeeRate)
	session := NewSession(account, scan.NewEngine(permissive()), indicator.DefaultParams(), WithReplayFirstWindow())

	events, err := session.Step(exchange.NewStub().Series(0, 300, time.Hour))
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.Greater(t, account.Ledger().Len(), 0)

	_, err = session.Step(nil)
	assert.Error(t, err)
}
