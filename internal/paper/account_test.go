package paper

import (
	"fmt"
	"math"
	"testing"
	"time"

	"macdbot-go/internal/signal"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string { n++; return fmt.Sprintf("t%d", n) }
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestBuyDebitsNotionalPlusFee(t *testing.T) {
	account := NewAccount(100_000, 0.0015, WithIDs(sequentialIDs()))
	rec, rej := account.Buy(t0, "btctwd", 1_000_000, 10_000)
	if rej != nil {
		t.Fatalf("unexpected rejection: %s", rej)
	}
	if !near(100_000-account.Cash(), 10_015) {
		t.Fatalf("expected debit of 10015, got %.6f", 100_000-account.Cash())
	}
	if !near(account.Holdings("btctwd"), 0.01) {
		t.Fatalf("expected 0.01 units, got %.8f", account.Holdings("btctwd"))
	}
	if rec.ID != "t1" || rec.Action != signal.Buy || !near(rec.FeeAmount, 15) || !near(rec.NetAmount, 10_015) {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !near(rec.BalanceAfter, 89_985) || !near(rec.HoldingsAfter, 0.01) {
		t.Fatalf("unexpected balances on record %+v", rec)
	}
}

func TestSellClosesWholePositionWithProfit(t *testing.T) {
	account := NewAccount(100_000, 0.0015)
	if _, rej := account.Buy(t0, "btctwd", 1_000_000, 10_000); rej != nil {
		t.Fatalf("buy rejected: %s", rej)
	}
	rec, rej := account.Sell(t0.Add(time.Hour), "btctwd", 1_100_000)
	if rej != nil {
		t.Fatalf("sell rejected: %s", rej)
	}
	// 0.01 * 1.1M = 11000 gross, 16.5 fee, 10983.5 net, minus 10015 cost.
	if !near(rec.GrossAmount, 11_000) || !near(rec.NetAmount, 10_983.5) || !near(rec.Profit, 968.5) {
		t.Fatalf("unexpected sell record %+v", rec)
	}
	if account.Holdings("btctwd") != 0 || rec.HoldingsAfter != 0 {
		t.Fatalf("sell must close the whole holding")
	}
	if !near(account.Cash(), 100_968.5) {
		t.Fatalf("unexpected cash %.4f", account.Cash())
	}
	if rec.TradeSequence != 1 {
		t.Fatalf("sell should carry the buy's sequence, got %d", rec.TradeSequence)
	}
}

func TestRejections(t *testing.T) {
	cases := []struct {
		name string
		run  func(a *Account) *Rejection
		want RejectReason
	}{
		{"sell while flat", func(a *Account) *Rejection { _, r := a.Sell(t0, "btctwd", 100); return r }, NoPosition},
		{"zero price", func(a *Account) *Rejection { _, r := a.Buy(t0, "btctwd", 0, 100); return r }, InvalidPrice},
		{"nan price", func(a *Account) *Rejection { _, r := a.Sell(t0, "btctwd", math.NaN()); return r }, InvalidPrice},
		{"zero notional", func(a *Account) *Rejection { _, r := a.Buy(t0, "btctwd", 100, 0); return r }, InvalidNotional},
		{"fee pushes over cash", func(a *Account) *Rejection { _, r := a.Buy(t0, "btctwd", 100, 1000); return r }, InsufficientFunds},
		{"second buy", func(a *Account) *Rejection {
			a.Buy(t0, "btctwd", 100, 10)
			_, r := a.Buy(t0, "btctwd", 100, 10)
			return r
		}, AlreadyHolding},
		{"rejected event", func(a *Account) *Rejection {
			_, r := a.Apply(signal.Event{Direction: signal.BuyRejected, Price: 100})
			return r
		}, NotTradable},
	}
	for _, tc := range cases {
		account := NewAccount(1000, 0.0015)
		before := account.Cash()
		r := tc.run(account)
		if r == nil || r.Reason != tc.want {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.want, r)
		}
		if tc.want != AlreadyHolding && (account.Cash() != before || account.Ledger().Len() != 0) {
			t.Fatalf("%s: rejection must leave the account untouched", tc.name)
		}
	}
}

func TestExactCashIsEnough(t *testing.T) {
	account := NewAccount(10_015, 0.0015)
	if _, rej := account.Buy(t0, "btctwd", 1_000_000, 10_000); rej != nil {
		t.Fatalf("expected buy with exact cash to pass: %s", rej)
	}
	if account.Cash() < 0 {
		t.Fatalf("cash went negative: %.8f", account.Cash())
	}
}

type denyAll struct{}

func (denyAll) AllowBuy(float64, float64) (bool, string) { return false, "halted" }

func TestGuardBlocksBuy(t *testing.T) {
	account := NewAccount(100_000, 0.0015, WithGuard(denyAll{}))
	_, rej := account.Buy(t0, "btctwd", 100, 1000)
	if rej == nil || rej.Reason != RiskLimit || rej.Detail != "halted" {
		t.Fatalf("expected risk rejection, got %v", rej)
	}
}

func TestApplyRoundTripMatchesCash(t *testing.T) {
	account := NewAccount(100_000, 0.0015, WithNotional(10_000), WithSymbol("ethtwd"))
	prices := []float64{100_000, 104_000, 98_000, 95_000, 97_000, 110_000}
	for i, px := range prices {
		dir, seq := signal.Buy, i/2+1
		if i%2 == 1 {
			dir = signal.Sell
		}
		if _, rej := account.Apply(signal.Event{Ts: t0.Add(time.Duration(i) * time.Hour), Price: px, Direction: dir, TradeSequence: seq}); rej != nil {
			t.Fatalf("event %d rejected: %s", i, rej)
		}
		if account.Cash() < 0 || account.Holdings("ethtwd") < 0 {
			t.Fatalf("negative balance after event %d", i)
		}
	}
	sum := 0.0
	for _, rec := range account.Ledger().Snapshot() {
		sum += rec.Profit
	}
	if !near(sum, account.Cash()-account.StartingCash()) {
		t.Fatalf("profits %.6f do not match cash delta %.6f", sum, account.Cash()-account.StartingCash())
	}
	st := account.Status(nil)
	if st.Wins != 2 || st.Losses != 1 {
		t.Fatalf("expected 2 wins 1 loss, got %d/%d", st.Wins, st.Losses)
	}
}

func TestStatusMarksOpenPosition(t *testing.T) {
	account := NewAccount(100_000, 0.0015)
	account.Buy(t0, "btctwd", 1_000_000, 10_000)

	atCost := account.Status(nil)
	if !near(atCost.TotalValue, 100_000) || atCost.Unrealized != 0 {
		t.Fatalf("unpriced position should be valued at cost, got %+v", atCost)
	}

	st := account.Status(map[string]float64{"btctwd": 1_200_000})
	pos := st.Positions["btctwd"]
	if !near(pos.MarketValue, 11_982) || !near(st.Unrealized, 1_967) {
		t.Fatalf("unexpected valuation %+v", pos)
	}
	if !near(st.TotalValue, st.Cash+st.HoldingsValue) {
		t.Fatalf("total value does not balance")
	}
	if !near(st.ReturnPct, 1.967) {
		t.Fatalf("unexpected return %.4f", st.ReturnPct)
	}
}
