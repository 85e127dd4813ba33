package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"macdbot-go/internal/signal"
)

var fixedNow = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

func TestStubCandlesAreDeterministicAndClosed(t *testing.T) {
	stub := NewStub(WithStubClock(func() time.Time { return fixedNow }))
	ctx := context.Background()

	a, err := stub.Candles(ctx, "btctwd", time.Hour, 100)
	if err != nil {
		t.Fatalf("Candles error: %v", err)
	}
	b, _ := stub.Candles(ctx, "btctwd", time.Hour, 50)
	if len(a) != 100 || len(b) != 50 {
		t.Fatalf("unexpected lengths %d/%d", len(a), len(b))
	}
	if a[99] != b[49] {
		t.Fatalf("overlapping windows disagree: %+v vs %+v", a[99], b[49])
	}
	last := a[99].Ts
	if !last.Add(time.Hour).Equal(fixedNow.Truncate(time.Hour)) {
		t.Fatalf("last candle %s should be the one closing at %s", last, fixedNow.Truncate(time.Hour))
	}
	for i := 1; i < len(a); i++ {
		if !a[i].Ts.After(a[i-1].Ts) {
			t.Fatalf("timestamps not increasing at %d", i)
		}
		if a[i].High < a[i].Low || a[i].Volume <= 0 {
			t.Fatalf("malformed candle %+v", a[i])
		}
	}
}

func TestClosedOnlyDropsFormingCandle(t *testing.T) {
	candles := []signal.Candle{
		{Ts: fixedNow.Add(-2 * time.Hour)},
		{Ts: fixedNow.Add(-30 * time.Minute)},
	}
	if got := closedOnly(candles, time.Hour, fixedNow); len(got) != 1 {
		t.Fatalf("expected forming candle dropped, got %d", len(got))
	}
	if got := closedOnly(candles[:1], time.Hour, fixedNow); len(got) != 1 {
		t.Fatalf("closed candle must be kept")
	}
}

type countingSource struct {
	*Stub
	calls int
}

func (c *countingSource) Candles(ctx context.Context, symbol string, interval time.Duration, limit int) ([]signal.Candle, error) {
	c.calls++
	return c.Stub.Candles(ctx, symbol, interval, limit)
}

func TestFeedRunEmitsOnlyNewWindows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := func() time.Time { return fixedNow }
	src := &countingSource{Stub: NewStub(WithStubClock(clock))}
	feed := NewFeed(ProviderStub, "BTCTWD", zerolog.Nop(),
		WithSource(src), WithClock(clock), WithLimit(60), WithPollInterval(10*time.Millisecond))
	if feed.Symbol() != "btctwd" {
		t.Fatalf("expected normalized symbol, got %s", feed.Symbol())
	}

	windows := make(chan []signal.Candle, 4)
	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx, windows) }()

	select {
	case w := <-windows:
		if len(w) != 60 {
			t.Fatalf("expected 60 candles, got %d", len(w))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for candles")
	}

	// The clock never moves, so later polls must not publish again.
	time.Sleep(60 * time.Millisecond)
	select {
	case <-windows:
		t.Fatalf("unchanged window published twice")
	default:
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if src.calls < 2 {
		t.Fatalf("expected repeated polling, got %d calls", src.calls)
	}
}

func TestPriceBoardFallsBackWhenStale(t *testing.T) {
	stub := NewStub(WithStubClock(func() time.Time { return fixedNow }))
	board := NewPriceBoard(time.Minute, stub)
	board.now = func() time.Time { return fixedNow }

	board.Update(signal.Tick{Symbol: "BTCTWD", Price: 123, Ts: fixedNow.Add(-10 * time.Second)})
	if px, err := board.Price(context.Background(), "btctwd"); err != nil || px != 123 {
		t.Fatalf("expected fresh tick price, got %v %v", px, err)
	}

	board.Update(signal.Tick{Symbol: "btctwd", Price: 123, Ts: fixedNow.Add(-time.Hour)})
	want, _ := stub.Price(context.Background(), "btctwd")
	if px, _ := board.Price(context.Background(), "btctwd"); px != want {
		t.Fatalf("expected fallback %v, got %v", want, px)
	}

	if _, err := NewPriceBoard(0, nil).Price(context.Background(), "ethtwd"); err == nil {
		t.Fatalf("expected error with no price and no fallback")
	}
}
