package exchange

import (
	"context"
	"math"
	"time"

	"macdbot-go/internal/signal"
)

// Stub generates a deterministic sine-wave market. Candle k (counted in intervals
// since the Unix epoch) always has the same prices, so overlapping polls agree.
type Stub struct {
	Base      float64
	Amplitude float64 // fraction of Base
	Period    int     // candles per cycle
	Volume    float64
	interval  time.Duration
	now       func() time.Time
}

// StubOption configures a Stub.
type StubOption func(*Stub)

// WithStubInterval sets the interval Price uses.
func WithStubInterval(d time.Duration) StubOption {
	return func(s *Stub) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithStubClock fixes the stub's notion of now.
func WithStubClock(now func() time.Time) StubOption {
	return func(s *Stub) { s.now = now }
}

// NewStub returns a 1,000,000 ±5% market with a 50-candle cycle.
func NewStub(opts ...StubOption) *Stub {
	s := &Stub{Base: 1_000_000, Amplitude: 0.05, Period: 50, Volume: 10, interval: time.Hour, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stub) close(k int64) float64 {
	return s.Base * (1 + s.Amplitude*math.Sin(2*math.Pi*float64(k)/float64(s.Period)))
}

func (s *Stub) candle(k int64, interval time.Duration) signal.Candle {
	open, cls := s.close(k-1), s.close(k)
	return signal.Candle{
		Ts:     time.Unix(0, 0).UTC().Add(time.Duration(k) * interval),
		Open:   open,
		High:   math.Max(open, cls) * 1.001,
		Low:    math.Min(open, cls) * 0.999,
		Close:  cls,
		Volume: s.Volume * (1 + 0.5*math.Sin(2*math.Pi*float64(k)/13)),
	}
}

// Candles returns the last limit closed candles before now.
func (s *Stub) Candles(ctx context.Context, _ string, interval time.Duration, limit int) ([]signal.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = s.interval
	}
	end := s.now().UnixNano()/int64(interval) - 1
	return s.Series(end-int64(limit)+1, limit, interval), nil
}

// Series returns n consecutive candles starting at candle index from.
func (s *Stub) Series(from int64, n int, interval time.Duration) []signal.Candle {
	if n < 0 {
		n = 0
	}
	out := make([]signal.Candle, n)
	for i := range out {
		out[i] = s.candle(from+int64(i), interval)
	}
	return out
}

// Price interpolates the wave at now.
func (s *Stub) Price(ctx context.Context, _ string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	k := float64(s.now().UnixNano()) / float64(s.interval)
	return s.Base * (1 + s.Amplitude*math.Sin(2*math.Pi*k/float64(s.Period))), nil
}
