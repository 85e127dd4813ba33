// Package exchange hosts candle and price sources: a deterministic stub and the MAX
// exchange REST and websocket APIs.
package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"macdbot-go/internal/metrics"
	"macdbot-go/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic candles (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderMAX polls the MAX exchange public REST API.
	ProviderMAX = "max"
)

// CandleSource returns up to limit candles for symbol in ascending time order.
type CandleSource interface {
	Candles(ctx context.Context, symbol string, interval time.Duration, limit int) ([]signal.Candle, error)
}

// PriceSource returns the latest traded price for symbol.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// Source is both a candle and a price source.
type Source interface {
	CandleSource
	PriceSource
}

// Feed polls a Source and publishes the candle window whenever a new closed candle
// appears.
type Feed struct {
	provider     string
	symbol       string
	log          zerolog.Logger
	source       Source
	interval     time.Duration
	limit        int
	pollInterval time.Duration
	baseURL      string
	now          func() time.Time

	mu   sync.Mutex
	last time.Time
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const (
	defaultPollInterval = time.Minute
	defaultInterval     = time.Hour
	defaultLimit        = 400
)

// WithPollInterval overrides the default polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// WithInterval sets the candle period.
func WithInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithLimit sets how many candles each poll requests.
func WithLimit(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.limit = n
		}
	}
}

// WithBaseURL points the MAX provider at another host.
func WithBaseURL(url string) Option {
	return func(f *Feed) {
		if url != "" {
			f.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithSource replaces the provider's source.
func WithSource(src Source) Option {
	return func(f *Feed) { f.source = src }
}

// WithClock replaces time.Now when deciding whether the newest candle has closed.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider, symbol string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		symbol:       strings.ToLower(strings.TrimSpace(symbol)),
		log:          log,
		interval:     defaultInterval,
		limit:        defaultLimit,
		pollInterval: defaultPollInterval,
		baseURL:      DefaultMAXBaseURL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.source == nil {
		switch f.provider {
		case ProviderMAX:
			f.source = NewMAXClient(f.baseURL, log)
		default:
			f.source = NewStub(WithStubInterval(f.interval), WithStubClock(f.now))
		}
	}
	return f
}

// Symbol is the market the feed tracks.
func (f *Feed) Symbol() string { return f.symbol }

// Fetch returns the current window of closed candles.
func (f *Feed) Fetch(ctx context.Context) ([]signal.Candle, error) {
	candles, err := f.source.Candles(ctx, f.symbol, f.interval, f.limit)
	if err != nil {
		return nil, fmt.Errorf("%s candles %s: %w", f.provider, f.symbol, err)
	}
	return closedOnly(candles, f.interval, f.now()), nil
}

// Price returns the latest price for the feed symbol.
func (f *Feed) Price(ctx context.Context) (float64, error) {
	px, err := f.source.Price(ctx, f.symbol)
	if err != nil {
		return 0, fmt.Errorf("%s price %s: %w", f.provider, f.symbol, err)
	}
	return px, nil
}

// Run pushes candle windows onto out until the context is canceled. Poll failures
// are logged and retried on the next tick.
func (f *Feed) Run(ctx context.Context, out chan<- []signal.Candle) error {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		if err := f.poll(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Str("symbol", f.symbol).Msg("candle poll failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *Feed) poll(ctx context.Context, out chan<- []signal.Candle) error {
	candles, err := f.Fetch(ctx)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return nil
	}

	f.mu.Lock()
	fresh := 0
	for _, c := range candles {
		if c.Ts.After(f.last) {
			fresh++
		}
	}
	if fresh == 0 {
		f.mu.Unlock()
		return nil
	}
	f.last = candles[len(candles)-1].Ts
	f.mu.Unlock()

	select {
	case out <- candles:
		metrics.CandlesTotal.WithLabelValues(f.symbol).Add(float64(fresh))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// closedOnly drops a trailing candle that is still forming at now.
func closedOnly(candles []signal.Candle, interval time.Duration, now time.Time) []signal.Candle {
	if n := len(candles); n > 0 && candles[n-1].Ts.Add(interval).After(now) {
		return candles[:n-1]
	}
	return candles
}
