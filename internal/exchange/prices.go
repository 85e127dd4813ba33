package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"macdbot-go/internal/signal"
)

// PriceBoard keeps the latest tick per symbol and falls back to another PriceSource
// when a symbol has no fresh tick.
type PriceBoard struct {
	mu       sync.RWMutex
	last     map[string]signal.Tick
	maxAge   time.Duration
	fallback PriceSource
	now      func() time.Time
}

// NewPriceBoard treats ticks older than maxAge as stale. fallback may be nil.
func NewPriceBoard(maxAge time.Duration, fallback PriceSource) *PriceBoard {
	return &PriceBoard{last: make(map[string]signal.Tick), maxAge: maxAge, fallback: fallback, now: time.Now}
}

// Update stores a tick.
func (b *PriceBoard) Update(t signal.Tick) {
	b.mu.Lock()
	b.last[strings.ToLower(t.Symbol)] = t
	b.mu.Unlock()
}

// Consume applies ticks from in until it closes or ctx ends.
func (b *PriceBoard) Consume(ctx context.Context, in <-chan signal.Tick) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-in:
			if !ok {
				return
			}
			b.Update(t)
		}
	}
}

// Price returns the freshest known price for symbol.
func (b *PriceBoard) Price(ctx context.Context, symbol string) (float64, error) {
	b.mu.RLock()
	t, ok := b.last[strings.ToLower(symbol)]
	b.mu.RUnlock()
	if ok && (b.maxAge <= 0 || b.now().Sub(t.Ts) <= b.maxAge) {
		return t.Price, nil
	}
	if b.fallback != nil {
		return b.fallback.Price(ctx, symbol)
	}
	return 0, fmt.Errorf("no price for %s", symbol)
}
