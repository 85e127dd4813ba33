// Package strategy scores MACD cross candidates against auxiliary indicators.
package strategy

import (
	"fmt"
	"math"

	"macdbot-go/internal/indicator"
	"macdbot-go/internal/signal"
)

// Threshold selects the pass mark for one row. When StrongCutoff is positive and
// |market_strength| exceeds it, Strong is used and StrongBonus is added to the score.
type Threshold struct {
	Base         float64
	Strong       float64
	StrongBonus  float64
	StrongCutoff float64
}

// Static returns a threshold that never moves.
func Static(v float64) Threshold { return Threshold{Base: v, Strong: v} }

// At returns the threshold and bonus for a row.
func (t Threshold) At(r indicator.Row) (threshold, bonus float64) {
	if t.StrongCutoff > 0 && math.Abs(read(r, "market_strength")) > t.StrongCutoff {
		return t.Strong, t.StrongBonus
	}
	return t.Base, 0
}

// Config is a named scoring preset.
type Config struct {
	Name      string
	Checks    []Check
	Threshold Threshold
	Cross     CrossRule
	// Requires lists row fields that must be ready before a row is scanned.
	Requires []string
}

// Overrides adjusts a preset from configuration. Nil fields keep the preset value.
type Overrides struct {
	Threshold       *float64
	StrongThreshold *float64
	StrengthBonus   *float64
	StrongCutoff    *float64
	ZeroLineGate    *bool
}

// WithOverrides returns a copy of c with the set overrides applied.
func (c Config) WithOverrides(o Overrides) Config {
	out := c
	out.Checks = append([]Check(nil), c.Checks...)
	out.Requires = append([]string(nil), c.Requires...)
	if o.Threshold != nil {
		if c.Threshold.StrongCutoff <= 0 {
			out.Threshold.Strong = *o.Threshold
		}
		out.Threshold.Base = *o.Threshold
	}
	if o.StrongThreshold != nil {
		out.Threshold.Strong = *o.StrongThreshold
	}
	if o.StrengthBonus != nil {
		out.Threshold.StrongBonus = *o.StrengthBonus
	}
	if o.StrongCutoff != nil {
		out.Threshold.StrongCutoff = *o.StrongCutoff
	}
	if o.ZeroLineGate != nil {
		out.Cross.ZeroLineGate = *o.ZeroLineGate
	}
	return out
}

// MaxScore is the most a row can score under c, bonus included.
func (c Config) MaxScore() float64 {
	total := c.Threshold.StrongBonus
	for _, chk := range c.Checks {
		total += chk.Max()
	}
	return total
}

// Result is the outcome of scoring one row for one side.
type Result struct {
	Passed    bool
	Score     float64
	Threshold float64
	Reasons   []string
	Err       error
}

// Scorer evaluates rows against a Config. It holds no mutable state.
type Scorer struct {
	cfg Config
}

// NewScorer wraps cfg.
func NewScorer(cfg Config) *Scorer { return &Scorer{cfg: cfg} }

// Config returns the scorer's preset.
func (s *Scorer) Config() Config { return s.cfg }

// Score never panics: internal failures come back as a failed Result with Err set.
func (s *Scorer) Score(r indicator.Row, side signal.Direction) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("score %s: %v", side, rec)
			res = Result{Threshold: res.Threshold, Reasons: []string{err.Error()}, Err: err}
		}
	}()
	side = side.Side()
	if side != signal.Buy && side != signal.Sell {
		err := fmt.Errorf("score: unsupported side %q", side)
		return Result{Reasons: []string{err.Error()}, Err: err}
	}
	threshold, bonus := s.cfg.Threshold.At(r)
	res.Threshold = threshold
	reasons := make([]string, 0, len(s.cfg.Checks)+1)
	score := 0.0
	for _, chk := range s.cfg.Checks {
		pts, reason := chk.Evaluate(r, side)
		score += pts
		reasons = append(reasons, reason)
	}
	if bonus > 0 {
		score += bonus
		reasons = append(reasons, fmt.Sprintf("strong market +%g", bonus))
	}
	if !indicator.Valid(score) {
		err := fmt.Errorf("score %s: non-finite score", side)
		return Result{Threshold: threshold, Reasons: append(reasons, err.Error()), Err: err}
	}
	return Result{Passed: score >= threshold, Score: score, Threshold: threshold, Reasons: reasons}
}
