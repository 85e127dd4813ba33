package strategy

import (
	"fmt"

	"macdbot-go/internal/indicator"
	"macdbot-go/internal/signal"
)

// Check is one weighted sub-check of a confirmation score.
type Check interface {
	Name() string
	// Max is the most points the check can award on either side.
	Max() float64
	Evaluate(r indicator.Row, side signal.Direction) (points float64, reason string)
}

// Scale moves tier bounds with another indicator, e.g. a volume threshold that rises
// with volatility: clamp(Base + (value-1)*Slope, Min, Max).
type Scale struct {
	Field       string
	Base, Slope float64
	Min, Max    float64
}

func (s *Scale) at(r indicator.Row) float64 {
	if s == nil {
		return 1
	}
	return clamp(s.Base+(read(r, s.Field)-1)*s.Slope, s.Min, s.Max)
}

// Tiered awards the first matching tier for the requested side.
type Tiered struct {
	Label string
	Field string
	Buy   []Tier
	Sell  []Tier
	Scale *Scale
}

func (c Tiered) Name() string { return c.Label }

func (c Tiered) Max() float64 { return max(maxPoints(c.Buy), maxPoints(c.Sell)) }

func (c Tiered) Evaluate(r indicator.Row, side signal.Direction) (float64, string) {
	tiers := c.Buy
	if side == signal.Sell {
		tiers = c.Sell
	}
	v := read(r, c.Field)
	scale := c.Scale.at(r)
	pts, rank := firstTier(tiers, v, scale)
	if c.Scale != nil {
		return pts, fmt.Sprintf("%s %.2f%s (threshold %.2f)", c.Label, v, mark(rank), scale)
	}
	return pts, fmt.Sprintf("%s %.3f%s", c.Label, v, mark(rank))
}

// Bollinger scores the band position, optionally only when the band width is
// inside Width. Outside that range the check awards the flat Outside points.
type Bollinger struct {
	Width   *Cond
	Outside float64
	Buy     []Tier
	Sell    []Tier
}

func (c Bollinger) Name() string { return "bollinger" }

func (c Bollinger) Max() float64 {
	return max(maxPoints(c.Buy), maxPoints(c.Sell), c.Outside)
}

func (c Bollinger) Evaluate(r indicator.Row, side signal.Direction) (float64, string) {
	width := read(r, "bb_width")
	if c.Width != nil && !c.Width.Match(width, 1) {
		rank := -1
		if c.Outside > 0 {
			rank = 1
		}
		return c.Outside, fmt.Sprintf("bb_width %.3f%s", width, mark(rank))
	}
	tiers := c.Buy
	if side == signal.Sell {
		tiers = c.Sell
	}
	pos := read(r, "bb_position")
	pts, rank := firstTier(tiers, pos, 1)
	return pts, fmt.Sprintf("bb_position %.2f%s", pos, mark(rank))
}

// TrendRule is one side of a Trend check. Full points go to a trend strength that
// matches Alone, or that matches Regime while the long moving averages agree with
// the side. Otherwise Fallback tiers apply.
type TrendRule struct {
	Regime   Cond
	Alone    Cond
	Points   float64
	Fallback []Tier
}

// Trend confirms the side against trend strength and the MA regime.
type Trend struct {
	Buy  TrendRule
	Sell TrendRule
}

func (c Trend) Name() string { return "trend" }

func (c Trend) Max() float64 { return max(c.Buy.Points, c.Sell.Points) }

func (c Trend) Evaluate(r indicator.Row, side signal.Direction) (float64, string) {
	bullish, ok := r.MARegime()
	rule, agrees := c.Buy, ok && bullish
	if side == signal.Sell {
		rule, agrees = c.Sell, ok && !bullish && r.MAShort != r.MALong
	}
	ts := read(r, "trend_strength")
	if (agrees && rule.Regime.Match(ts, 1)) || rule.Alone.Match(ts, 1) {
		return rule.Points, fmt.Sprintf("trend %.2f%%%s", ts*100, mark(0))
	}
	pts, rank := firstTier(rule.Fallback, ts, 1)
	if rank >= 0 {
		rank++
	}
	return pts, fmt.Sprintf("trend %.2f%%%s", ts*100, mark(rank))
}

// Momentum scores MACD histogram strength, requiring acceleration in the side's
// direction for full points.
type Momentum struct {
	Strong, Partial       float64
	Points, PartialPoints float64
}

func (c Momentum) Name() string { return "macd_strength" }

func (c Momentum) Max() float64 { return c.Points }

func (c Momentum) Evaluate(r indicator.Row, side signal.Direction) (float64, string) {
	strength := read(r, "macd_strength")
	accel := read(r, "macd_acceleration")
	accelerating := accel > 0
	if side == signal.Sell {
		accelerating = accel < 0
	}
	switch {
	case strength > c.Strong && accelerating:
		return c.Points, fmt.Sprintf("macd_strength %.1f%s", strength, mark(0))
	case strength > c.Partial:
		return c.PartialPoints, fmt.Sprintf("macd_strength %.1f%s", strength, mark(1))
	default:
		return 0, fmt.Sprintf("macd_strength %.1f%s", strength, mark(-1))
	}
}

// VolumePrice wants volume and price moving together with the side: full points when
// both agree, partial points when either does.
type VolumePrice struct {
	Momentum, LooseMomentum float64
	Points, PartialPoints   float64
}

func (c VolumePrice) Name() string { return "volume_price" }

func (c VolumePrice) Max() float64 { return c.Points }

func (c VolumePrice) Evaluate(r indicator.Row, side signal.Direction) (float64, string) {
	vpt := read(r, "volume_price")
	mom := read(r, "price_momentum")
	agrees := vpt >= 0
	strict, loose := mom > -c.Momentum, mom > -c.LooseMomentum
	if side == signal.Sell {
		agrees = vpt <= 0
		strict, loose = mom < c.Momentum, mom < c.LooseMomentum
	}
	switch {
	case agrees && strict:
		return c.Points, fmt.Sprintf("volume_price %+.0f%s", vpt, mark(0))
	case agrees || loose:
		return c.PartialPoints, fmt.Sprintf("volume_price %+.0f%s", vpt, mark(1))
	default:
		return 0, fmt.Sprintf("volume_price %+.0f%s", vpt, mark(-1))
	}
}

// MACross awards Points when the mid moving average sits above the short one for a
// buy, or not above it for a sell. Until both averages are ready the mid average
// does not count as above, so only the sell side can score.
type MACross struct {
	Points float64
}

func (c MACross) Name() string { return "ma_cross" }

func (c MACross) Max() float64 { return c.Points }

func (c MACross) Evaluate(r indicator.Row, side signal.Direction) (float64, string) {
	up := indicator.Valid(r.MAMid) && indicator.Valid(r.MAShort) && r.MAMid > r.MAShort
	if up == (side == signal.Buy) {
		return c.Points, fmt.Sprintf("ma_cross up=%t%s", up, mark(0))
	}
	return 0, fmt.Sprintf("ma_cross up=%t%s", up, mark(-1))
}

// OBVSignal awards Points when OBV is above its moving average for a buy, or below
// for a sell.
type OBVSignal struct {
	Points float64
}

func (c OBVSignal) Name() string { return "obv_signal" }

func (c OBVSignal) Max() float64 { return c.Points }

func (c OBVSignal) Evaluate(r indicator.Row, side signal.Direction) (float64, string) {
	rising, ok := r.OBVRising()
	if ok && rising == (side == signal.Buy) {
		return c.Points, "obv" + mark(0)
	}
	return 0, "obv" + mark(-1)
}
