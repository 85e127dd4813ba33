package strategy

import (
	"fmt"
	"math"
)

// Cond is an interval test on one indicator value. Bounds are inclusive unless the
// matching Open flag is set.
type Cond struct {
	Lo, Hi         float64
	OpenLo, OpenHi bool
}

// AtLeast matches v >= x.
func AtLeast(x float64) Cond { return Cond{Lo: x, Hi: math.Inf(1)} }

// Above matches v > x.
func Above(x float64) Cond { return Cond{Lo: x, Hi: math.Inf(1), OpenLo: true} }

// Below matches v < x.
func Below(x float64) Cond { return Cond{Lo: math.Inf(-1), Hi: x, OpenHi: true} }

// Within matches lo <= v <= hi.
func Within(lo, hi float64) Cond { return Cond{Lo: lo, Hi: hi} }

// Match tests v against the bounds multiplied by scale.
func (c Cond) Match(v, scale float64) bool {
	lo, hi := c.Lo*scale, c.Hi*scale
	if c.OpenLo {
		if !(v > lo) {
			return false
		}
	} else if !(v >= lo) {
		return false
	}
	if c.OpenHi {
		return v < hi
	}
	return v <= hi
}

func (c Cond) String() string {
	lo, hi := "[", "]"
	if c.OpenLo {
		lo = "("
	}
	if c.OpenHi {
		hi = ")"
	}
	return fmt.Sprintf("%s%g,%g%s", lo, c.Lo, c.Hi, hi)
}

// Tier awards Points when its condition holds. Tiers are tried in order.
type Tier struct {
	When   Cond
	Points float64
}

// marks label an outcome by tier rank.
var marks = []string{"✓", "◐", "◑"}

func mark(rank int) string {
	if rank < 0 {
		return "✗"
	}
	if rank < len(marks) {
		return marks[rank]
	}
	return marks[len(marks)-1]
}

// firstTier returns the points and rank of the first matching tier, or (0, -1).
func firstTier(tiers []Tier, v, scale float64) (float64, int) {
	for i, t := range tiers {
		if t.When.Match(v, scale) {
			return t.Points, i
		}
	}
	return 0, -1
}

func maxPoints(tiers []Tier) float64 {
	best := 0.0
	for _, t := range tiers {
		best = math.Max(best, t.Points)
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
