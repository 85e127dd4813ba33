package strategy

import (
	"macdbot-go/internal/indicator"
	"macdbot-go/internal/signal"
)

const (
	contextMinRows   = 50
	trendLookback    = 9
	trendSlope       = 0.02
	volatilityWindow = 21
	highVolatility   = 0.03
	lowVolatility    = 0.015
)

// AnalyzeContext classifies the regime at rows[i] for reporting. It reads only rows
// up to i.
func AnalyzeContext(rows []indicator.Row, i int) signal.Context {
	ctx := signal.Context{Trend: "unknown", Volatility: "normal"}
	if i < 0 || i >= len(rows) {
		return ctx
	}
	if i < contextMinRows {
		return ctx
	}
	if ms := rows[i].MarketStrength; indicator.Valid(ms) {
		ctx.Strength = ms
	}

	ctx.Trend = "sideways"
	now, then := rows[i].MAShort, rows[i-trendLookback].MAShort
	if indicator.Valid(now) && indicator.Valid(then) && then != 0 {
		switch slope := (now - then) / then; {
		case slope > trendSlope:
			ctx.Trend = "bullish"
		case slope < -trendSlope:
			ctx.Trend = "bearish"
		}
	}

	sum, n := 0.0, 0
	for _, r := range rows[max(0, i-volatilityWindow+1) : i+1] {
		if indicator.Valid(r.Volatility) {
			sum += r.Volatility
			n++
		}
	}
	if n > 0 {
		switch avg := sum / float64(n); {
		case avg > highVolatility:
			ctx.Volatility = "high"
		case avg < lowVolatility:
			ctx.Volatility = "low"
		}
	}
	return ctx
}
