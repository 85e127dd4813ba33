package strategy

import (
	"macdbot-go/internal/indicator"
)

// Field reads one indicator value from a row.
type Field func(indicator.Row) float64

// Fields names every row value a preset can require or score on.
var Fields = map[string]Field{
	"macd":              func(r indicator.Row) float64 { return r.MACD },
	"macd_signal":       func(r indicator.Row) float64 { return r.MACDSignal },
	"macd_hist":         func(r indicator.Row) float64 { return r.MACDHist },
	"macd_strength":     func(r indicator.Row) float64 { return r.MACDStrength },
	"macd_acceleration": func(r indicator.Row) float64 { return r.MACDAcceleration },
	"rsi":               func(r indicator.Row) float64 { return r.RSI },
	"bb_position":       func(r indicator.Row) float64 { return r.BBPosition },
	"bb_width":          func(r indicator.Row) float64 { return r.BBWidth },
	"volume_ratio":      func(r indicator.Row) float64 { return r.VolumeRatio },
	"volume_trend":      func(r indicator.Row) float64 { return r.VolumeTrend },
	"obv":               func(r indicator.Row) float64 { return r.OBV },
	"obv_ma":            func(r indicator.Row) float64 { return r.OBVMA },
	"obv_trend":         func(r indicator.Row) float64 { return r.OBVTrend },
	"ma_mid":            func(r indicator.Row) float64 { return r.MAMid },
	"ma_short":          func(r indicator.Row) float64 { return r.MAShort },
	"ma_long":           func(r indicator.Row) float64 { return r.MALong },
	"trend_strength":    func(r indicator.Row) float64 { return r.TrendStrength },
	"volatility":        func(r indicator.Row) float64 { return r.Volatility },
	"volatility_ratio":  func(r indicator.Row) float64 { return r.VolatilityRatio },
	"market_strength":   func(r indicator.Row) float64 { return r.MarketStrength },
	"price_momentum":    func(r indicator.Row) float64 { return r.PriceMomentum },
	"volume_price":      func(r indicator.Row) float64 { return r.VolumePriceTrend },
}

// neutral values substitute missing optional indicators so scoring stays total.
var neutral = map[string]float64{
	"rsi":              50,
	"bb_position":      0.5,
	"bb_width":         0.1,
	"volatility_ratio": 1,
}

// read returns the named value or its neutral default when not ready.
func read(r indicator.Row, name string) float64 {
	f, ok := Fields[name]
	if !ok {
		return neutral[name]
	}
	v := f(r)
	if !indicator.Valid(v) {
		return neutral[name]
	}
	return v
}

// Ready reports whether every named field is populated on the row.
func Ready(r indicator.Row, names []string) bool {
	for _, name := range names {
		f, ok := Fields[name]
		if !ok || !indicator.Valid(f(r)) {
			return false
		}
	}
	return true
}
