// Package indicator derives MACD, momentum, volume and volatility series from candles.
//
// Every derived field is NaN until its rolling window has enough history. Consumers
// test readiness with Valid instead of comparing against zero.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"macdbot-go/internal/signal"
)

// ErrValidation marks malformed candle input.
var ErrValidation = errors.New("invalid candle")

// ValidationError pinpoints the first malformed candle.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("candle %d: %s", e.Index, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Params holds every window length used by Compute.
type Params struct {
	FastSpan         int
	SlowSpan         int
	SignalSpan       int
	RSIPeriod        int
	BBPeriod         int
	BBMultiplier     float64
	VolumeMAPeriod   int
	VolumeTrendMA    int
	VolumeTrendLag   int
	OBVMAPeriod      int
	OBVTrendLag      int
	MAMid            int
	MAShort          int
	MALong           int
	VolatilityPeriod int
	VolatilityMA     int
	MomentumLag      int
}

// DefaultParams returns the classic 12/26/9 MACD setup with the companion windows.
func DefaultParams() Params {
	return Params{
		FastSpan:         12,
		SlowSpan:         26,
		SignalSpan:       9,
		RSIPeriod:        14,
		BBPeriod:         20,
		BBMultiplier:     2,
		VolumeMAPeriod:   20,
		VolumeTrendMA:    5,
		VolumeTrendLag:   3,
		OBVMAPeriod:      10,
		OBVTrendLag:      5,
		MAMid:            20,
		MAShort:          50,
		MALong:           200,
		VolatilityPeriod: 20,
		VolatilityMA:     10,
		MomentumLag:      5,
	}
}

// MinHistory is the number of leading rows a scan should skip: the slow EMA span
// after defaults are applied.
func (p Params) MinHistory() int { return p.withDefaults().SlowSpan }

func (p Params) withDefaults() Params {
	d := DefaultParams()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&p.FastSpan, d.FastSpan)
	fill(&p.SlowSpan, d.SlowSpan)
	fill(&p.SignalSpan, d.SignalSpan)
	fill(&p.RSIPeriod, d.RSIPeriod)
	fill(&p.BBPeriod, d.BBPeriod)
	fill(&p.VolumeMAPeriod, d.VolumeMAPeriod)
	fill(&p.VolumeTrendMA, d.VolumeTrendMA)
	fill(&p.VolumeTrendLag, d.VolumeTrendLag)
	fill(&p.OBVMAPeriod, d.OBVMAPeriod)
	fill(&p.OBVTrendLag, d.OBVTrendLag)
	fill(&p.MAMid, d.MAMid)
	fill(&p.MAShort, d.MAShort)
	fill(&p.MALong, d.MALong)
	fill(&p.VolatilityPeriod, d.VolatilityPeriod)
	fill(&p.VolatilityMA, d.VolatilityMA)
	fill(&p.MomentumLag, d.MomentumLag)
	if p.BBMultiplier <= 0 {
		p.BBMultiplier = d.BBMultiplier
	}
	return p
}

// Row is a candle plus its derived indicator values.
type Row struct {
	signal.Candle

	MACD             float64
	MACDSignal       float64
	MACDHist         float64
	MACDStrength     float64 // |hist| / close * 10000
	MACDAcceleration float64

	RSI float64

	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	BBPosition float64
	BBWidth    float64

	VolumeMA    float64
	VolumeRatio float64
	VolumeTrend float64

	OBV      float64
	OBVMA    float64
	OBVTrend float64

	MAMid         float64
	MAShort       float64
	MALong        float64
	TrendStrength float64

	Volatility      float64
	VolatilityRatio float64
	MarketStrength  float64

	PriceMomentum    float64
	VolumePriceTrend float64
}

// Valid reports whether an indicator value is ready.
func Valid(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// OBVRising reports whether OBV sits above its moving average. ok is false until both are ready.
func (r Row) OBVRising() (rising, ok bool) {
	if !Valid(r.OBV) || !Valid(r.OBVMA) {
		return false, false
	}
	return r.OBV > r.OBVMA, true
}

// MARegime reports whether the short MA sits above the long MA. ok is false until both are ready.
func (r Row) MARegime() (bullish, ok bool) {
	if !Valid(r.MAShort) || !Valid(r.MALong) {
		return false, false
	}
	return r.MAShort > r.MALong, true
}

// Validate checks ordering and price sanity for a candle series.
func Validate(candles []signal.Candle) error {
	for i, c := range candles {
		switch {
		case !Valid(c.Open) || !Valid(c.High) || !Valid(c.Low) || !Valid(c.Close) || !Valid(c.Volume):
			return &ValidationError{Index: i, Reason: "non-finite value"}
		case c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0:
			return &ValidationError{Index: i, Reason: "non-positive price"}
		case c.Volume < 0:
			return &ValidationError{Index: i, Reason: "negative volume"}
		case c.High < c.Low:
			return &ValidationError{Index: i, Reason: "high below low"}
		}
		if i > 0 && !c.Ts.After(candles[i-1].Ts) {
			return &ValidationError{Index: i, Reason: "timestamp not strictly increasing"}
		}
	}
	return nil
}

// Compute validates candles and returns one Row per candle. The input is not modified.
func Compute(candles []signal.Candle, params Params) ([]Row, error) {
	if err := Validate(candles); err != nil {
		return nil, err
	}
	p := params.withDefaults()
	n := len(candles)
	rows := make([]Row, n)
	if n == 0 {
		return rows, nil
	}

	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	macd, macdSignal, macdHist := MACD(closes, p.FastSpan, p.SlowSpan, p.SignalSpan)
	rsi := RSI(closes, p.RSIPeriod)
	bb := Bollinger(closes, p.BBPeriod, p.BBMultiplier)
	volumeMA := RollingMean(volumes, p.VolumeMAPeriod)
	volumeTrend := PctChange(RollingMean(volumes, p.VolumeTrendMA), p.VolumeTrendLag)
	obv := OBV(closes, volumes)
	obvMA := RollingMean(obv, p.OBVMAPeriod)
	obvTrend := PctChange(obv, p.OBVTrendLag)
	maMid := RollingMean(closes, p.MAMid)
	maShort := RollingMean(closes, p.MAShort)
	maLong := RollingMean(closes, p.MALong)
	volatility := Volatility(closes, p.VolatilityPeriod)
	volatilityMA := RollingMean(volatility, p.VolatilityMA)
	momentum := PctChange(closes, p.MomentumLag)
	priceChange := PctChange(closes, 1)

	for i, c := range candles {
		r := Row{Candle: c}
		r.MACD = macd[i]
		r.MACDSignal = macdSignal[i]
		r.MACDHist = macdHist[i]
		r.MACDStrength = math.Abs(macdHist[i]) / c.Close * 10000
		r.MACDAcceleration = math.NaN()
		if i > 0 {
			r.MACDAcceleration = macdHist[i] - macdHist[i-1]
		}

		r.RSI = rsi[i]

		r.BBUpper = bb.Upper[i]
		r.BBMiddle = bb.Middle[i]
		r.BBLower = bb.Lower[i]
		r.BBPosition = bb.Position[i]
		r.BBWidth = bb.Width[i]

		r.VolumeMA = volumeMA[i]
		r.VolumeRatio = ratio(c.Volume, volumeMA[i])
		r.VolumeTrend = volumeTrend[i]

		r.OBV = obv[i]
		r.OBVMA = obvMA[i]
		r.OBVTrend = obvTrend[i]

		r.MAMid = maMid[i]
		r.MAShort = maShort[i]
		r.MALong = maLong[i]
		r.TrendStrength = math.NaN()
		if Valid(maShort[i]) {
			r.TrendStrength = ratio(c.Close-maShort[i], maShort[i])
		}

		r.Volatility = volatility[i]
		r.VolatilityRatio = ratio(volatility[i], volatilityMA[i])
		r.MarketStrength = MarketStrength(r.RSI, r.TrendStrength, r.VolumeRatio)

		r.PriceMomentum = momentum[i]
		r.VolumePriceTrend = volumePriceTrend(priceChange[i], volumeTrend[i])
		rows[i] = r
	}
	return rows, nil
}

// MarketStrength blends RSI, trend and relative volume into one regime score.
func MarketStrength(rsi, trendStrength, volumeRatio float64) float64 {
	if !Valid(rsi) || !Valid(trendStrength) || !Valid(volumeRatio) {
		return math.NaN()
	}
	return (rsi-50)/50*0.3 + trendStrength*0.4 + (volumeRatio-1)*0.3
}

func volumePriceTrend(priceChange, volumeTrend float64) float64 {
	if !Valid(priceChange) || !Valid(volumeTrend) {
		return math.NaN()
	}
	switch {
	case priceChange > 0 && volumeTrend > 0:
		return 1
	case priceChange < 0 && volumeTrend > 0:
		return -1
	default:
		return 0
	}
}

// ratio divides, returning NaN when either side is not ready or the denominator is zero.
func ratio(num, den float64) float64 {
	if !Valid(num) || !Valid(den) || den == 0 {
		return math.NaN()
	}
	return num / den
}
