package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// EMA applies span-based exponential weighting over the full history with no warm-up gate.
// Early values weight the few available points, which is why the scan applies its own warm-up.
func EMA(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	if span < 1 {
		span = 1
	}
	decay := 1 - 2/float64(span+1)
	var num, den float64
	for i, x := range xs {
		num = x + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// MACD returns the macd line, its signal line and the histogram.
func MACD(closes []float64, fast, slow, signalSpan int) (macd, signalLine, hist []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMA(macd, signalSpan)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, hist
}

// RollingMean is a simple moving average. Leading NaNs are skipped; the window must be
// fully populated before a value is produced.
func RollingMean(xs []float64, period int) []float64 {
	return rolling(xs, period, func(tail []float64) []float64 {
		return talib.Sma(tail, period)
	})
}

// RollingStd is the sample (n-1) standard deviation over a trailing window.
func RollingStd(xs []float64, period int) []float64 {
	if period < 2 {
		return nanSlice(len(xs))
	}
	correction := math.Sqrt(float64(period) / float64(period-1))
	return rolling(xs, period, func(tail []float64) []float64 {
		std := talib.StdDev(tail, period, 1)
		for i := range std {
			std[i] *= correction
		}
		return std
	})
}

// rolling runs a talib windowed function over the ready tail of xs and masks the warm-up.
func rolling(xs []float64, period int, fn func([]float64) []float64) []float64 {
	out := nanSlice(len(xs))
	if period < 1 {
		return out
	}
	start := firstValid(xs)
	if start < 0 || len(xs)-start < period {
		return out
	}
	tail := xs[start:]
	for _, v := range tail {
		if !Valid(v) {
			return out
		}
	}
	res := fn(tail)
	for i := period - 1; i < len(tail); i++ {
		out[start+i] = res[i]
	}
	return out
}

// PctChange is x[i]/x[i-lag]-1, NaN where either side is missing or the base is zero.
func PctChange(xs []float64, lag int) []float64 {
	out := nanSlice(len(xs))
	if lag < 1 {
		return out
	}
	for i := lag; i < len(xs); i++ {
		base := xs[i-lag]
		if !Valid(base) || !Valid(xs[i]) || base == 0 {
			continue
		}
		out[i] = xs[i]/base - 1
	}
	return out
}

// RSI uses simple rolling means of gains and losses. The first value needs period deltas.
// A window without losses is 100, a window without any movement is NaN.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period < 1 || len(closes) <= period {
		return out
	}
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i-1] = d
		} else if d < 0 {
			losses[i-1] = -d
		}
	}
	avgGain := talib.Sma(gains, period)
	avgLoss := talib.Sma(losses, period)
	for j := period - 1; j < len(gains); j++ {
		g, l := avgGain[j], avgLoss[j]
		// running sums can leave tiny negative residue
		if g < 1e-12 {
			g = 0
		}
		if l < 1e-12 {
			l = 0
		}
		switch {
		case l == 0 && g == 0:
			continue
		case l == 0:
			out[j+1] = 100
		default:
			out[j+1] = 100 - 100/(1+g/l)
		}
	}
	return out
}

// Bands is the Bollinger envelope plus the derived position and width.
type Bands struct {
	Upper    []float64
	Middle   []float64
	Lower    []float64
	Position []float64
	Width    []float64
}

// Bollinger computes SMA ± k·σ bands. Position is NaN when the bands collapse.
func Bollinger(closes []float64, period int, k float64) Bands {
	n := len(closes)
	b := Bands{
		Upper:    nanSlice(n),
		Middle:   RollingMean(closes, period),
		Lower:    nanSlice(n),
		Position: nanSlice(n),
		Width:    nanSlice(n),
	}
	std := RollingStd(closes, period)
	for i := range closes {
		if !Valid(b.Middle[i]) || !Valid(std[i]) {
			continue
		}
		b.Upper[i] = b.Middle[i] + k*std[i]
		b.Lower[i] = b.Middle[i] - k*std[i]
		if span := b.Upper[i] - b.Lower[i]; span > 0 {
			b.Position[i] = (closes[i] - b.Lower[i]) / span
		}
		if b.Middle[i] != 0 {
			b.Width[i] = (b.Upper[i] - b.Lower[i]) / b.Middle[i]
		}
	}
	return b
}

// OBV folds signed volume forward from zero.
func OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// Volatility is the rolling coefficient of variation of closes.
func Volatility(closes []float64, period int) []float64 {
	mean := RollingMean(closes, period)
	std := RollingStd(closes, period)
	out := nanSlice(len(closes))
	for i := range closes {
		out[i] = ratio(std[i], mean[i])
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstValid(xs []float64) int {
	for i, v := range xs {
		if Valid(v) {
			return i
		}
	}
	return -1
}
