package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macdbot-go/internal/signal"
)

func risingCandles(n int) []signal.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]signal.Candle, n)
	for i := range out {
		px := 100 + float64(i)
		out[i] = signal.Candle{Ts: start.Add(time.Duration(i) * time.Hour), Open: px, High: px + 1, Low: px - 1, Close: px, Volume: 10}
	}
	return out
}

func TestEMAMatchesSpanWeighting(t *testing.T) {
	got := EMA([]float64{1, 2, 3}, 3)
	assert.InDelta(t, 1.0, got[0], 1e-9)
	assert.InDelta(t, 1.6666667, got[1], 1e-6)
	assert.InDelta(t, 2.4285714, got[2], 1e-6)
}

func TestRSIRisingSeriesIsHundred(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSI(closes, 14)
	for i := 0; i < 14; i++ {
		assert.False(t, Valid(rsi[i]), "rsi[%d] should not be ready", i)
	}
	for i := 14; i < len(rsi); i++ {
		assert.Equal(t, 100.0, rsi[i], "rsi[%d]", i)
	}
}

func TestRSIFlatSeriesIsNull(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 50
	}
	for _, v := range RSI(closes, 14) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSIMixedSeries(t *testing.T) {
	closes := []float64{10, 11, 10, 11, 10, 11}
	rsi := RSI(closes, 4)
	// window of 4 deltas: +1 -1 +1 -1
	assert.InDelta(t, 50.0, rsi[4], 1e-9)
	assert.InDelta(t, 50.0, rsi[5], 1e-9)
}

func TestOBVFold(t *testing.T) {
	closes := []float64{10, 11, 11, 9, 12}
	volumes := []float64{5, 3, 7, 2, 4}
	assert.Equal(t, []float64{0, 3, 3, 1, 5}, OBV(closes, volumes))
}

func TestRollingMeanSkipsLeadingNulls(t *testing.T) {
	xs := []float64{math.NaN(), math.NaN(), 1, 2, 3, 4}
	got := RollingMean(xs, 3)
	assert.True(t, math.IsNaN(got[3]))
	assert.InDelta(t, 2.0, got[4], 1e-9)
	assert.InDelta(t, 3.0, got[5], 1e-9)
}

func TestRollingMeanShortInput(t *testing.T) {
	for _, v := range RollingMean([]float64{1, 2}, 5) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestBollingerUsesSampleStd(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	b := Bollinger(closes, 20, 2)
	std := math.Sqrt(35)
	assert.InDelta(t, 10.5, b.Middle[19], 1e-9)
	assert.InDelta(t, 10.5+2*std, b.Upper[19], 1e-6)
	assert.InDelta(t, 10.5-2*std, b.Lower[19], 1e-6)
	assert.InDelta(t, (20-(10.5-2*std))/(4*std), b.Position[19], 1e-6)
	assert.InDelta(t, 4*std/10.5, b.Width[19], 1e-6)
	assert.True(t, math.IsNaN(b.Middle[18]))
}

func TestBollingerCollapsedBandsHaveNoPosition(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 7
	}
	b := Bollinger(closes, 20, 2)
	assert.True(t, math.IsNaN(b.Position[19]))
}

func TestPctChangeZeroBase(t *testing.T) {
	got := PctChange([]float64{0, 1, 2, 4}, 1)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 1.0, got[2], 1e-9)
	assert.InDelta(t, 1.0, got[3], 1e-9)
}

func TestComputeColdStartLeavesNulls(t *testing.T) {
	rows, err := Compute(risingCandles(30), DefaultParams())
	require.NoError(t, err)
	require.Len(t, rows, 30)

	for i, r := range rows {
		assert.False(t, Valid(r.MALong), "ma200 ready at %d", i)
		assert.False(t, Valid(r.MAShort), "ma50 ready at %d", i)
		assert.False(t, Valid(r.TrendStrength))
		assert.False(t, Valid(r.MarketStrength))
		assert.True(t, Valid(r.MACD))
	}
	assert.False(t, Valid(rows[18].VolumeRatio))
	assert.InDelta(t, 1.0, rows[19].VolumeRatio, 1e-9)
	assert.InDelta(t, 0.0, rows[29].VolumeTrend, 1e-9)
	assert.False(t, Valid(rows[0].MACDAcceleration))
}

func TestComputeTrendAndMarketStrength(t *testing.T) {
	rows, err := Compute(risingCandles(60), DefaultParams())
	require.NoError(t, err)
	last := rows[59]
	// ma50 over closes 110..159 is 134.5
	assert.InDelta(t, 134.5, last.MAShort, 1e-9)
	assert.InDelta(t, (159-134.5)/134.5, last.TrendStrength, 1e-9)
	assert.InDelta(t, 0.3+0.4*last.TrendStrength, last.MarketStrength, 1e-9)
	rising, ok := last.OBVRising()
	assert.True(t, ok)
	assert.True(t, rising)
}

func TestComputeRejectsMalformedCandles(t *testing.T) {
	candles := risingCandles(5)
	candles[3].Ts = candles[2].Ts
	_, err := Compute(candles, DefaultParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 3, verr.Index)

	candles = risingCandles(5)
	candles[1].Close = 0
	_, err = Compute(candles, DefaultParams())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComputeEmpty(t *testing.T) {
	rows, err := Compute(nil, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	candles := risingCandles(40)
	before := append([]signal.Candle(nil), candles...)
	_, err := Compute(candles, Params{})
	require.NoError(t, err)
	assert.Equal(t, before, candles)
}
