package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragoalert/internal/models"
)

func candlesFromCloses(closes ...float64) []models.Candle {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return candles
}

func TestSMA(t *testing.T) {
	result, err := SMA(candlesFromCloses(1, 2, 3, 4, 5), 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, result)
}

func TestSMAInsufficientData(t *testing.T) {
	_, err := SMA(candlesFromCloses(1, 2), 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEMA(t *testing.T) {
	result, err := EMA(candlesFromCloses(1, 2, 3, 4, 5), 3)
	require.NoError(t, err)
	// Seeded with SMA(1,2,3)=2, multiplier 0.5.
	assert.Equal(t, []float64{2, 3, 4}, result)
}

func TestEMAInvalidPeriod(t *testing.T) {
	_, err := EMA(candlesFromCloses(1, 2, 3), 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestMACDAlignment(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	result, err := MACD(candlesFromCloses(closes...), 12, 26, 9)
	require.NoError(t, err)
	require.Equal(t, len(result.Line), len(result.Signal))
	require.Equal(t, len(result.Line), len(result.Histogram))
	for i := range result.Line {
		assert.InDelta(t, result.Line[i]-result.Signal[i], result.Histogram[i], 1e-9)
	}
}

func TestMACDFastMustBeBelowSlow(t *testing.T) {
	_, err := MACD(candlesFromCloses(1, 2, 3), 26, 12, 9)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	result, err := RSI(candlesFromCloses(closes...), 14)
	require.NoError(t, err)
	for _, v := range result {
		assert.Equal(t, 100.0, v)
	}
}

func TestBollingerBandsConstantSeries(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 50
	}
	result, err := BollingerBands(candlesFromCloses(closes...), 20, 2.0)
	require.NoError(t, err)
	for i := range result.Middle {
		assert.Equal(t, 50.0, result.Middle[i])
		assert.Equal(t, 50.0, result.Upper[i])
		assert.Equal(t, 50.0, result.Lower[i])
	}
}

func TestADXBounds(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/4)
	}
	result, err := ADX(candlesFromCloses(closes...), 14)
	require.NoError(t, err)
	require.NotEmpty(t, result.ADX)
	require.Equal(t, len(result.ADX), len(result.PlusDI))
	require.Equal(t, len(result.ADX), len(result.MinusDI))
	for i := range result.ADX {
		assert.GreaterOrEqual(t, result.ADX[i], 0.0)
		assert.LessOrEqual(t, result.ADX[i], 100.0)
		assert.GreaterOrEqual(t, result.PlusDI[i], 0.0)
		assert.GreaterOrEqual(t, result.MinusDI[i], 0.0)
	}
}

func TestSnapshots(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 3*math.Sin(float64(i)/5) + float64(i)*0.1
	}
	snapshots, err := Snapshots(candlesFromCloses(closes...), DefaultParams())
	require.NoError(t, err)
	require.NotEmpty(t, snapshots)

	last := snapshots[len(snapshots)-1]
	assert.Equal(t, closes[len(closes)-1], last.Close)
	assert.GreaterOrEqual(t, last.BBUpper, last.BBMiddle)
	assert.GreaterOrEqual(t, last.BBMiddle, last.BBLower)
	assert.NotZero(t, last.EMAShort)
	assert.NotZero(t, last.EMALong)
	for i := 1; i < len(snapshots); i++ {
		assert.True(t, snapshots[i].Date.After(snapshots[i-1].Date))
	}
}

func TestSnapshotsInsufficientData(t *testing.T) {
	_, err := Snapshots(candlesFromCloses(1, 2, 3, 4, 5), DefaultParams())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRSIRangeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("RSI stays within [0, 100]", prop.ForAll(
		func(closes []float64) bool {
			result, err := RSI(candlesFromCloses(closes...), 14)
			if err != nil {
				return false
			}
			for _, v := range result {
				if v < 0 || v > 100 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float64Range(1, 1000)),
	))

	properties.Property("Bollinger bands keep their ordering", prop.ForAll(
		func(closes []float64) bool {
			result, err := BollingerBands(candlesFromCloses(closes...), 20, 2.0)
			if err != nil {
				return false
			}
			for i := range result.Middle {
				if result.Upper[i] < result.Middle[i] || result.Middle[i] < result.Lower[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float64Range(1, 1000)),
	))

	properties.TestingRun(t)
}
