package indicators

import (
	"ragoalert/internal/models"
)

// SMA computes a simple moving average over closing prices, aligned to
// the last len(candles)-period+1 candles.
func SMA(candles []models.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < period {
		return nil, ErrInsufficientData
	}
	closes := closePrices(candles)
	result := make([]float64, len(closes)-period+1)
	var sum float64
	for i := 0; i < period; i++ {
		sum += closes[i]
	}
	result[0] = sum / float64(period)
	for i := period; i < len(closes); i++ {
		sum += closes[i] - closes[i-period]
		result[i-period+1] = sum / float64(period)
	}
	return result, nil
}

// EMA computes an exponential moving average over closing prices. The
// first value is seeded with an SMA over the initial period.
func EMA(candles []models.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < period {
		return nil, ErrInsufficientData
	}
	return emaValues(closePrices(candles), period), nil
}

// emaValues runs the EMA recurrence over a raw value series. Callers
// must guarantee len(values) >= period.
func emaValues(values []float64, period int) []float64 {
	multiplier := 2.0 / float64(period+1)
	result := make([]float64, len(values)-period+1)
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	result[0] = sum / float64(period)
	for i := period; i < len(values); i++ {
		result[i-period+1] = (values[i]-result[i-period])*multiplier + result[i-period]
	}
	return result
}

// MACDResult holds the three aligned MACD series. All slices have the
// same length and end at the most recent candle.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the moving average convergence divergence with the
// given fast, slow and signal periods.
func MACD(candles []models.Candle, fast, slow, signal int) (*MACDResult, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return nil, ErrInvalidPeriod
	}
	minLen := slow + signal - 1
	if len(candles) < minLen {
		return nil, ErrInsufficientData
	}
	closes := closePrices(candles)
	fastEMA := emaValues(closes, fast)
	slowEMA := emaValues(closes, slow)

	// Align the fast series to the slow one before differencing.
	offset := len(fastEMA) - len(slowEMA)
	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalLine := emaValues(line, signal)
	lineAligned := line[len(line)-len(signalLine):]
	hist := make([]float64, len(signalLine))
	for i := range signalLine {
		hist[i] = lineAligned[i] - signalLine[i]
	}
	return &MACDResult{Line: lineAligned, Signal: signalLine, Histogram: hist}, nil
}

// ADXResult holds the aligned ADX and directional index series.
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX computes the average directional index using Wilder smoothing.
// It needs at least 2*period+1 candles.
func ADX(candles []models.Candle, period int) (*ADXResult, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < 2*period+1 {
		return nil, ErrInsufficientData
	}

	n := len(candles) - 1
	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < len(candles); i++ {
		tr[i-1] = trueRange(candles[i], candles[i-1])
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i-1] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i-1] = downMove
		}
	}

	smoothTR := wilderSmooth(tr, period)
	smoothPlus := wilderSmooth(plusDM, period)
	smoothMinus := wilderSmooth(minusDM, period)

	plusDI := make([]float64, len(smoothTR))
	minusDI := make([]float64, len(smoothTR))
	dx := make([]float64, len(smoothTR))
	for i := range smoothTR {
		if smoothTR[i] != 0 {
			plusDI[i] = 100 * smoothPlus[i] / smoothTR[i]
			minusDI[i] = 100 * smoothMinus[i] / smoothTR[i]
		}
		sum := plusDI[i] + minusDI[i]
		if sum != 0 {
			dx[i] = 100 * (abs(plusDI[i]-minusDI[i]) / sum)
		}
	}

	adx := wilderSmooth(dx, period)
	offset := len(plusDI) - len(adx)
	return &ADXResult{
		ADX:     adx,
		PlusDI:  plusDI[offset:],
		MinusDI: minusDI[offset:],
	}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
