package indicators

import (
	"errors"
	"math"

	"ragoalert/internal/models"
)

var (
	// ErrInsufficientData is returned when a calculation needs more
	// candles than the caller supplied.
	ErrInsufficientData = errors.New("insufficient data for calculation")

	// ErrInvalidPeriod is returned for zero or negative periods.
	ErrInvalidPeriod = errors.New("invalid period")
)

func closePrices(candles []models.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// wilderSmooth applies Wilder's smoothing: the first value is an SMA
// seed and each subsequent value moves 1/period toward the input.
func wilderSmooth(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	result := make([]float64, len(values))
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	result[period-1] = sum / float64(period)
	for i := period; i < len(values); i++ {
		result[i] = result[i-1] + (values[i]-result[i-1])/float64(period)
	}
	return result[period-1:]
}

func trueRange(current, previous models.Candle) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - previous.Close)
	lc := math.Abs(current.Low - previous.Close)
	return math.Max(hl, math.Max(hc, lc))
}
