package indicators

import (
	"ragoalert/internal/models"
)

// BollingerResult holds the three aligned Bollinger band series.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands computes an SMA middle band with upper and lower
// bands stdDevMul standard deviations away.
func BollingerBands(candles []models.Candle, period int, stdDevMul float64) (*BollingerResult, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < period {
		return nil, ErrInsufficientData
	}

	closes := closePrices(candles)
	n := len(closes) - period + 1
	result := &BollingerResult{
		Upper:  make([]float64, n),
		Middle: make([]float64, n),
		Lower:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		window := closes[i : i+period]
		m := mean(window)
		sd := stdDev(window)
		result.Middle[i] = m
		result.Upper[i] = m + stdDevMul*sd
		result.Lower[i] = m - stdDevMul*sd
	}
	return result, nil
}
